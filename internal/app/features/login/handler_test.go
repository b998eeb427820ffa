package login_test

import (
	"net/http"
	"testing"
	"time"

	httperr "github.com/dalemusser/groupsched/internal/app/features/errors"
	"github.com/dalemusser/groupsched/internal/app/features/login"
	"github.com/dalemusser/groupsched/internal/app/system/auth"
	"github.com/dalemusser/groupsched/internal/app/system/ratelimit"
	"github.com/dalemusser/groupsched/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *login.Handler {
	t.Helper()
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	svc, _ := testutil.NewService(t)
	testutil.MustRegister(t, svc, "alice1")
	return login.NewHandler(svc, sessionMgr, httperr.NewErrorLogger(logger), logger)
}

func TestHandleLoginPost_Success(t *testing.T) {
	handler := newTestHandler(t)

	req := testutil.NewJSONRequest("POST", "/login", map[string]string{
		"userId":   "ALICE1",
		"password": testutil.TestPassword,
	})
	rec := testutil.NewRecorder()
	handler.HandleLoginPost(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var user struct {
		UserID       string `json:"userId"`
		PasswordHash string `json:"passwordHash"`
		LastLogin    string `json:"lastLogin"`
	}
	rec.DecodeJSON(t, &user)
	if user.UserID != "alice1" {
		t.Errorf("userId: got %q, want alice1", user.UserID)
	}
	if user.PasswordHash != "" {
		t.Error("response must not carry the password hash")
	}
	if user.LastLogin == "" {
		t.Error("expected lastLogin to be set")
	}

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected a session cookie")
	}
}

func TestHandleLoginPost_Failures(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"wrong password", map[string]string{"userId": "alice1", "password": "Wr0ngpass!"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"userId": "nobody1", "password": testutil.TestPassword}, http.StatusUnauthorized},
		{"missing password", map[string]string{"userId": "alice1"}, http.StatusBadRequest},
		{"unknown field", map[string]string{"userId": "alice1", "password": "x", "email": "a@b.c"}, http.StatusBadRequest},
		{"malformed", `{"userId":`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			handler.HandleLoginPost(rec, testutil.NewJSONRequest("POST", "/login", tc.body))
			rec.AssertStatus(t, tc.want)
			if len(rec.Result().Cookies()) != 0 {
				t.Error("a failed login must not set a cookie")
			}
		})
	}
}

func TestHandleLoginPost_Throttled(t *testing.T) {
	handler := newTestHandler(t)
	handler.Limiter = ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 2, time.Hour)

	bad := map[string]string{"userId": "alice1", "password": "Wr0ngpass!"}
	for i := 0; i < 2; i++ {
		rec := testutil.NewRecorder()
		handler.HandleLoginPost(rec, testutil.NewJSONRequest("POST", "/login", bad))
		rec.AssertStatus(t, http.StatusUnauthorized)
	}

	rec := testutil.NewRecorder()
	handler.HandleLoginPost(rec, testutil.NewJSONRequest("POST", "/login", map[string]string{
		"userId":   "alice1",
		"password": testutil.TestPassword,
	}))
	rec.AssertStatus(t, http.StatusTooManyRequests)
	rec.AssertContains(t, "too many sign-in attempts")
}
