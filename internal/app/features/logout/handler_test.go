package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/groupsched/internal/app/features/logout"
	"github.com/dalemusser/groupsched/internal/app/system/auth"
	"go.uber.org/zap"
)

func newSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sessionMgr
}

func TestServeLogout_ClearsSessionCookie(t *testing.T) {
	sessionMgr := newSessionManager(t)
	handler := logout.NewHandler(sessionMgr, zap.NewNop())

	// Sign in first so the logout request carries a real session cookie.
	rec1 := httptest.NewRecorder()
	if err := sessionMgr.SignIn(rec1, httptest.NewRequest("POST", "/login", nil), auth.SessionUser{UserID: "alice1"}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("POST", "/logout", nil)
	for _, c := range rec1.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
			if c.MaxAge != -1 {
				t.Errorf("cookie MaxAge: got %d, want -1 (delete)", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected session cookie to be set for deletion")
	}
}

func TestRoutes_RequireSignedIn(t *testing.T) {
	sessionMgr := newSessionManager(t)
	r := logout.Routes(logout.NewHandler(sessionMgr, zap.NewNop()), sessionMgr)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}

	rec = httptest.NewRecorder()
	req := auth.WithTestUser(httptest.NewRequest("POST", "/", nil), &auth.SessionUser{UserID: "alice1"})
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
}
