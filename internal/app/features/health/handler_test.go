package health_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/groupsched/internal/app/features/health"
	fanoutstore "github.com/dalemusser/groupsched/internal/app/store/fanout"
	"github.com/dalemusser/groupsched/internal/app/store/memstore"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"github.com/dalemusser/groupsched/internal/testutil"
	"go.uber.org/zap"
)

type healthBody struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	PendingFanout *int64 `json:"pending_fanout"`
}

func serve(t *testing.T, h *health.Handler) healthBody {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return body
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), fanoutstore.New(db), 10, zap.NewNop())

	body := serve(t, handler)
	if body.Status != "ok" {
		t.Errorf("status: got %q, want %q", body.Status, "ok")
	}
	if body.Database != "connected" {
		t.Errorf("database: got %q, want %q", body.Database, "connected")
	}
	if body.PendingFanout == nil || *body.PendingFanout != 0 {
		t.Errorf("pending_fanout: got %v, want 0", body.PendingFanout)
	}
}

func TestServe_MemoryBackendReportsBacklog(t *testing.T) {
	st := memstore.New()
	if err := st.Fanout().Record(context.Background(), models.FanoutFailure{Kind: models.FanoutFreeTime, UserID: "alice1"}); err != nil {
		t.Fatal(err)
	}
	handler := health.NewHandler(nil, st.Fanout(), 10, zap.NewNop())

	body := serve(t, handler)
	if body.Database != "memory" {
		t.Errorf("database: got %q, want memory", body.Database)
	}
	if body.PendingFanout == nil || *body.PendingFanout != 1 {
		t.Errorf("pending_fanout: got %v, want 1", body.PendingFanout)
	}
}

func TestRoutes_Live(t *testing.T) {
	r := health.Routes(health.NewHandler(nil, nil, 0, zap.NewNop()))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"status\":\"ok\"}\n" {
		t.Errorf("body: got %q", got)
	}
}
