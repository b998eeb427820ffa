package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/groupsched/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// PendingCounter reports how many fan-out failures still await replay.
type PendingCounter interface {
	CountPending(ctx context.Context, maxAttempts int) (int64, error)
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client      *mongo.Client // nil when running on the in-memory store
	Fanout      PendingCounter
	MaxAttempts int
	Log         *zap.Logger
}

// NewHandler constructs a health Handler.
func NewHandler(client *mongo.Client, fanout PendingCounter, maxAttempts int, logger *zap.Logger) *Handler {
	return &Handler{
		Client:      client,
		Fanout:      fanout,
		MaxAttempts: maxAttempts,
		Log:         logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status        string `json:"status"`
	Database      string `json:"database,omitempty"`
	PendingFanout *int64 `json:"pending_fanout,omitempty"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "pending_fanout":0 }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
//
// A backlog of unreplayed fan-out writes is reported but does not fail the
// check.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if h.Client == nil {
		resp.Database = "memory"
	} else if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Fanout != nil {
		n, err := h.Fanout.CountPending(ctx, h.MaxAttempts)
		if err != nil {
			h.Log.Warn("health-check: count pending fan-out failed", zap.Error(err))
		} else {
			resp.PendingFanout = &n
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// ServeLive handles GET /health/live. It never touches the database.
func (h *Handler) ServeLive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok"})
}
