package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/loomos/internal/app/system/respond"
	"github.com/dalemusser/loomos/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Pinger is a backend the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// cachePinger is implemented by stores fronted by a cache.
type cachePinger interface {
	PingCache(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Store  Pinger
	Driver string
	Log    *zap.Logger
}

// NewHandler constructs a health Handler for the organization store.
func NewHandler(store Pinger, driver string, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		Driver: driver,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Driver   string `json:"driver,omitempty"`
	Cache    string `json:"cache,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "driver":"mongo", "cache":"connected" }
//
// On store failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…" }
//
// A cache failure is reported but does not fail the check: reads fall
// through to the store.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Driver:   h.Driver,
	}

	if err := h.Store.Ping(ctx); err != nil {
		h.Log.Error("health-check: store ping failed", zap.String("driver", h.Driver), zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		respond.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	if c, ok := h.Store.(cachePinger); ok {
		resp.Cache = "connected"
		if err := c.PingCache(ctx); err != nil {
			h.Log.Warn("health-check: cache ping failed", zap.Error(err))
			resp.Cache = "degraded"
		}
	}

	respond.JSON(w, http.StatusOK, resp)
}

// Live handles GET /health/live without touching any backend.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
