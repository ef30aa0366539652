package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	httputil "visitorpass/pkg/http"
	"visitorpass/pkg/logger"
)

type HealthResponse struct {
	Status       string            `json:"status"`
	ActivePasses *int              `json:"activePasses,omitempty"`
	Checks       map[string]string `json:"checks,omitempty"`
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type HealthHandler struct {
	counter func() int
	checks  map[string]ReadinessCheck
	log     *logger.Logger
}

// NewHealthHandler reports liveness, and readiness as the conjunction of
// checks. counter supplies the number of stored passes.
func NewHealthHandler(counter func() int, checks map[string]ReadinessCheck, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		counter: counter,
		checks:  checks,
		log:     log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, resp := http.StatusOK, HealthResponse{Status: "ready"}
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Error("Readiness check failed",
				"check", name,
				"error", err,
				"path", r.URL.Path,
			)
			resp.Checks[name] = "error"
			status, resp.Status = http.StatusServiceUnavailable, "unavailable"
			continue
		}
		resp.Checks[name] = "ok"
	}

	if h.counter != nil {
		n := h.counter()
		resp.ActivePasses = &n
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
