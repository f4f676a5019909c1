package api

import (
	"net/http"
	"time"
)

// HealthHandler answers liveness probes on the health-check listener.
type HealthHandler struct {
	clock func() time.Time
}

// HealthOption configures HealthHandler behaviour.
type HealthOption func(*HealthHandler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandler) {
		h.clock = clock
	}
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	})
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
