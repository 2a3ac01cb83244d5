package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthCheck is a named dependency probe, e.g. the user store or Redis.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler serves /health by running every check.
type HealthHandler struct {
	checks []HealthCheck
}

// NewHealthHandler creates a health handler. Checks with a nil Ping are skipped.
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	kept := make([]HealthCheck, 0, len(checks))
	for _, c := range checks {
		if c.Ping != nil {
			kept = append(kept, c)
		}
	}
	return &HealthHandler{checks: kept}
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Message string            `json:"message,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allOK := true
	for _, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			checks[c.Name] = "down: " + err.Error()
			allOK = false
		} else {
			checks[c.Name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !allOK {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status:  "unhealthy",
			Checks:  checks,
			Message: "one or more checks failed",
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status: "ok",
		Checks: checks,
	})
}

// AuthHealth is the shallow liveness probe for the auth routes.
func AuthHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
