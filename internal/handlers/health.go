package handlers

import "net/http"

// HealthHandler reports liveness for load balancers and uptime checks.
type HealthHandler struct{}

// Handle implements GET /healthz.
func (HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload := map[string]string{
		"status":  "ok",
		"service": "clipstream",
	}
	respondJSON(r.Context(), w, http.StatusOK, payload)
}
