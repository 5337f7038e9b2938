package server

import (
	"encoding/json"
	"net/http"
)

// HealthHandler answers liveness checks.
type HealthHandler struct{}

func (HealthHandler) Routes() []string {
	return []string{"GET /health"}
}

func (HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
