package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-threshold/internal/dataset"
	"github.com/kozaktomas/face-threshold/internal/scoring"
	"github.com/kozaktomas/face-threshold/internal/selector"
	"github.com/kozaktomas/face-threshold/internal/threshold"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// isClientError reports whether err was caused by the request contents
// rather than by the server.
func isClientError(err error) bool {
	return errors.Is(err, selector.ErrUnknown) ||
		errors.Is(err, scoring.ErrUnsupportedMetric) ||
		errors.Is(err, threshold.ErrInvalidRange) ||
		errors.Is(err, threshold.ErrNoPairs) ||
		errors.Is(err, dataset.ErrNoEmbedding) ||
		errors.Is(err, dataset.ErrDimensionMismatch)
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
