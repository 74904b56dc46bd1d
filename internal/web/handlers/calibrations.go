package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kozaktomas/face-threshold/internal/constants"
	"github.com/kozaktomas/face-threshold/internal/database"
)

// CalibrationsHandler lists stored calibration runs.
type CalibrationsHandler struct {
	logger *slog.Logger
}

// NewCalibrationsHandler creates a new calibrations handler.
func NewCalibrationsHandler(logger *slog.Logger) *CalibrationsHandler {
	return &CalibrationsHandler{logger: logger}
}

// List handles GET /api/v1/calibrations?limit=N.
func (h *CalibrationsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := constants.DefaultHandlerCalibrationLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, constants.MaxHandlerCalibrationLimit)
	}

	writer, err := database.GetCalibrationWriter(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	runs, err := writer.ListCalibrations(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list calibrations", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list calibrations")
		return
	}
	if runs == nil {
		runs = []database.Calibration{}
	}
	respondJSON(w, http.StatusOK, runs)
}
