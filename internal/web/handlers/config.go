package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-threshold/internal/config"
	"github.com/kozaktomas/face-threshold/internal/database"
	"github.com/kozaktomas/face-threshold/internal/distance"
	"github.com/kozaktomas/face-threshold/internal/scoring"
	"github.com/kozaktomas/face-threshold/internal/threshold"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Measures          []MeasureInfo `json:"measures"`
	Metrics           []string      `json:"metrics"`
	DefaultMeasure    string        `json:"default_measure"`
	DefaultMetric     string        `json:"default_metric"`
	MaxWorkers        int           `json:"max_workers"`
	CalibrationsSaved bool          `json:"calibrations_saved"`
}

// MeasureInfo describes a distance measure and its default scan range
type MeasureInfo struct {
	Name  string          `json:"name"`
	Range threshold.Range `json:"range"`
}

// Get returns the available measures, metrics and defaults
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	measures := make([]MeasureInfo, 0, len(distance.Measures()))
	for _, m := range distance.Measures() {
		measures = append(measures, MeasureInfo{
			Name:  m.String(),
			Range: h.config.DefaultRange(m),
		})
	}

	response := ConfigResponse{
		Measures:          measures,
		Metrics:           scoring.MetricNames,
		DefaultMeasure:    h.config.Calibration.Measure,
		DefaultMetric:     h.config.Calibration.Metric,
		MaxWorkers:        h.config.Web.MaxWorkers,
		CalibrationsSaved: database.IsInitialized(),
	}

	respondJSON(w, http.StatusOK, response)
}
