package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kozaktomas/face-threshold/internal/config"
	"github.com/kozaktomas/face-threshold/internal/database"
	"github.com/kozaktomas/face-threshold/internal/dataset"
	"github.com/kozaktomas/face-threshold/internal/distance"
	"github.com/kozaktomas/face-threshold/internal/scoring"
	"github.com/kozaktomas/face-threshold/internal/threshold"
)

// calibrationSource marks runs stored from the HTTP API.
const calibrationSource = "api"

// ThresholdHandler runs threshold calibrations over posted pairs.
type ThresholdHandler struct {
	config  *config.Config
	metrics *Metrics
	logger  *slog.Logger
}

// NewThresholdHandler creates a new threshold handler.
func NewThresholdHandler(cfg *config.Config, metrics *Metrics, logger *slog.Logger) *ThresholdHandler {
	return &ThresholdHandler{
		config:  cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// ThresholdRequest is the body of a calibration request. Omitted fields fall
// back to the configured defaults.
type ThresholdRequest struct {
	Measure string         `json:"measure"`
	Metric  string         `json:"metric"`
	Start   *float64       `json:"start"`
	End     *float64       `json:"end"`
	Step    *float64       `json:"step"`
	Workers int            `json:"workers"`
	Top     int            `json:"top"`
	Save    bool           `json:"save"`
	Pairs   []dataset.Pair `json:"pairs"`
}

// ThresholdResponse is the result of a calibration request.
type ThresholdResponse struct {
	Threshold     float64                    `json:"threshold"`
	Score         float64                    `json:"score"`
	Measure       distance.Measure           `json:"measure"`
	Metric        scoring.Metric             `json:"metric"`
	Range         threshold.Range            `json:"range"`
	Candidates    int                        `json:"candidates"`
	Confusion     scoring.ConfusionMatrix    `json:"confusion"`
	Pairs         dataset.Stats              `json:"pairs"`
	DurationMs    int64                      `json:"duration_ms"`
	Top           []threshold.CandidateScore `json:"top,omitempty"`
	CalibrationID string                     `json:"calibration_id,omitempty"`
}

// resolveRange applies request overrides on top of the default range for the measure.
func (h *ThresholdHandler) resolveRange(req *ThresholdRequest) threshold.Range {
	rng := threshold.Range{Start: 0, End: 1, Step: 0.01}
	if m, err := distance.ParseMeasure(req.Measure); err == nil {
		rng = h.config.DefaultRange(m)
	}
	if req.Start != nil {
		rng.Start = *req.Start
	}
	if req.End != nil {
		rng.End = *req.End
	}
	if req.Step != nil {
		rng.Step = *req.Step
	}
	return rng
}

func (h *ThresholdHandler) resolveWorkers(requested int) int {
	workers := requested
	if workers <= 0 {
		workers = h.config.Calibration.Workers
	}
	if limit := h.config.Web.MaxWorkers; limit > 0 && workers > limit {
		workers = limit
	}
	return max(workers, 1)
}

// Calculate handles POST /api/v1/threshold.
func (h *ThresholdHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	if h.config.Web.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(h.config.Web.MaxBodyBytes))
	}

	var req ThresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Measure == "" {
		req.Measure = h.config.Calibration.Measure
	}
	if req.Metric == "" {
		req.Metric = h.config.Calibration.Metric
	}

	calc, err := threshold.NewFromNames(req.Measure, req.Metric, h.resolveRange(&req), nil,
		threshold.WithWorkers(h.resolveWorkers(req.Workers)),
		threshold.WithLogger(h.logger),
	)
	if err != nil {
		h.fail(w, req.Measure, req.Metric, err)
		return
	}

	// Check storage up front so an unsaveable request does not pay for the scan.
	var writer database.CalibrationWriter
	if req.Save {
		writer, err = database.GetCalibrationWriter(r.Context())
		if err != nil {
			h.metrics.ObserveCalibration(calc.Measure().String(), calc.Metric().String(), OutcomeUnavailable)
			respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}

	res, err := calc.Scan(r.Context(), req.Pairs)
	if err != nil {
		h.fail(w, calc.Measure().String(), calc.Metric().String(), err)
		return
	}
	h.metrics.ObserveScan(res.Measure.String(), res.Duration.Seconds(), res.Pairs.Total)

	resp := ThresholdResponse{
		Threshold:  res.Threshold,
		Score:      res.Score,
		Measure:    res.Measure,
		Metric:     res.Metric,
		Range:      res.Range,
		Candidates: len(res.Candidates),
		Confusion:  res.Confusion,
		Pairs:      res.Pairs,
		DurationMs: res.Duration.Milliseconds(),
	}
	if req.Top > 0 {
		resp.Top = res.Top(req.Top)
	}

	if writer != nil {
		id, err := h.save(r, writer, res)
		if err != nil {
			h.metrics.ObserveCalibration(res.Measure.String(), res.Metric.String(), OutcomeServerError)
			h.logger.Error("failed to save calibration", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to save calibration")
			return
		}
		resp.CalibrationID = id
	}

	h.metrics.ObserveCalibration(res.Measure.String(), res.Metric.String(), OutcomeSuccess)
	respondJSON(w, http.StatusOK, resp)
}

func (h *ThresholdHandler) save(r *http.Request, writer database.CalibrationWriter, res *threshold.Result) (string, error) {
	run := &database.Calibration{
		Source:     calibrationSource,
		Measure:    res.Measure.String(),
		Metric:     res.Metric.String(),
		RangeStart: res.Range.Start,
		RangeEnd:   res.Range.End,
		RangeStep:  res.Range.Step,
		Threshold:  res.Threshold,
		Score:      res.Score,
		PairCount:  res.Pairs.Total,
		MatchCount: res.Pairs.Matches,
		DurationMs: res.Duration.Milliseconds(),
	}
	if err := writer.SaveCalibration(r.Context(), run); err != nil {
		return "", err
	}
	return run.ID, nil
}

// metricLabels maps request names to bounded label values.
func metricLabels(measure, metric string) (string, string) {
	measureLabel, metricLabel := "unknown", "unknown"
	if m, err := distance.ParseMeasure(measure); err == nil {
		measureLabel = m.String()
	}
	if m, err := scoring.ParseMetric(metric); err == nil {
		metricLabel = m.String()
	}
	return measureLabel, metricLabel
}

func (h *ThresholdHandler) fail(w http.ResponseWriter, measure, metric string, err error) {
	measureLabel, metricLabel := metricLabels(measure, metric)
	if isClientError(err) {
		h.metrics.ObserveCalibration(measureLabel, metricLabel, OutcomeClientError)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.metrics.ObserveCalibration(measureLabel, metricLabel, OutcomeServerError)
	h.logger.Error("calibration failed",
		"measure", sanitizeForLog(measure),
		"metric", sanitizeForLog(metric),
		"error", err,
	)
	respondError(w, http.StatusInternalServerError, "calibration failed")
}
