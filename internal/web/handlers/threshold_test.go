package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-threshold/internal/database"
	"github.com/kozaktomas/face-threshold/internal/database/mock"
	"github.com/kozaktomas/face-threshold/internal/dataset"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestThresholdHandler() (*ThresholdHandler, *Metrics) {
	metrics := NewMetrics()
	return NewThresholdHandler(testConfig(), metrics, discardLogger()), metrics
}

func decodeThresholdResponse(t *testing.T, rec *httptest.ResponseRecorder) ThresholdResponse {
	t.Helper()
	var resp ThresholdResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func ptr(v float64) *float64 { return &v }

func TestThresholdHandler_Calculate(t *testing.T) {
	handler, metrics := newTestThresholdHandler()

	rec := httptest.NewRecorder()
	handler.Calculate(rec, jsonRequest(t, http.MethodPost, "/api/v1/threshold", ThresholdRequest{
		Pairs: separablePairs(),
		Top:   3,
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	resp := decodeThresholdResponse(t, rec)

	if math.Abs(resp.Threshold-0.01) > 1e-9 {
		t.Errorf("threshold = %v, want 0.01", resp.Threshold)
	}
	if resp.Score != 1 {
		t.Errorf("score = %v, want 1", resp.Score)
	}
	if resp.Measure.String() != "COSINE" || resp.Metric.String() != "ACCURACY" {
		t.Errorf("unexpected measure/metric %s/%s", resp.Measure, resp.Metric)
	}
	if resp.Candidates != 100 {
		t.Errorf("candidates = %d, want 100", resp.Candidates)
	}
	if resp.Pairs.Total != 4 || resp.Pairs.Matches != 2 {
		t.Errorf("unexpected pair stats %+v", resp.Pairs)
	}
	if resp.Confusion.TP != 2 || resp.Confusion.TN != 2 {
		t.Errorf("unexpected confusion %+v", resp.Confusion)
	}
	if len(resp.Top) != 3 || resp.Top[0].Threshold != resp.Threshold {
		t.Errorf("unexpected top candidates %+v", resp.Top)
	}
	if resp.CalibrationID != "" {
		t.Errorf("expected no calibration id, got %q", resp.CalibrationID)
	}

	if got := testutil.ToFloat64(metrics.calibrations.WithLabelValues("COSINE", "ACCURACY", OutcomeSuccess)); got != 1 {
		t.Errorf("success counter = %v, want 1", got)
	}
}

func TestThresholdHandler_Calculate_RangeOverride(t *testing.T) {
	handler, _ := newTestThresholdHandler()

	rec := httptest.NewRecorder()
	handler.Calculate(rec, jsonRequest(t, http.MethodPost, "/api/v1/threshold", ThresholdRequest{
		Measure: "euclidean_l2",
		Metric:  "f1",
		Start:   ptr(0.5),
		End:     ptr(1.5),
		Step:    ptr(0.25),
		Workers: 16,
		Pairs:   separablePairs(),
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	resp := decodeThresholdResponse(t, rec)

	// L2 distances are 0 and sqrt(2); 0.5 is the first candidate and already separates.
	if resp.Threshold != 0.5 {
		t.Errorf("threshold = %v, want 0.5", resp.Threshold)
	}
	if resp.Candidates != 4 {
		t.Errorf("candidates = %d, want 4", resp.Candidates)
	}
	if resp.Metric.String() != "F1" {
		t.Errorf("metric = %s, want F1", resp.Metric)
	}
}

func TestThresholdHandler_Calculate_BadRequests(t *testing.T) {
	mismatched := []dataset.Pair{{
		Left:    dataset.Face{ID: "a", Embedding: []float32{1, 0}},
		Right:   dataset.Face{ID: "b", Embedding: []float32{1}},
		IsMatch: true,
	}}

	tests := []struct {
		name      string
		req       ThresholdRequest
		wantError string
	}{
		{"unknown measure", ThresholdRequest{Measure: "manhattan", Pairs: separablePairs()}, "COSINE"},
		{"unknown metric", ThresholdRequest{Metric: "auc", Pairs: separablePairs()}, "ACCURACY"},
		{"zero step", ThresholdRequest{Step: ptr(0), Pairs: separablePairs()}, "range"},
		{"inverted range", ThresholdRequest{Start: ptr(1), End: ptr(0), Pairs: separablePairs()}, "range"},
		{"empty pairs", ThresholdRequest{}, "no pairs"},
		{"dimension mismatch", ThresholdRequest{Pairs: mismatched}, "dimensions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, metrics := newTestThresholdHandler()

			rec := httptest.NewRecorder()
			handler.Calculate(rec, jsonRequest(t, http.MethodPost, "/api/v1/threshold", tt.req))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to unmarshal error: %v", err)
			}
			if !strings.Contains(body["error"], tt.wantError) {
				t.Errorf("error = %q, want it to contain %q", body["error"], tt.wantError)
			}
			if got := testutil.CollectAndCount(metrics.calibrations); got != 1 {
				t.Errorf("expected one outcome series, got %d", got)
			}
		})
	}
}

func TestThresholdHandler_Calculate_InvalidBody(t *testing.T) {
	handler, _ := newTestThresholdHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/threshold", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.Calculate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestThresholdHandler_Calculate_BodyTooLarge(t *testing.T) {
	handler, _ := newTestThresholdHandler()
	handler.config.Web.MaxBodyBytes = 16

	body := bytes.NewReader([]byte(`{"measure": "COSINE", "pairs": []}`))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/threshold", body)
	rec := httptest.NewRecorder()
	handler.Calculate(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status %d, got %d", http.StatusRequestEntityTooLarge, rec.Code)
	}
}

func TestThresholdHandler_Calculate_Save(t *testing.T) {
	t.Cleanup(database.Reset)
	database.Reset()

	handler, metrics := newTestThresholdHandler()
	save := ThresholdRequest{Pairs: separablePairs(), Save: true}

	rec := httptest.NewRecorder()
	handler.Calculate(rec, jsonRequest(t, http.MethodPost, "/api/v1/threshold", save))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d without database, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if got := testutil.ToFloat64(metrics.calibrations.WithLabelValues("COSINE", "ACCURACY", OutcomeSuccess)); got != 0 {
		t.Errorf("expected no successful calibration without database, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.calibrations.WithLabelValues("COSINE", "ACCURACY", OutcomeUnavailable)); got != 1 {
		t.Errorf("expected 1 unavailable calibration, got %v", got)
	}
	if got := testutil.CollectAndCount(metrics.duration); got != 0 {
		t.Errorf("expected no scan before storage check, got %d duration series", got)
	}

	writer := mock.NewMockCalibrationWriter()
	database.RegisterPostgresBackend(
		func() database.FaceReader { return mock.NewMockFaceReader() },
		func() database.CalibrationWriter { return writer },
	)

	rec = httptest.NewRecorder()
	handler.Calculate(rec, jsonRequest(t, http.MethodPost, "/api/v1/threshold", save))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	resp := decodeThresholdResponse(t, rec)
	if resp.CalibrationID == "" {
		t.Error("expected calibration id")
	}

	runs, err := writer.ListCalibrations(t.Context(), 10)
	if err != nil {
		t.Fatalf("ListCalibrations() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 stored run, got %d", len(runs))
	}
	if runs[0].Source != calibrationSource || runs[0].PairCount != 4 || runs[0].MatchCount != 2 {
		t.Errorf("unexpected stored run %+v", runs[0])
	}
	if got := testutil.ToFloat64(metrics.calibrations.WithLabelValues("COSINE", "ACCURACY", OutcomeSuccess)); got != 1 {
		t.Errorf("expected 1 successful calibration, got %v", got)
	}
}

func TestThresholdHandler_Calculate_SaveFails(t *testing.T) {
	t.Cleanup(database.Reset)
	database.Reset()

	writer := mock.NewMockCalibrationWriter()
	writer.SaveError = errors.New("disk full")
	database.RegisterPostgresBackend(
		func() database.FaceReader { return mock.NewMockFaceReader() },
		func() database.CalibrationWriter { return writer },
	)

	handler, metrics := newTestThresholdHandler()
	rec := httptest.NewRecorder()
	handler.Calculate(rec, jsonRequest(t, http.MethodPost, "/api/v1/threshold", ThresholdRequest{Pairs: separablePairs(), Save: true}))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if got := testutil.ToFloat64(metrics.calibrations.WithLabelValues("COSINE", "ACCURACY", OutcomeSuccess)); got != 0 {
		t.Errorf("expected no successful calibration, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.calibrations.WithLabelValues("COSINE", "ACCURACY", OutcomeServerError)); got != 1 {
		t.Errorf("expected 1 server error, got %v", got)
	}
}

func TestMetricLabels(t *testing.T) {
	measure, metric := metricLabels("euclidean", "nope")
	if measure != "EUCLIDEAN" || metric != "unknown" {
		t.Errorf("metricLabels() = %s, %s", measure, metric)
	}
}
