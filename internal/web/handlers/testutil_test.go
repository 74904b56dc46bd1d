package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-threshold/internal/config"
	"github.com/kozaktomas/face-threshold/internal/dataset"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Calibration = config.CalibrationConfig{Measure: "COSINE", Metric: "ACCURACY", Workers: 1}
	cfg.Web = config.WebConfig{MaxBodyBytes: 1 << 20, MaxWorkers: 4}
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// jsonRequest creates a request with a JSON-encoded body
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// separablePairs returns pairs whose cosine distances are 0 for matches and 1
// for non-matches.
func separablePairs() []dataset.Pair {
	face := func(id string, v ...float32) dataset.Face {
		return dataset.Face{ID: id, Embedding: v}
	}
	return []dataset.Pair{
		{Left: face("a1", 1, 0), Right: face("a2", 1, 0), IsMatch: true},
		{Left: face("b1", 0, 1), Right: face("b2", 0, 1), IsMatch: true},
		{Left: face("a1", 1, 0), Right: face("b1", 0, 1), IsMatch: false},
		{Left: face("a2", 1, 0), Right: face("b2", 0, 1), IsMatch: false},
	}
}
