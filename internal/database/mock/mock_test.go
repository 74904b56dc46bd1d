package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/kozaktomas/face-threshold/internal/database"
)

func TestMockFaceReader(t *testing.T) {
	ctx := context.Background()
	m := NewMockFaceReader()
	m.AddFaces("p1", []database.StoredFace{
		{SubjectName: "Jan Novák", DetScore: 0.9, Embedding: []float32{1, 0}},
		{DetScore: 0.9, Embedding: []float32{0, 1}},
	})
	m.AddFaces("p2", []database.StoredFace{
		{SubjectName: "jan-novak", DetScore: 0.3, Embedding: []float32{1, 1}},
	})

	labeled, err := m.GetLabeledFaces(ctx, 0.5)
	if err != nil {
		t.Fatalf("GetLabeledFaces() error = %v", err)
	}
	if len(labeled) != 1 || labeled[0].Key() != "p1/0" {
		t.Errorf("GetLabeledFaces() = %+v, want only p1/0", labeled)
	}

	bySubject, err := m.GetFacesBySubjectName(ctx, "Jan Novak")
	if err != nil {
		t.Fatalf("GetFacesBySubjectName() error = %v", err)
	}
	if len(bySubject) != 2 {
		t.Errorf("GetFacesBySubjectName() len = %d, want 2", len(bySubject))
	}

	count, err := m.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}

	injected := errors.New("boom")
	m.GetLabeledError = injected
	if _, err := m.GetLabeledFaces(ctx, 0); !errors.Is(err, injected) {
		t.Errorf("GetLabeledFaces() error = %v, want %v", err, injected)
	}
}

func TestMockCalibrationWriter(t *testing.T) {
	ctx := context.Background()
	m := NewMockCalibrationWriter()

	for _, threshold := range []float64{0.1, 0.2, 0.3} {
		c := &database.Calibration{Threshold: threshold}
		if err := m.SaveCalibration(ctx, c); err != nil {
			t.Fatalf("SaveCalibration() error = %v", err)
		}
		if c.ID == "" || c.CreatedAt.IsZero() {
			t.Errorf("SaveCalibration() did not assign ID and CreatedAt: %+v", c)
		}
	}

	got, err := m.ListCalibrations(ctx, 2)
	if err != nil {
		t.Fatalf("ListCalibrations() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListCalibrations() len = %d, want 2", len(got))
	}
	if got[0].Threshold != 0.3 || got[1].Threshold != 0.2 {
		t.Errorf("ListCalibrations() order = %v, %v, want 0.3, 0.2", got[0].Threshold, got[1].Threshold)
	}

	m.SaveError = errors.New("disk full")
	if err := m.SaveCalibration(ctx, &database.Calibration{}); err == nil {
		t.Error("SaveCalibration() expected injected error")
	}
}
