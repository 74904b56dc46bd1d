// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-threshold/internal/database"
	"github.com/kozaktomas/face-threshold/internal/facematch"
)

// MockFaceReader is a mock implementation of database.FaceReader
type MockFaceReader struct {
	mu     sync.RWMutex
	faces  []database.StoredFace
	nextID int64

	// Error injection
	GetLabeledError        error
	GetFacesBySubjectError error
	CountError             error
}

// NewMockFaceReader creates a new mock face reader
func NewMockFaceReader() *MockFaceReader {
	return &MockFaceReader{}
}

// AddFaces adds faces for a photo, assigning IDs and face indexes in order.
func (m *MockFaceReader) AddFaces(photoUID string, faces []database.StoredFace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range faces {
		m.nextID++
		f.ID = m.nextID
		f.PhotoUID = photoUID
		f.FaceIndex = i
		m.faces = append(m.faces, f)
	}
}

// GetLabeledFaces returns faces with a subject and a detection score of at least minDetScore.
func (m *MockFaceReader) GetLabeledFaces(ctx context.Context, minDetScore float64) ([]database.StoredFace, error) {
	if m.GetLabeledError != nil {
		return nil, m.GetLabeledError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []database.StoredFace
	for _, f := range m.faces {
		if f.SubjectName != "" && f.DetScore >= minDetScore {
			results = append(results, f)
		}
	}
	return results, nil
}

// GetFacesBySubjectName retrieves all faces for a subject, comparing normalized names.
func (m *MockFaceReader) GetFacesBySubjectName(ctx context.Context, subjectName string) ([]database.StoredFace, error) {
	if m.GetFacesBySubjectError != nil {
		return nil, m.GetFacesBySubjectError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []database.StoredFace
	for _, f := range m.faces {
		if facematch.SameSubject(f.SubjectName, subjectName) {
			results = append(results, f)
		}
	}
	return results, nil
}

// Count returns the total number of faces
func (m *MockFaceReader) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.faces), nil
}

// MockCalibrationWriter is a mock implementation of database.CalibrationWriter
type MockCalibrationWriter struct {
	mu           sync.RWMutex
	calibrations []database.Calibration

	// Error injection
	SaveError error
	ListError error
}

// NewMockCalibrationWriter creates a new mock calibration writer
func NewMockCalibrationWriter() *MockCalibrationWriter {
	return &MockCalibrationWriter{}
}

// SaveCalibration stores a copy of the run, assigning ID and CreatedAt when empty.
func (m *MockCalibrationWriter) SaveCalibration(ctx context.Context, c *database.Calibration) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calibrations = append(m.calibrations, *c)
	return nil
}

// ListCalibrations returns stored runs, newest first.
func (m *MockCalibrationWriter) ListCalibrations(ctx context.Context, limit int) ([]database.Calibration, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Clone(m.calibrations)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Verify interface compliance at compile time
var (
	_ database.FaceReader        = (*MockFaceReader)(nil)
	_ database.CalibrationWriter = (*MockCalibrationWriter)(nil)
)
