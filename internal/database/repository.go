package database

import (
	"context"
)

// FaceReader provides read-only access to labeled face embeddings
type FaceReader interface {
	// GetLabeledFaces returns every face with an assigned subject whose
	// detection score is at least minDetScore, ordered by ID.
	GetLabeledFaces(ctx context.Context, minDetScore float64) ([]StoredFace, error)
	// GetFacesBySubjectName retrieves all faces for a specific subject/person by name.
	// Names are normalized before comparison (lowercase, no diacritics, dashes to spaces)
	// to handle format differences between slugs and display names (e.g., "jan-novak" matches "Jan Novák").
	GetFacesBySubjectName(ctx context.Context, subjectName string) ([]StoredFace, error)
	// Count returns the total number of faces stored
	Count(ctx context.Context) (int, error)
}

// CalibrationWriter persists calibration runs
type CalibrationWriter interface {
	// SaveCalibration stores a run, assigning ID and CreatedAt when empty
	SaveCalibration(ctx context.Context, c *Calibration) error
	// ListCalibrations returns the most recent runs first
	ListCalibrations(ctx context.Context, limit int) ([]Calibration, error)
}
