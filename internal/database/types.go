package database

import (
	"fmt"
	"time"

	"github.com/kozaktomas/face-threshold/internal/dataset"
)

// StoredFace represents a face embedding stored in the database
type StoredFace struct {
	ID        int64
	PhotoUID  string
	FaceIndex int
	Embedding []float32
	DetScore  float64
	Model     string
	CreatedAt time.Time

	SubjectUID  string // Subject UID from the matched marker (empty if unassigned)
	SubjectName string // Person name from the matched marker (empty if unassigned)
}

// Key returns a stable identifier for the face within its source.
func (f *StoredFace) Key() string {
	if f.PhotoUID == "" {
		return fmt.Sprintf("face-%d", f.ID)
	}
	return fmt.Sprintf("%s/%d", f.PhotoUID, f.FaceIndex)
}

// DatasetFace converts the stored face to a pair member.
func (f *StoredFace) DatasetFace() dataset.Face {
	return dataset.Face{
		ID:        f.Key(),
		PhotoUID:  f.PhotoUID,
		Subject:   f.SubjectName,
		Embedding: f.Embedding,
	}
}

// DatasetFaces converts stored faces to pair members, preserving order.
func DatasetFaces(faces []StoredFace) []dataset.Face {
	out := make([]dataset.Face, len(faces))
	for i := range faces {
		out[i] = faces[i].DatasetFace()
	}
	return out
}

// Calibration is a persisted threshold calibration run.
type Calibration struct {
	ID         string    `json:"id"`     // UUID assigned on save when empty
	Source     string    `json:"source"` // where the pairs came from (file path, postgres, photoprism, api)
	Measure    string    `json:"measure"`
	Metric     string    `json:"metric"`
	RangeStart float64   `json:"range_start"`
	RangeEnd   float64   `json:"range_end"`
	RangeStep  float64   `json:"range_step"`
	Threshold  float64   `json:"threshold"`
	Score      float64   `json:"score"`
	PairCount  int       `json:"pair_count"`
	MatchCount int       `json:"match_count"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
