package mariadb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kozaktomas/face-threshold/internal/database"
	"github.com/kozaktomas/face-threshold/internal/facematch"
)

// markerScoreScale converts PhotoPrism's integer marker score to a 0..1 detection score.
const markerScoreScale = 100.0

// MarkerRepository reads labeled faces from PhotoPrism face markers.
// It implements database.FaceReader.
type MarkerRepository struct {
	pool *Pool
}

// NewMarkerRepository creates a face reader over PhotoPrism markers.
func NewMarkerRepository(pool *Pool) *MarkerRepository {
	return &MarkerRepository{pool: pool}
}

// markerRow is a raw row of the labeled marker query.
type markerRow struct {
	MarkerUID   string
	PhotoUID    string
	SubjectUID  string
	SubjectName string
	Score       int
	Embeddings  []byte
}

// GetLabeledFaces returns faces from valid markers assigned to a subject.
func (r *MarkerRepository) GetLabeledFaces(ctx context.Context, minDetScore float64) ([]database.StoredFace, error) {
	rows, err := r.labeledMarkers(ctx)
	if err != nil {
		return nil, err
	}
	faces, err := markersToFaces(rows)
	if err != nil {
		return nil, err
	}

	filtered := faces[:0]
	for _, f := range faces {
		if f.DetScore >= minDetScore {
			filtered = append(filtered, f)
		}
	}
	return filtered, nil
}

// GetFacesBySubjectName retrieves all faces assigned to the named subject.
// MariaDB has no unaccent, so names are compared after normalization in Go.
// Faces are numbered over all labeled markers before filtering, so a face
// keeps the same key whichever subject it was looked up by.
func (r *MarkerRepository) GetFacesBySubjectName(ctx context.Context, subjectName string) ([]database.StoredFace, error) {
	rows, err := r.labeledMarkers(ctx)
	if err != nil {
		return nil, err
	}
	faces, err := markersToFaces(rows)
	if err != nil {
		return nil, err
	}
	return facesOfSubject(faces, subjectName), nil
}

// facesOfSubject keeps the faces whose subject matches name, in order.
func facesOfSubject(faces []database.StoredFace, name string) []database.StoredFace {
	var matched []database.StoredFace
	for _, f := range faces {
		if facematch.SameSubject(f.SubjectName, name) {
			matched = append(matched, f)
		}
	}
	return matched
}

// Count returns the number of valid face markers.
func (r *MarkerRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM markers WHERE marker_type = 'face' AND marker_invalid = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count markers: %w", err)
	}
	return count, nil
}

func (r *MarkerRepository) labeledMarkers(ctx context.Context) ([]markerRow, error) {
	query := `
		SELECT m.marker_uid, COALESCE(f.photo_uid, ''), m.subj_uid, s.subj_name, m.score, m.embeddings_json
		FROM markers m
		JOIN subjects s ON s.subj_uid = m.subj_uid
		LEFT JOIN files f ON f.file_uid = m.file_uid
		WHERE m.marker_type = 'face'
		  AND m.marker_invalid = 0
		  AND m.subj_uid <> ''
		  AND m.embeddings_json IS NOT NULL
		ORDER BY f.photo_uid, m.marker_uid
	`

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query markers: %w", err)
	}
	defer rows.Close()

	var out []markerRow
	for rows.Next() {
		var row markerRow
		if err := rows.Scan(&row.MarkerUID, &row.PhotoUID, &row.SubjectUID, &row.SubjectName, &row.Score, &row.Embeddings); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// parseMarkerEmbedding decodes PhotoPrism's embeddings_json field.
// The format is [[e1, e2, ..., e512]] (JSON list-of-lists); the first embedding is used.
func parseMarkerEmbedding(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var wrapped [][]float32
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("unmarshal embedding: %w", err)
	}
	if len(wrapped) == 0 {
		return nil, nil
	}
	return wrapped[0], nil
}

// markersToFaces converts marker rows to stored faces. Rows must be ordered
// by photo; face indexes count markers within each photo. Markers without an
// embedding are skipped.
func markersToFaces(rows []markerRow) ([]database.StoredFace, error) {
	faces := make([]database.StoredFace, 0, len(rows))
	perPhoto := make(map[string]int)
	for i, row := range rows {
		embedding, err := parseMarkerEmbedding(row.Embeddings)
		if err != nil {
			return nil, fmt.Errorf("marker %s: %w", row.MarkerUID, err)
		}
		if len(embedding) == 0 {
			continue
		}

		photoUID := row.PhotoUID
		if photoUID == "" {
			photoUID = row.MarkerUID
		}
		idx := perPhoto[photoUID]
		perPhoto[photoUID] = idx + 1

		faces = append(faces, database.StoredFace{
			ID:          int64(i + 1),
			PhotoUID:    photoUID,
			FaceIndex:   idx,
			Embedding:   embedding,
			DetScore:    float64(row.Score) / markerScoreScale,
			Model:       "photoprism",
			SubjectUID:  row.SubjectUID,
			SubjectName: row.SubjectName,
		})
	}
	return faces, nil
}
