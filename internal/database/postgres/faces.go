package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-threshold/internal/database"
	"github.com/kozaktomas/face-threshold/internal/facematch"
	"github.com/pgvector/pgvector-go"
)

// FaceRepository provides PostgreSQL-backed access to face embeddings.
type FaceRepository struct {
	pool *Pool
}

// NewFaceRepository creates a new PostgreSQL face repository.
func NewFaceRepository(pool *Pool) *FaceRepository {
	return &FaceRepository{pool: pool}
}

const faceColumns = `id, photo_uid, face_index, embedding, det_score, model, created_at, subject_uid, subject_name`

// GetLabeledFaces returns faces with an assigned subject and a detection score of at least minDetScore.
func (r *FaceRepository) GetLabeledFaces(ctx context.Context, minDetScore float64) ([]database.StoredFace, error) {
	query := `
		SELECT ` + faceColumns + `
		FROM faces
		WHERE subject_name IS NOT NULL AND subject_name <> '' AND det_score >= $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, minDetScore)
	if err != nil {
		return nil, fmt.Errorf("query labeled faces: %w", err)
	}
	defer rows.Close()

	return scanFaces(rows)
}

// GetFacesBySubjectName retrieves all faces for a specific subject/person by name.
// Names are normalized before comparison (lowercase, no diacritics, dashes to spaces).
// to handle format differences (e.g., "jan-novak" matches "Jan Novák").
func (r *FaceRepository) GetFacesBySubjectName(ctx context.Context, subjectName string) ([]database.StoredFace, error) {
	// Normalize input in Go (matches facematch.NormalizePersonName behavior).
	normalizedInput := facematch.NormalizePersonName(subjectName)

	// Use PostgreSQL LOWER + unaccent + REPLACE for comparison.
	// This matches the Go normalization: lowercase, remove diacritics, replace dashes with spaces.
	query := `
		SELECT ` + faceColumns + `
		FROM faces
		WHERE LOWER(REPLACE(unaccent(subject_name), '-', ' ')) = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, normalizedInput)
	if err != nil {
		return nil, fmt.Errorf("query faces by subject: %w", err)
	}
	defer rows.Close()

	return scanFaces(rows)
}

// Count returns the total number of faces stored.
func (r *FaceRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM faces").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count faces: %w", err)
	}
	return count, nil
}

// SaveFaces stores faces for a photo, replacing existing faces for that photo.
func (r *FaceRepository) SaveFaces(ctx context.Context, photoUID string, faces []database.StoredFace) error {
	return r.pool.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM faces WHERE photo_uid = $1", photoUID); err != nil {
			return fmt.Errorf("delete faces: %w", err)
		}
		for _, face := range faces {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO faces (photo_uid, face_index, embedding, det_score, model, subject_uid, subject_name, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			`, photoUID, face.FaceIndex, pgvector.NewVector(face.Embedding), face.DetScore,
				nullString(face.Model), nullString(face.SubjectUID), nullString(face.SubjectName))
			if err != nil {
				return fmt.Errorf("insert face %d: %w", face.FaceIndex, err)
			}
		}
		return nil
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanFaceRow(scanner interface{ Scan(...any) error }) (database.StoredFace, error) {
	var face database.StoredFace
	var vec pgvector.Vector
	var model, subjectUID, subjectName sql.NullString

	err := scanner.Scan(
		&face.ID,
		&face.PhotoUID,
		&face.FaceIndex,
		&vec,
		&face.DetScore,
		&model,
		&face.CreatedAt,
		&subjectUID,
		&subjectName,
	)
	if err != nil {
		return face, fmt.Errorf("scan face: %w", err)
	}

	face.Embedding = vec.Slice()
	face.Model = model.String
	face.SubjectUID = subjectUID.String
	face.SubjectName = subjectName.String
	return face, nil
}

func scanFaces(rows *sql.Rows) ([]database.StoredFace, error) {
	var faces []database.StoredFace
	for rows.Next() {
		face, err := scanFaceRow(rows)
		if err != nil {
			return nil, err
		}
		faces = append(faces, face)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faces: %w", err)
	}
	return faces, nil
}
