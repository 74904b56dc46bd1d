package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kozaktomas/face-threshold/internal/config"
	"github.com/kozaktomas/face-threshold/internal/database"
	"github.com/kozaktomas/face-threshold/internal/database/mariadb"
	"github.com/kozaktomas/face-threshold/internal/database/postgres"
	"github.com/kozaktomas/face-threshold/internal/dataset"
	"github.com/spf13/cobra"
)

// Face sources accepted by --source.
const (
	sourcePostgres   = "postgres"
	sourcePhotoPrism = "photoprism"
)

// initPostgres connects to PostgreSQL, runs migrations and registers the
// repositories as the database backend.
func initPostgres(ctx context.Context, cfg *config.Config) error {
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if err := postgres.Initialize(ctx, &cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	pool := postgres.GetGlobalPool()
	faceRepo := postgres.NewFaceRepository(pool)
	calibrationRepo := postgres.NewCalibrationRepository(pool)
	database.RegisterPostgresBackend(
		func() database.FaceReader { return faceRepo },
		func() database.CalibrationWriter { return calibrationRepo },
	)
	slog.Debug("using PostgreSQL backend")
	return nil
}

// closePostgres closes the global PostgreSQL pool when one was opened.
func closePostgres() {
	if pool := postgres.GetGlobalPool(); pool != nil {
		_ = pool.Close()
		postgres.SetGlobalPool(nil)
	}
}

// initPhotoPrism connects to PhotoPrism's MariaDB and registers the marker reader.
// The returned function closes the connection.
func initPhotoPrism(ctx context.Context, cfg *config.Config) (func(), error) {
	if cfg.PhotoPrism.DatabaseURL == "" {
		return nil, errors.New("PHOTOPRISM_DATABASE_URL environment variable is required")
	}
	pool, err := mariadb.NewPool(ctx, cfg.PhotoPrism.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MariaDB: %w", err)
	}

	markers := mariadb.NewMarkerRepository(pool)
	database.RegisterPhotoPrismBackend(func() database.FaceReader { return markers })
	slog.Debug("using PhotoPrism MariaDB backend")
	return func() { _ = pool.Close() }, nil
}

// openFaceReader connects the named source and returns its face reader.
func openFaceReader(ctx context.Context, cfg *config.Config, source string) (database.FaceReader, func(), error) {
	switch strings.ToLower(source) {
	case sourcePostgres:
		if err := initPostgres(ctx, cfg); err != nil {
			return nil, nil, err
		}
		reader, err := database.GetFaceReader(ctx)
		if err != nil {
			closePostgres()
			return nil, nil, err
		}
		return reader, closePostgres, nil
	case sourcePhotoPrism:
		closeFn, err := initPhotoPrism(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		reader, err := database.GetPhotoPrismFaceReader(ctx)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		return reader, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q, choose from [%s, %s]", source, sourcePostgres, sourcePhotoPrism)
	}
}

// loadFaces reads labeled faces from reader, restricted to subjects when any are given.
func loadFaces(ctx context.Context, reader database.FaceReader, minDetScore float64, subjects []string) ([]database.StoredFace, error) {
	if len(subjects) == 0 {
		faces, err := reader.GetLabeledFaces(ctx, minDetScore)
		if err != nil {
			return nil, fmt.Errorf("loading labeled faces: %w", err)
		}
		return faces, nil
	}

	var faces []database.StoredFace
	seen := make(map[string]bool)
	for _, subject := range subjects {
		found, err := reader.GetFacesBySubjectName(ctx, subject)
		if err != nil {
			return nil, fmt.Errorf("loading faces of %q: %w", subject, err)
		}
		for _, f := range found {
			if f.DetScore < minDetScore || seen[f.Key()] {
				continue
			}
			seen[f.Key()] = true
			faces = append(faces, f)
		}
	}
	return faces, nil
}

// addPairSourceFlags registers the flags shared by commands that build pairs from a database.
func addPairSourceFlags(cmd *cobra.Command, maxPositive, maxNegative, hardNegatives int, minDetScore float64) {
	cmd.Flags().String("source", "", "Face source: postgres or photoprism")
	cmd.Flags().StringSlice("subject", nil, "Only use faces of these subjects (repeatable)")
	cmd.Flags().Float64("min-det-score", minDetScore, "Minimum face detection score")
	cmd.Flags().Int("max-positive", maxPositive, "Maximum number of matching pairs (0 = no limit)")
	cmd.Flags().Int("max-negative", maxNegative, "Maximum number of non-matching pairs (0 = no limit)")
	cmd.Flags().Int("hard-negatives", hardNegatives, "Nearest other-subject faces paired with each face")
}

// pairsFromSource builds labeled pairs from the database source named by --source.
func pairsFromSource(ctx context.Context, cmd *cobra.Command, cfg *config.Config) ([]dataset.Pair, error) {
	source := mustGetString(cmd, "source")
	reader, closeFn, err := openFaceReader(ctx, cfg, source)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	faces, err := loadFaces(ctx, reader, mustGetFloat64(cmd, "min-det-score"), mustGetStringSlice(cmd, "subject"))
	if err != nil {
		return nil, err
	}
	slog.Info("loaded labeled faces", "source", source, "faces", len(faces))

	pairs := dataset.FromFaces(database.DatasetFaces(faces), dataset.PairOptions{
		MaxPositive:   mustGetInt(cmd, "max-positive"),
		MaxNegative:   mustGetInt(cmd, "max-negative"),
		HardNegatives: mustGetInt(cmd, "hard-negatives"),
	})
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no pairs could be built from %d faces of source %s", len(faces), source)
	}
	return pairs, nil
}

// outputJSON writes data as indented JSON to stdout.
func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
