package database

import (
	"context"
	"fmt"
	"sync"
)

var (
	mu                  sync.RWMutex
	postgresFaceReader  func() FaceReader
	postgresCalibration func() CalibrationWriter
	photoprismReader    func() FaceReader
	postgresInitialized bool
)

// RegisterPostgresBackend registers PostgreSQL repository constructors.
// This is called by the command layer to avoid import cycles with the postgres package.
func RegisterPostgresBackend(faceReader func() FaceReader, calibrations func() CalibrationWriter) {
	mu.Lock()
	defer mu.Unlock()
	postgresFaceReader = faceReader
	postgresCalibration = calibrations
	postgresInitialized = true
}

// RegisterPhotoPrismBackend registers the PhotoPrism (MariaDB) face marker reader.
func RegisterPhotoPrismBackend(reader func() FaceReader) {
	mu.Lock()
	defer mu.Unlock()
	photoprismReader = reader
}

// IsInitialized returns whether the PostgreSQL backend has been initialized.
func IsInitialized() bool {
	mu.RLock()
	defer mu.RUnlock()
	return postgresInitialized
}

// GetFaceReader returns a FaceReader from the PostgreSQL backend
func GetFaceReader(ctx context.Context) (FaceReader, error) {
	mu.RLock()
	defer mu.RUnlock()
	if !postgresInitialized {
		return nil, fmt.Errorf("PostgreSQL backend not initialized: DATABASE_URL is required")
	}
	if postgresFaceReader == nil {
		return nil, fmt.Errorf("PostgreSQL face reader not registered")
	}
	return postgresFaceReader(), nil
}

// GetCalibrationWriter returns a CalibrationWriter from the PostgreSQL backend
func GetCalibrationWriter(ctx context.Context) (CalibrationWriter, error) {
	mu.RLock()
	defer mu.RUnlock()
	if !postgresInitialized {
		return nil, fmt.Errorf("PostgreSQL backend not initialized: DATABASE_URL is required")
	}
	if postgresCalibration == nil {
		return nil, fmt.Errorf("PostgreSQL calibration writer not registered")
	}
	return postgresCalibration(), nil
}

// GetPhotoPrismFaceReader returns the FaceReader backed by PhotoPrism face markers
func GetPhotoPrismFaceReader(ctx context.Context) (FaceReader, error) {
	mu.RLock()
	defer mu.RUnlock()
	if photoprismReader == nil {
		return nil, fmt.Errorf("PhotoPrism backend not initialized: PHOTOPRISM_DATABASE_URL is required")
	}
	return photoprismReader(), nil
}

// Reset clears all registered backends (for testing).
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	postgresFaceReader = nil
	postgresCalibration = nil
	photoprismReader = nil
	postgresInitialized = false
}
