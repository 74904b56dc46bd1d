// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Pair building constants
const (
	// DefaultMinDetScore is the minimum face detection score for a face to be
	// used in calibration pairs
	DefaultMinDetScore = 0.5

	// DefaultMaxPositive caps the number of matching pairs built from a face collection
	DefaultMaxPositive = 5000

	// DefaultMaxNegative caps the number of non-matching pairs built from a face collection
	DefaultMaxNegative = 20000

	// DefaultHardNegatives is the number of nearest other-subject faces paired with each face
	DefaultHardNegatives = 0
)

// Report constants
const (
	// DefaultTopCandidates is the number of best candidates printed by default
	DefaultTopCandidates = 5

	// DefaultCalibrationListLimit is the number of stored runs listed by default
	DefaultCalibrationListLimit = 20
)

// Server constants
const (
	// DefaultWebPort is the default HTTP port of the serve command
	DefaultWebPort = 8080

	// DefaultWebHost is the default bind address of the serve command
	DefaultWebHost = "0.0.0.0"
)
