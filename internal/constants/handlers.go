package constants

// Handler constants
const (
	// DefaultHandlerCalibrationLimit is the number of runs returned by the calibrations endpoint
	DefaultHandlerCalibrationLimit = 20

	// MaxHandlerCalibrationLimit bounds the limit query parameter of the calibrations endpoint
	MaxHandlerCalibrationLimit = 500
)
