package chunking

import "errors"

var (
	// ErrInvalidWindow is returned when the window size is below one word.
	ErrInvalidWindow = errors.New("window size must be at least 1")

	// ErrInvalidOverlap is returned when the overlap ratio is outside [0, 1).
	// A ratio of 1 or more would never advance the window.
	ErrInvalidOverlap = errors.New("overlap ratio must be in [0, 1)")
)
