package corpus

import "errors"

var (
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("corpus file is empty")
)
