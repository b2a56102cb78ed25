package escrow

import "errors"

var (
	// ErrStatsNotFound indicates no sales have been recorded for the project.
	ErrStatsNotFound = errors.New("project stats not found")
	// ErrInvalidInput indicates invalid sale input.
	ErrInvalidInput = errors.New("invalid escrow input")
)
