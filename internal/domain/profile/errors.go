package profile

import "errors"

var (
	// ErrProfileNotFound indicates the profile doesn't exist.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileExists indicates the caller already has a profile.
	ErrProfileExists = errors.New("profile already exists")
	// ErrForbidden indicates the caller may not modify the profile.
	ErrForbidden = errors.New("profile belongs to another user")
	// ErrInvalidInput indicates invalid profile input.
	ErrInvalidInput = errors.New("invalid profile input")
)
