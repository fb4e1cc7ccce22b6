// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist or is hidden from the caller.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates an authenticated caller that does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the caller exceeded a request or login budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (username, email, slug, version label).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates a request that failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidFileType indicates an upload whose extension is not allowed.
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrFileTooLarge indicates an upload that exceeded the size ceiling.
	ErrFileTooLarge = errors.New("file too large")

	// ErrStorage indicates an unexpected I/O or persistence failure during upload.
	ErrStorage = errors.New("storage failure")
)
