package repository

import "errors"

// Sentinel kinds for dataset store errors.
var (
	ErrMissingPath = errors.New("dataset path not configured")
	ErrClosed      = errors.New("dataset store closed")
)
