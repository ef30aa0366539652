package errors

import "errors"

var (
	ErrNotFound = errors.New("pass not found")

	ErrEmptyKey = errors.New("pass key cannot be empty")

	ErrInvalidWindow = errors.New("invalid pass validity window")
)
