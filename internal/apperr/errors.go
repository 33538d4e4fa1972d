// Package apperr holds the sentinel errors shared across service and transport layers.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)
