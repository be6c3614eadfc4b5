package errors

import (
	"errors"
)

// Common error types
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrSealed       = errors.New("route table is sealed")
)
