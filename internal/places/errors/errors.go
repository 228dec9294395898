package errors

import "errors"

var (
	ErrNotFound  = errors.New("place not found")
	ErrInvalidID = errors.New("invalid place id")
)
