package binder

import "errors"

// Common binding errors
var (
	ErrInvalidQuery  = errors.New("invalid query parameter")
	ErrInvalidPath   = errors.New("invalid path parameter")
	ErrInvalidTarget = errors.New("binding target must be a non-nil pointer to struct")
)
