package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates an insert violated a unique constraint.
	ErrDuplicate = errors.New("record already exists")
)
