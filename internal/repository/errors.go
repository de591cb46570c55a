package repository

import "github.com/pkg/errors"

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	// ErrConflict means a conditional write matched no row because the row changed state.
	ErrConflict = errors.New("conflict")
)
