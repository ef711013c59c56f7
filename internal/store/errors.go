package store

import "errors"

var (
	ErrNotFound   = errors.New("record not found")
	ErrConflict   = errors.New("record already exists")
	ErrOutOfOrder = errors.New("daily load date out of order")
)
