package reconcile

import "errors"

var (
	// ErrNotFound возвращается удаленным хранилищем, когда ни одна запись не подходит
	ErrNotFound = errors.New("remote record not found")

	ErrUnknownOperation  = errors.New("unknown sync operation")
	ErrStatusPropagation = errors.New("failed to propagate test result to anchor point")
)
