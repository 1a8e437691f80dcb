package entity

import "errors"

var (
	ErrUnknownKind    = errors.New("unknown entity kind")
	ErrMissingProject = errors.New("anchor point requires projectId")
	ErrMissingPoint   = errors.New("anchor test requires pontoId")
	ErrInvalidStatus  = errors.New("invalid anchor status")
	ErrNonFiniteCoord = errors.New("coordinate must be finite")
	ErrEmptyFile      = errors.New("file has no data")
)
