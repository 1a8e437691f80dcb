package queue

import "errors"

var (
	ErrAlreadySyncing = errors.New("already syncing")
	ErrItemNotFound   = errors.New("queue item not found")
)
