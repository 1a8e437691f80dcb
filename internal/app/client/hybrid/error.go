package hybrid

import "errors"

var (
	ErrOffline          = errors.New("no connection")
	ErrStoreUnavailable = errors.New("local store unavailable")
)
