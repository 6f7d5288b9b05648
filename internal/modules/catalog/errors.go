package catalog

import "errors"

var (
	// ErrRoomNotResolved means neither the catalog nor the alias table knows
	// the raw room token. Callers must surface it, never fall back to a
	// guessed room.
	ErrRoomNotResolved = errors.New("room not resolved")
	ErrRoomNotFound    = errors.New("room not found")
)
