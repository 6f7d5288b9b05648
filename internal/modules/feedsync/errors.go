package feedsync

import "errors"

var (
	// ErrFeedFetch wraps upstream calendar failures (unreachable, non-OK,
	// unparseable). One room's fetch failure never aborts a batch sync.
	ErrFeedFetch = errors.New("external feed fetch failed")
	ErrNoFeed    = errors.New("room has no external feed subscription")
)
