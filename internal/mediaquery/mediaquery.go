// Package mediaquery resolves whether a media-session token refers to an
// actively playing session.
package mediaquery

import "context"

// Status is the playback state reported for a media session. Unknown covers
// every failure mode (no token, query error, timeout) and callers treat it
// the same as NotPlaying.
type Status int

const (
	StatusUnknown Status = iota
	StatusPlaying
	StatusNotPlaying
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "Playing"
	case StatusNotPlaying:
		return "NotPlaying"
	default:
		return "Unknown"
	}
}

// Querier reports the playback status of a media session token.
// Implementations must return StatusUnknown on failure rather than block;
// the ctx deadline bounds the underlying call.
type Querier interface {
	PlaybackStatus(ctx context.Context, token string) (Status, error)
}

// stubQuerier is used when no media backend is available.
type stubQuerier struct{}

func (stubQuerier) PlaybackStatus(_ context.Context, _ string) (Status, error) {
	return StatusUnknown, nil
}
