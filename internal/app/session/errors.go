package session

import "github.com/cockroachdb/errors"

var (
	// ErrNoPlaybackState is returned when no playback session exists for the
	// user. Recoverable at the dispatcher layer by prompting for a new
	// session; the engine never retries.
	ErrNoPlaybackState = errors.New("user has no playback state")

	// ErrTrackNotInQueue is returned when a position or offset update names
	// a track that is absent from the stored queue. It signals
	// desynchronization between the playback surface and the engine and is
	// surfaced, never silently ignored.
	ErrTrackNotInQueue = errors.New("track not found in playback queue")

	// ErrMissingAuthToken is returned when a stream-mode continuation is
	// attempted without an auth token. This is a caller contract violation,
	// not a user-facing condition.
	ErrMissingAuthToken = errors.New("auth token is required to continue a stream session")
)
