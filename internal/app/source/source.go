// Package source provides session start strategies.
//
// A source produces the first page of a new playback session: the initial
// tracks, the continuation cursor, and the playback mode that governs how
// the queue is extended later.
package source

import (
	"context"

	"github.com/osa030/cloudbox/internal/domain/playback"
	"github.com/osa030/cloudbox/internal/domain/track"
)

// StartPage is the opening page of a new session.
type StartPage struct {
	Tracks []track.Track
	Cursor string
	Mode   playback.Mode
}

// Provider is the interface for session sources.
type Provider interface {
	// Start fetches the opening page. authToken is the listener's catalog
	// token; sources that read user-bound feeds require it.
	Start(ctx context.Context, authToken string) (*StartPage, error)

	// Name returns the provider name (used in config and request routing).
	Name() string
}

// SoundCloudClient defines the catalog operations needed by the
// SoundCloud-backed sources.
type SoundCloudClient interface {
	Favorites(ctx context.Context, authToken string) (*track.Page, error)
	ActivityStream(ctx context.Context, authToken string) (*track.ActivityPage, error)
}

// SpotifyClient defines the catalog operations needed by the playlist source.
type SpotifyClient interface {
	PlaylistPage(ctx context.Context, playlistURL string) (*track.Page, error)
}
