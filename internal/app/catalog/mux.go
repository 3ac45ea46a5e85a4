// Package catalog routes catalog calls to the backend owning a reference.
package catalog

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/cloudbox/internal/domain/track"
)

// Backend is a remote catalog: page fetching for both continuation
// protocols, single-track resolution, and playable URL derivation.
type Backend interface {
	FetchPage(ctx context.Context, cursor string) (*track.Page, error)
	FetchStreamPage(ctx context.Context, cursor, authToken string) (*track.ActivityPage, error)
	Track(ctx context.Context, ref string) (*track.Track, error)
	PlayableURL(ctx context.Context, t *track.Track) (string, error)
}

// Mux dispatches on the reference namespace: spotify:* cursors and track
// URIs go to the Spotify backend, everything else (HTTP URLs) to the
// primary SoundCloud backend. The engine sees a single Catalog.
type Mux struct {
	primary Backend
	spotify Backend // may be nil when no spotify backend is configured
}

// NewMux creates a catalog mux. spotify may be nil.
func NewMux(primary, spotify Backend) *Mux {
	return &Mux{primary: primary, spotify: spotify}
}

func (m *Mux) backendFor(ref string) (Backend, error) {
	if strings.HasPrefix(ref, "spotify:") {
		if m.spotify == nil {
			return nil, errors.Newf("spotify catalog is not configured (reference %s)", ref)
		}
		return m.spotify, nil
	}
	return m.primary, nil
}

// FetchPage fetches a track-list continuation page from the owning backend.
func (m *Mux) FetchPage(ctx context.Context, cursor string) (*track.Page, error) {
	b, err := m.backendFor(cursor)
	if err != nil {
		return nil, err
	}
	return b.FetchPage(ctx, cursor)
}

// FetchStreamPage fetches an activity-stream continuation page. Stream
// sessions only exist on the primary backend.
func (m *Mux) FetchStreamPage(ctx context.Context, cursor, authToken string) (*track.ActivityPage, error) {
	return m.primary.FetchStreamPage(ctx, cursor, authToken)
}

// Track resolves a track reference via the owning backend.
func (m *Mux) Track(ctx context.Context, ref string) (*track.Track, error) {
	b, err := m.backendFor(ref)
	if err != nil {
		return nil, err
	}
	return b.Track(ctx, ref)
}

// PlayableURL derives the playable URL for a resolved track.
func (m *Mux) PlayableURL(ctx context.Context, t *track.Track) (string, error) {
	b, err := m.backendFor(t.URI)
	if err != nil {
		return "", err
	}
	return b.PlayableURL(ctx, t)
}
