package source

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/cloudbox/internal/domain/playback"
)

// PlaylistProviderConfig holds the playlist source settings.
type PlaylistProviderConfig struct {
	PlaylistURL string `yaml:"playlist_url" mapstructure:"playlist_url" validate:"required"`
}

// PlaylistProvider starts a session over a configured Spotify playlist.
type PlaylistProvider struct {
	spotify SpotifyClient
	config  *PlaylistProviderConfig
}

// NewPlaylistProvider creates a new PlaylistProvider from its settings map.
func NewPlaylistProvider(sp SpotifyClient, settings map[string]any) (*PlaylistProvider, error) {
	var config PlaylistProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &PlaylistProvider{spotify: sp, config: &config}, nil
}

// Start fetches the first page of the configured playlist. The token is
// unused; playlist sessions are not user-bound.
func (p *PlaylistProvider) Start(ctx context.Context, authToken string) (*StartPage, error) {
	page, err := p.spotify.PlaylistPage(ctx, p.config.PlaylistURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch playlist page")
	}

	return &StartPage{
		Tracks: page.Collection,
		Cursor: page.NextHref,
		Mode:   playback.ModeTrackList,
	}, nil
}

// Name returns the provider name.
func (p *PlaylistProvider) Name() string {
	return "playlist"
}
