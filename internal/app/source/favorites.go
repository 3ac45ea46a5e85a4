package source

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/cloudbox/internal/domain/playback"
)

// FavoritesProvider starts a session over the listener's liked tracks.
type FavoritesProvider struct {
	soundcloud SoundCloudClient
}

// NewFavoritesProvider creates a new FavoritesProvider.
func NewFavoritesProvider(sc SoundCloudClient) *FavoritesProvider {
	return &FavoritesProvider{soundcloud: sc}
}

// Start fetches the first page of the listener's favorites.
func (p *FavoritesProvider) Start(ctx context.Context, authToken string) (*StartPage, error) {
	if authToken == "" {
		return nil, errors.New("favorites require a linked account token")
	}

	page, err := p.soundcloud.Favorites(ctx, authToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch favorites")
	}

	return &StartPage{
		Tracks: page.Collection,
		Cursor: page.NextHref,
		Mode:   playback.ModeTrackList,
	}, nil
}

// Name returns the provider name.
func (p *FavoritesProvider) Name() string {
	return "favorites"
}
