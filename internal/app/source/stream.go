package source

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/cloudbox/internal/domain/playback"
)

// StreamProvider starts a session over the listener's activity stream.
// Stream pages mix tracks with playlists and reposts; only the track
// entries are queued, in page order.
type StreamProvider struct {
	soundcloud SoundCloudClient
}

// NewStreamProvider creates a new StreamProvider.
func NewStreamProvider(sc SoundCloudClient) *StreamProvider {
	return &StreamProvider{soundcloud: sc}
}

// Start fetches the first page of the listener's activity stream.
func (p *StreamProvider) Start(ctx context.Context, authToken string) (*StartPage, error) {
	if authToken == "" {
		return nil, errors.New("the activity stream requires a linked account token")
	}

	page, err := p.soundcloud.ActivityStream(ctx, authToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch activity stream")
	}

	return &StartPage{
		Tracks: page.Tracks(),
		Cursor: page.NextHref,
		Mode:   playback.ModeStream,
	}, nil
}

// Name returns the provider name.
func (p *StreamProvider) Name() string {
	return "stream"
}
