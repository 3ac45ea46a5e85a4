package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/cloudbox/internal/domain/track"
)

type recordingBackend struct {
	name       string
	lastCursor string
	lastRef    string
}

func (b *recordingBackend) FetchPage(ctx context.Context, cursor string) (*track.Page, error) {
	b.lastCursor = cursor
	return &track.Page{}, nil
}

func (b *recordingBackend) FetchStreamPage(ctx context.Context, cursor, authToken string) (*track.ActivityPage, error) {
	b.lastCursor = cursor
	return &track.ActivityPage{}, nil
}

func (b *recordingBackend) Track(ctx context.Context, ref string) (*track.Track, error) {
	b.lastRef = ref
	return &track.Track{URI: ref}, nil
}

func (b *recordingBackend) PlayableURL(ctx context.Context, t *track.Track) (string, error) {
	return "url-from-" + b.name, nil
}

func TestMux_DispatchByNamespace(t *testing.T) {
	primary := &recordingBackend{name: "soundcloud"}
	sp := &recordingBackend{name: "spotify"}
	m := NewMux(primary, sp)
	ctx := context.Background()

	_, err := m.FetchPage(ctx, "https://api.soundcloud.com/me/favorites?cursor=abc")
	require.NoError(t, err)
	assert.NotEmpty(t, primary.lastCursor)
	assert.Empty(t, sp.lastCursor)

	_, err = m.FetchPage(ctx, "spotify:playlist:abc:offset:50")
	require.NoError(t, err)
	assert.Equal(t, "spotify:playlist:abc:offset:50", sp.lastCursor)

	_, err = m.Track(ctx, "spotify:track:xyz")
	require.NoError(t, err)
	assert.Equal(t, "spotify:track:xyz", sp.lastRef)

	url, err := m.PlayableURL(ctx, &track.Track{URI: "https://api.soundcloud.com/tracks/1"})
	require.NoError(t, err)
	assert.Equal(t, "url-from-soundcloud", url)

	url, err = m.PlayableURL(ctx, &track.Track{URI: "spotify:track:xyz"})
	require.NoError(t, err)
	assert.Equal(t, "url-from-spotify", url)
}

func TestMux_StreamAlwaysPrimary(t *testing.T) {
	primary := &recordingBackend{name: "soundcloud"}
	m := NewMux(primary, &recordingBackend{name: "spotify"})

	_, err := m.FetchStreamPage(context.Background(), "https://api.soundcloud.com/activities?cursor=x", "token")
	require.NoError(t, err)
	assert.Equal(t, "https://api.soundcloud.com/activities?cursor=x", primary.lastCursor)
}

func TestMux_SpotifyNotConfigured(t *testing.T) {
	m := NewMux(&recordingBackend{name: "soundcloud"}, nil)
	ctx := context.Background()

	_, err := m.FetchPage(ctx, "spotify:playlist:abc:offset:0")
	assert.Error(t, err)

	_, err = m.Track(ctx, "spotify:track:xyz")
	assert.Error(t, err)

	// Non-spotify references still work
	_, err = m.Track(ctx, "https://api.soundcloud.com/tracks/1")
	assert.NoError(t, err)
}
