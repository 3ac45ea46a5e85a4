// Package spotify adapts the Spotify Web API as a track_list catalog backend.
//
// Spotify has no cursor URLs; continuation is offset-based. The adapter
// hides that behind an opaque cursor of the form
// spotify:playlist:<id>:offset:<n>, and uses spotify:track:<id> URIs as
// track references.
package spotify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/cloudbox/internal/domain/track"
)

// pageLimit is the number of playlist items fetched per continuation page.
const pageLimit = 50

// Client is a Spotify-backed catalog client.
type Client struct {
	client *spotify.Client
	market string
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string
}

// New creates a new Spotify catalog client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopeUserLibraryRead,
		),
	)

	// Token refresh is handled by the oauth2 transport
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}
	httpClient := auth.Client(ctx, token)

	market := cfg.Market
	if market == "" {
		market = "JP"
	}

	return &Client{
		client: spotify.New(httpClient),
		market: market,
	}, nil
}

// PlaylistPage fetches the first page of a playlist, with a continuation
// cursor when more items remain.
func (c *Client) PlaylistPage(ctx context.Context, playlistURL string) (*track.Page, error) {
	playlistID := extractPlaylistID(playlistURL)
	if playlistID == "" {
		return nil, errors.New("invalid playlist URL")
	}
	return c.fetchPlaylistPage(ctx, playlistID, 0)
}

// FetchPage fetches the continuation page identified by the cursor.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*track.Page, error) {
	playlistID, offset, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	return c.fetchPlaylistPage(ctx, playlistID, offset)
}

// FetchStreamPage is not supported: Spotify has no activity-stream feed.
func (c *Client) FetchStreamPage(ctx context.Context, cursor, authToken string) (*track.ActivityPage, error) {
	return nil, errors.New("stream sessions are not supported by the spotify catalog")
}

func (c *Client) fetchPlaylistPage(ctx context.Context, playlistID string, offset int) (*track.Page, error) {
	page, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
		spotify.Limit(pageLimit),
		spotify.Offset(offset),
		spotify.Market(c.market),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get playlist items (playlist %s, offset %d)", playlistID, offset)
	}

	tracks := make([]track.Track, 0, len(page.Items))
	for _, item := range page.Items {
		// Episodes have no track payload and are skipped
		if item.Track.Track != nil && item.Track.Track.ID != "" {
			tracks = append(tracks, *convertTrack(item.Track.Track))
		}
	}

	var next string
	if offset+len(page.Items) < int(page.Total) {
		next = playlistCursor(playlistID, offset+pageLimit)
	}

	return &track.Page{Collection: tracks, NextHref: next}, nil
}

// Track resolves a spotify:track:<id> reference.
func (c *Client) Track(ctx context.Context, ref string) (*track.Track, error) {
	id := extractTrackID(ref)
	if id == "" {
		return nil, errors.Newf("invalid track reference: %s", ref)
	}

	t, err := c.client.GetTrack(ctx, spotify.ID(id), spotify.Market(c.market))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve track %s", ref)
	}
	return convertTrack(t), nil
}

// PlayableURL returns the external Spotify URL for the track. Playback is
// handed off to the Spotify app; there is no raw stream to resolve.
func (c *Client) PlayableURL(ctx context.Context, t *track.Track) (string, error) {
	if t.PermalinkURL == "" {
		return "", errors.Newf("track %s has no external URL", t.URI)
	}
	return t.PermalinkURL, nil
}

// convertTrack converts a Spotify FullTrack to the domain Track.
func convertTrack(t *spotify.FullTrack) *track.Track {
	var artist string
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}

	var artwork string
	if len(t.Album.Images) > 0 {
		artwork = t.Album.Images[0].URL
	}

	return &track.Track{
		URI:          fmt.Sprintf("spotify:track:%s", t.ID),
		Title:        t.Name,
		PermalinkURL: fmt.Sprintf("https://open.spotify.com/track/%s", t.ID),
		ArtworkURL:   artwork,
		DurationMs:   int64(t.Duration),
		Streamable:   true,
		User:         track.User{Username: artist},
	}
}

// playlistCursor builds the opaque continuation cursor for a playlist offset.
func playlistCursor(playlistID string, offset int) string {
	return fmt.Sprintf("spotify:playlist:%s:offset:%d", playlistID, offset)
}

// parseCursor parses a cursor produced by playlistCursor.
func parseCursor(cursor string) (string, int, error) {
	parts := strings.Split(cursor, ":")
	if len(parts) != 5 || parts[0] != "spotify" || parts[1] != "playlist" || parts[3] != "offset" {
		return "", 0, errors.Newf("invalid spotify cursor: %s", cursor)
	}
	offset, err := strconv.Atoi(parts[4])
	if err != nil || offset < 0 {
		return "", 0, errors.Newf("invalid spotify cursor offset: %s", cursor)
	}
	return parts[2], offset, nil
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:playlist:PLAYLIST_ID
	if strings.HasPrefix(input, "spotify:playlist:") {
		return strings.TrimPrefix(input, "spotify:playlist:")
	}

	// Handle URL format: https://open.spotify.com/playlist/PLAYLIST_ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/playlist/") {
		parts := strings.Split(input, "/playlist/")
		if len(parts) >= 2 {
			// Remove query parameters and trailing slashes
			id := strings.Split(parts[len(parts)-1], "?")[0]
			id = strings.TrimRight(id, "/")
			return id
		}
	}

	// Assume it's already a playlist ID
	return input
}

// extractTrackID extracts the track ID from a Spotify track URL or URI.
func extractTrackID(input string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:track:TRACK_ID
	if strings.HasPrefix(input, "spotify:track:") {
		return strings.TrimPrefix(input, "spotify:track:")
	}

	// Handle URL format: https://open.spotify.com/track/TRACK_ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/track/") {
		parts := strings.Split(input, "/track/")
		if len(parts) >= 2 {
			id := strings.Split(parts[len(parts)-1], "?")[0]
			id = strings.TrimRight(id, "/")
			return id
		}
	}

	return input
}
