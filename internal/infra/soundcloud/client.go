// Package soundcloud provides a client for the SoundCloud API.
package soundcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cloudbox/internal/domain/track"
)

const defaultBaseURL = "https://api.soundcloud.com"

// Client is a SoundCloud API client. Calls are synchronous and unretried;
// failures are surfaced to the caller as-is.
type Client struct {
	clientID   string
	baseURL    string
	httpClient *http.Client

	// noRedirect is used to resolve stream URLs: the playable URL is the
	// redirect target, so redirects must not be followed.
	noRedirect *http.Client
}

// Config represents SoundCloud client configuration.
type Config struct {
	ClientID string
	BaseURL  string // Override for tests; defaults to the public API
}

// apiError represents an error response body from the API.
type apiError struct {
	Errors []struct {
		ErrorMessage string `json:"error_message"`
	} `json:"errors"`
}

// New creates a new SoundCloud client.
func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("soundcloud client ID is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		clientID:   cfg.ClientID,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		noRedirect: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// Favorites retrieves the first page of the user's liked tracks.
func (c *Client) Favorites(ctx context.Context, authToken string) (*track.Page, error) {
	if authToken == "" {
		return nil, errors.New("auth token is required")
	}

	params := url.Values{}
	params.Set("linked_partitioning", "true")
	params.Set("oauth_token", authToken)

	var page track.Page
	if err := c.getJSON(ctx, c.baseURL+"/me/favorites?"+params.Encode(), &page); err != nil {
		return nil, errors.Wrap(err, "failed to fetch favorites")
	}
	return &page, nil
}

// SearchTracks retrieves the first page of tracks matching the query.
func (c *Client) SearchTracks(ctx context.Context, query string) (*track.Page, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("linked_partitioning", "true")
	params.Set("client_id", c.clientID)

	var page track.Page
	if err := c.getJSON(ctx, c.baseURL+"/tracks?"+params.Encode(), &page); err != nil {
		return nil, errors.Wrap(err, "failed to search tracks")
	}
	return &page, nil
}

// FetchPage fetches a track-list continuation page. The cursor is the
// next_href of a previous page and already carries its query parameters.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*track.Page, error) {
	u, err := withParam(cursor, "client_id", c.clientID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid continuation cursor")
	}

	var page track.Page
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, errors.Wrap(err, "failed to fetch continuation page")
	}
	return &page, nil
}

// ActivityStream retrieves the first page of the user's activity stream.
func (c *Client) ActivityStream(ctx context.Context, authToken string) (*track.ActivityPage, error) {
	if authToken == "" {
		return nil, errors.New("auth token is required")
	}

	params := url.Values{}
	params.Set("oauth_token", authToken)

	var page track.ActivityPage
	if err := c.getJSON(ctx, c.baseURL+"/me/activities/tracks/affiliated?"+params.Encode(), &page); err != nil {
		return nil, errors.Wrap(err, "failed to fetch activity stream")
	}
	c.logDroppedEntries(&page)
	return &page, nil
}

// FetchStreamPage fetches an activity-stream continuation page at the
// given cursor on behalf of the token's user.
func (c *Client) FetchStreamPage(ctx context.Context, cursor, authToken string) (*track.ActivityPage, error) {
	if authToken == "" {
		return nil, errors.New("auth token is required")
	}

	u, err := withParam(cursor, "oauth_token", authToken)
	if err != nil {
		return nil, errors.Wrap(err, "invalid continuation cursor")
	}

	var page track.ActivityPage
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, errors.Wrap(err, "failed to continue activity stream")
	}
	c.logDroppedEntries(&page)
	return &page, nil
}

// Track resolves a single track by its API URI.
func (c *Client) Track(ctx context.Context, ref string) (*track.Track, error) {
	u, err := withParam(ref, "client_id", c.clientID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid track reference")
	}

	var t track.Track
	if err := c.getJSON(ctx, u, &t); err != nil {
		return nil, errors.Wrapf(err, "failed to resolve track %s", ref)
	}
	return &t, nil
}

// PlayableURL resolves the track's public stream URL to the playable CDN
// URL carried in the redirect Location header. Fails when the track is not
// streamable; the failure is propagated, not retried.
func (c *Client) PlayableURL(ctx context.Context, t *track.Track) (string, error) {
	if t.StreamURL == "" || !t.Streamable {
		return "", errors.Newf("track %d is not streamable", t.ID)
	}

	u, err := withParam(t.StreamURL, "client_id", c.clientID)
	if err != nil {
		return "", errors.Wrap(err, "invalid stream URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}

	resp, err := c.noRedirect.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve stream URL")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return "", errors.Newf("track %d is not streamable (status %d)", t.ID, resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", errors.Newf("no stream location for track %d", t.ID)
	}
	return location, nil
}

// Like marks the track as a favorite of the token's user.
func (c *Client) Like(ctx context.Context, authToken string, trackID int64) error {
	params := url.Values{}
	params.Set("oauth_token", authToken)

	u := fmt.Sprintf("%s/me/favorites/%d?%s", c.baseURL, trackID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to like track")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errors.Newf("failed to like track %d (status %d)", trackID, resp.StatusCode)
	}
	return nil
}

// Follow makes the token's user follow the given user. Returns false when
// the user is already being followed.
func (c *Client) Follow(ctx context.Context, authToken string, userID int64) (bool, error) {
	params := url.Values{}
	params.Set("oauth_token", authToken)

	u := fmt.Sprintf("%s/me/followings/%d?%s", c.baseURL, userID, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, errors.Wrap(err, "failed to create request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "failed to check following")
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		// Already following
		return false, nil
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, u, nil)
	if err != nil {
		return false, errors.Wrap(err, "failed to create request")
	}
	putResp, err := c.httpClient.Do(putReq)
	if err != nil {
		return false, errors.Wrap(err, "failed to follow user")
	}
	defer putResp.Body.Close()

	if putResp.StatusCode >= 400 {
		return false, errors.Newf("failed to follow user %d (status %d)", userID, putResp.StatusCode)
	}
	return true, nil
}

// getJSON performs a GET request and decodes the JSON response body.
func (c *Client) getJSON(ctx context.Context, rawURL string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Errors) > 0 {
			return errors.Newf("API error %d: %s", resp.StatusCode, apiErr.Errors[0].ErrorMessage)
		}
		return errors.Newf("API error %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}

// logDroppedEntries reports activity entries that decoded to an
// unrecognized kind.
func (c *Client) logDroppedEntries(page *track.ActivityPage) {
	dropped := 0
	for _, a := range page.Collection {
		if a.Kind == track.KindUnknown {
			dropped++
		}
	}
	if dropped > 0 {
		zlog.Warn().Msgf("dropped %d activity entries of unrecognized type", dropped)
	}
}

// withParam appends a query parameter to a URL that may already carry
// query parameters (continuation cursors do).
func withParam(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
