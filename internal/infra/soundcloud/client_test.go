package soundcloud

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/cloudbox/internal/domain/track"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{ClientID: "test-client-id", BaseURL: srv.URL})
	require.NoError(t, err)
	return c, srv
}

func TestNew_RequiresClientID(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestClient_Favorites(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/favorites", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("linked_partitioning"))
		assert.Equal(t, "token-1", r.URL.Query().Get("oauth_token"))

		w.Write([]byte(`{
			"collection": [
				{"id": 1, "uri": "u1", "title": "One", "streamable": true},
				{"id": 2, "uri": "u2", "title": "Two", "streamable": true}
			],
			"next_href": "https://api.example.com/me/favorites?cursor=abc"
		}`))
	}))

	page, err := c.Favorites(context.Background(), "token-1")
	require.NoError(t, err)
	require.Len(t, page.Collection, 2)
	assert.Equal(t, "u1", page.Collection[0].URI)
	assert.Equal(t, "https://api.example.com/me/favorites?cursor=abc", page.NextHref)
}

func TestClient_Favorites_RequiresToken(t *testing.T) {
	c, err := New(Config{ClientID: "id"})
	require.NoError(t, err)

	_, err = c.Favorites(context.Background(), "")
	assert.Error(t, err)
}

func TestClient_SearchTracks(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tracks", r.URL.Path)
		assert.Equal(t, "daft punk", r.URL.Query().Get("q"))
		assert.Equal(t, "test-client-id", r.URL.Query().Get("client_id"))

		w.Write([]byte(`{"collection": [{"id": 7, "uri": "u7", "title": "Seven"}]}`))
	}))

	page, err := c.SearchTracks(context.Background(), "daft punk")
	require.NoError(t, err)
	require.Len(t, page.Collection, 1)
	assert.Equal(t, int64(7), page.Collection[0].ID)
	assert.Empty(t, page.NextHref)
}

func TestClient_FetchPage_MergesClientID(t *testing.T) {
	var gotQuery string
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"collection": []}`))
	}))

	// Cursors already carry query parameters of their own
	_, err := c.FetchPage(context.Background(), srv.URL+"/me/favorites?cursor=abc&limit=50")
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "cursor=abc")
	assert.Contains(t, gotQuery, "limit=50")
	assert.Contains(t, gotQuery, "client_id=test-client-id")
}

func TestClient_ActivityStream(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/activities/tracks/affiliated", r.URL.Path)
		assert.Equal(t, "token-1", r.URL.Query().Get("oauth_token"))

		w.Write([]byte(`{
			"collection": [
				{"type": "track", "origin": {"id": 1, "uri": "u1"}},
				{"type": "playlist", "origin": {"id": 2, "uri": "p1"}}
			],
			"next_href": "https://api.example.com/activities?cursor=xyz"
		}`))
	}))

	page, err := c.ActivityStream(context.Background(), "token-1")
	require.NoError(t, err)
	require.Len(t, page.Collection, 2)
	assert.Len(t, page.Tracks(), 1)
}

func TestClient_FetchStreamPage_RequiresToken(t *testing.T) {
	c, err := New(Config{ClientID: "id"})
	require.NoError(t, err)

	_, err = c.FetchStreamPage(context.Background(), "https://api.example.com/activities?cursor=xyz", "")
	assert.Error(t, err)
}

func TestClient_PlayableURL(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tracks/1/stream", r.URL.Path)
		assert.Equal(t, "test-client-id", r.URL.Query().Get("client_id"))

		w.Header().Set("Location", "https://cdn.example.com/media/1.mp3")
		w.WriteHeader(http.StatusFound)
	}))

	got, err := c.PlayableURL(context.Background(), &track.Track{
		ID:         1,
		StreamURL:  srv.URL + "/tracks/1/stream",
		Streamable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/media/1.mp3", got)
}

func TestClient_PlayableURL_NotStreamable(t *testing.T) {
	c, err := New(Config{ClientID: "id"})
	require.NoError(t, err)

	_, err = c.PlayableURL(context.Background(), &track.Track{ID: 1, StreamURL: "s", Streamable: false})
	assert.Error(t, err)

	_, err = c.PlayableURL(context.Background(), &track.Track{ID: 2, Streamable: true})
	assert.Error(t, err)
}

func TestClient_PlayableURL_NoRedirect(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	_, err := c.PlayableURL(context.Background(), &track.Track{
		ID:         1,
		StreamURL:  srv.URL + "/tracks/1/stream",
		Streamable: true,
	})
	assert.Error(t, err)
}

func TestClient_Follow_NewUser(t *testing.T) {
	var putCalled bool
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/followings/42", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			putCalled = true
			w.WriteHeader(http.StatusCreated)
		}
	}))

	followed, err := c.Follow(context.Background(), "token-1", 42)
	require.NoError(t, err)
	assert.True(t, followed)
	assert.True(t, putCalled)
}

func TestClient_Follow_AlreadyFollowing(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"id": 42}`))
	}))

	followed, err := c.Follow(context.Background(), "token-1", 42)
	require.NoError(t, err)
	assert.False(t, followed)
}

func TestClient_Like(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/me/favorites/7", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))

	assert.NoError(t, c.Like(context.Background(), "token-1", 7))
}

func TestClient_APIError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors": [{"error_message": "invalid token"}]}`))
	}))

	_, err := c.SearchTracks(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestWithParam(t *testing.T) {
	got, err := withParam("https://api.example.com/tracks?cursor=abc", "client_id", "id-1")
	require.NoError(t, err)
	assert.Contains(t, got, "cursor=abc")
	assert.Contains(t, got, "client_id=id-1")

	got, err = withParam("https://api.example.com/tracks", "client_id", "id-1")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/tracks?client_id=id-1", got)
}
