package track

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantKind ActivityKind
	}{
		{
			name:     "track",
			payload:  `{"type":"track","origin":{"id":1,"uri":"https://api.example.com/tracks/1","title":"One"}}`,
			wantKind: KindTrack,
		},
		{
			name:     "track repost",
			payload:  `{"type":"track-repost","origin":{"id":2,"uri":"https://api.example.com/tracks/2","title":"Two"}}`,
			wantKind: KindTrackRepost,
		},
		{
			name:     "playlist",
			payload:  `{"type":"playlist","origin":{"id":3,"uri":"https://api.example.com/playlists/3","title":"Mix"}}`,
			wantKind: KindPlaylist,
		},
		{
			name:     "playlist repost",
			payload:  `{"type":"playlist-repost","origin":{"id":4,"uri":"https://api.example.com/playlists/4","title":"Mix"}}`,
			wantKind: KindPlaylistRepost,
		},
		{
			name:     "unknown type is dropped, not an error",
			payload:  `{"type":"comment","origin":{"id":5}}`,
			wantKind: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Activity
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &a))
			assert.Equal(t, tt.wantKind, a.Kind)

			switch {
			case tt.wantKind.IsTrack():
				assert.NotNil(t, a.Track)
				assert.Nil(t, a.Playlist)
			case tt.wantKind == KindPlaylist || tt.wantKind == KindPlaylistRepost:
				assert.NotNil(t, a.Playlist)
				assert.Nil(t, a.Track)
			default:
				assert.Nil(t, a.Track)
				assert.Nil(t, a.Playlist)
			}
		})
	}
}

func TestActivityPage_Tracks(t *testing.T) {
	payload := `{
		"collection": [
			{"type":"track","origin":{"id":1,"uri":"u1","title":"One"}},
			{"type":"playlist","origin":{"id":2,"uri":"p1","title":"Mix"}},
			{"type":"track-repost","origin":{"id":3,"uri":"u3","title":"Three"}},
			{"type":"comment","origin":{"id":4}}
		],
		"next_href": "https://api.example.com/next",
		"future_href": "https://api.example.com/future"
	}`

	var page ActivityPage
	require.NoError(t, json.Unmarshal([]byte(payload), &page))

	tracks := page.Tracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, "u1", tracks[0].URI)
	assert.Equal(t, "u3", tracks[1].URI)
	assert.Equal(t, "https://api.example.com/next", page.NextHref)
}

func TestRefs(t *testing.T) {
	tracks := []Track{{URI: "u1"}, {URI: "u2"}}
	assert.Equal(t, []string{"u1", "u2"}, Refs(tracks))
	assert.Empty(t, Refs(nil))
}

func TestTrack_DisplayImageURL(t *testing.T) {
	withArt := &Track{ArtworkURL: "art", User: User{AvatarURL: "avatar"}}
	assert.Equal(t, "art", withArt.DisplayImageURL())

	withoutArt := &Track{User: User{AvatarURL: "avatar"}}
	assert.Equal(t, "avatar", withoutArt.DisplayImageURL())
}
