// Package track provides the Track domain entity and catalog page types.
package track

import "encoding/json"

// Track represents a catalog track entity.
// Contains only information retrieved from the remote catalog API.
type Track struct {
	ID           int64  `json:"id"`            // Catalog track ID
	URI          string `json:"uri"`           // API URI, the canonical track reference
	Title        string `json:"title"`         // Track title
	PermalinkURL string `json:"permalink_url"` // Public web URL
	StreamURL    string `json:"stream_url"`    // Public stream URL (needs resolution before playback)
	ArtworkURL   string `json:"artwork_url"`   // Artwork URL (may be empty)
	DurationMs   int64  `json:"duration"`      // Track duration in milliseconds
	Genre        string `json:"genre"`         // Genre (may be empty)
	Streamable   bool   `json:"streamable"`    // Whether the track can be streamed
	User         User   `json:"user"`          // Uploading user
}

// User represents the user that uploaded a track or owns a playlist.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// Playlist represents a playlist entity appearing in an activity stream.
// Playlists are recognized but never queued; only the fields needed for
// logging are decoded.
type Playlist struct {
	ID    int64  `json:"id"`
	URI   string `json:"uri"`
	Title string `json:"title"`
	User  User   `json:"user"`
}

// DisplayImageURL returns the artwork URL, falling back to the uploader's avatar.
func (t *Track) DisplayImageURL() string {
	if t.ArtworkURL != "" {
		return t.ArtworkURL
	}
	return t.User.AvatarURL
}

// Page is one page of tracks from the catalog plus the continuation cursor.
// An empty NextHref means the catalog has no further pages.
type Page struct {
	Collection []Track `json:"collection"`
	NextHref   string  `json:"next_href"`
}

// ActivityKind identifies the payload variant of an activity entry.
type ActivityKind int

const (
	KindUnknown        ActivityKind = iota // Unrecognized entry type (dropped)
	KindTrack                              // A track
	KindTrackRepost                        // A reposted track
	KindPlaylist                           // A playlist
	KindPlaylistRepost                     // A reposted playlist
)

// String returns the string representation of the activity kind.
func (k ActivityKind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindTrackRepost:
		return "track-repost"
	case KindPlaylist:
		return "playlist"
	case KindPlaylistRepost:
		return "playlist-repost"
	default:
		return "unknown"
	}
}

// IsTrack reports whether the kind carries a track payload.
func (k ActivityKind) IsTrack() bool {
	return k == KindTrack || k == KindTrackRepost
}

// Activity is one entry of an activity-stream page. It is a tagged union:
// exactly one of Track or Playlist is set, according to Kind.
type Activity struct {
	Kind     ActivityKind
	Track    *Track
	Playlist *Playlist
	Tags     string
}

// activityEnvelope is the raw wire shape of an activity entry.
type activityEnvelope struct {
	Type   string          `json:"type"`
	Origin json.RawMessage `json:"origin"`
	Tags   string          `json:"tags"`
}

// UnmarshalJSON decodes an activity entry, dispatching on the "type" tag.
// Entries of unrecognized type decode to KindUnknown with no payload.
func (a *Activity) UnmarshalJSON(data []byte) error {
	var env activityEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	a.Tags = env.Tags

	switch env.Type {
	case "track", "track-repost":
		if env.Type == "track" {
			a.Kind = KindTrack
		} else {
			a.Kind = KindTrackRepost
		}
		var t Track
		if err := json.Unmarshal(env.Origin, &t); err != nil {
			return err
		}
		a.Track = &t
	case "playlist", "playlist-repost":
		if env.Type == "playlist" {
			a.Kind = KindPlaylist
		} else {
			a.Kind = KindPlaylistRepost
		}
		var p Playlist
		if err := json.Unmarshal(env.Origin, &p); err != nil {
			return err
		}
		a.Playlist = &p
	default:
		a.Kind = KindUnknown
	}

	return nil
}

// ActivityPage is one page of a user's activity stream.
type ActivityPage struct {
	Collection []Activity `json:"collection"`
	NextHref   string     `json:"next_href"`
	FutureHref string     `json:"future_href"`
}

// Tracks returns only the track payloads of the page, preserving order.
// Playlist and unknown entries are skipped.
func (p *ActivityPage) Tracks() []Track {
	tracks := make([]Track, 0, len(p.Collection))
	for _, a := range p.Collection {
		if a.Kind.IsTrack() && a.Track != nil {
			tracks = append(tracks, *a.Track)
		}
	}
	return tracks
}

// Refs returns the URIs of the given tracks, preserving order.
func Refs(tracks []Track) []string {
	refs := make([]string, len(tracks))
	for i, t := range tracks {
		refs[i] = t.URI
	}
	return refs
}
