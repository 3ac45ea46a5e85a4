// Package playback provides the per-user playback state entity.
package playback

// Mode selects which continuation protocol extends the queue.
type Mode string

const (
	// ModeTrackList continues a plain track collection (favorites, search,
	// playlist) page by page.
	ModeTrackList Mode = "track_list"
	// ModeStream continues the user's activity stream. Continuation requires
	// the user's auth token.
	ModeStream Mode = "stream"
)

// Valid reports whether the mode is one of the known values.
func (m Mode) Valid() bool {
	return m == ModeTrackList || m == ModeStream
}

// State represents a user's playback session.
//
// Queue holds opaque track references (API URIs) and is append-only except
// when a new session replaces the record wholesale. Position always
// satisfies 0 <= Position < len(Queue) while the queue is non-empty.
// An empty Cursor means the remote catalog has no further pages; it is
// never set again except by a new session.
type State struct {
	Queue    []string `json:"queue"`
	Position int      `json:"position"`
	Cursor   string   `json:"cursor,omitempty"`
	OffsetMs int64    `json:"offset_ms"`
	Looping  bool     `json:"looping"`
	Shuffle  bool     `json:"shuffle"` // Recorded but does not affect navigation order
	Mode     Mode     `json:"mode"`
}

// New creates the state for a freshly started session.
func New(queue []string, cursor string, mode Mode) *State {
	return &State{
		Queue:    queue,
		Position: 0,
		Cursor:   cursor,
		OffsetMs: 0,
		Looping:  false,
		Shuffle:  false,
		Mode:     mode,
	}
}

// NextIndex returns the index of the next track to play, if one is known
// locally. Wrap-around to the queue head happens only when looping is on
// and the catalog is exhausted; while a cursor remains, fetching more
// tracks takes priority over wrapping.
func (s *State) NextIndex() (int, bool) {
	if s.Position+1 < len(s.Queue) {
		return s.Position + 1, true
	}
	if len(s.Queue) > 0 && s.Position == len(s.Queue)-1 && s.Looping && s.Cursor == "" {
		return 0, true
	}
	return 0, false
}

// PrevIndex returns the index of the previous track. Backward navigation
// never wraps past the queue head, independent of the looping flag.
func (s *State) PrevIndex() (int, bool) {
	if s.Position > 0 {
		return s.Position - 1, true
	}
	return 0, false
}

// IndexOf returns the queue index of the given track reference.
func (s *State) IndexOf(ref string) (int, bool) {
	for i, r := range s.Queue {
		if r == ref {
			return i, true
		}
	}
	return 0, false
}

// CurrentRef returns the reference at the current position.
func (s *State) CurrentRef() (string, bool) {
	if len(s.Queue) == 0 {
		return "", false
	}
	return s.Queue[s.Position], true
}

// Append adds a continuation page to the queue tail and replaces the
// cursor. Returns the index of the first appended reference; ok is false
// when the page carried no tracks.
func (s *State) Append(refs []string, cursor string) (int, bool) {
	first := len(s.Queue)
	s.Queue = append(s.Queue, refs...)
	s.Cursor = cursor
	if len(refs) == 0 {
		return 0, false
	}
	return first, true
}
