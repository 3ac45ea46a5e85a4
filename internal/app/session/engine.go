// Package session provides the playback session engine.
//
// The engine tracks where a listener is inside a lazily-paginated queue of
// tracks, decides what plays next or previous, fetches more results from
// the remote catalog when the locally known queue is exhausted, and
// persists the state durably between independent invocations.
package session

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cloudbox/internal/domain/playback"
	"github.com/osa030/cloudbox/internal/domain/track"
)

// Store is the durable per-user persistence for playback state.
//
// Put is a full record replace. The Set* methods are narrow single-field
// writes. Narrow writes are atomic individually but not with each other or
// with reads: two racing invocations for the same user can overwrite each
// other's update, last write wins. The calling protocol is expected to
// issue requests for a given user sequentially.
type Store interface {
	// Get loads the state for a user. Returns ErrNoPlaybackState when the
	// user has no session record.
	Get(ctx context.Context, userID string) (*playback.State, error)
	// Put replaces the whole record.
	Put(ctx context.Context, userID string, st *playback.State) error
	// SetPosition updates only the play position.
	SetPosition(ctx context.Context, userID string, position int) error
	// SetOffsetAndPosition updates the remembered offset and the play
	// position together.
	SetOffsetAndPosition(ctx context.Context, userID string, offsetMs int64, position int) error
	// SetLooping updates only the looping flag.
	SetLooping(ctx context.Context, userID string, looping bool) error
}

// Catalog is the remote catalog as seen by the engine: one continuation
// page per call, no retries. A failed fetch aborts the navigation
// operation without persisting anything.
type Catalog interface {
	// FetchPage fetches the next track-list page at the given cursor.
	FetchPage(ctx context.Context, cursor string) (*track.Page, error)
	// FetchStreamPage fetches the next activity-stream page at the given
	// cursor on behalf of the user identified by authToken.
	FetchStreamPage(ctx context.Context, cursor, authToken string) (*track.ActivityPage, error)
}

// Engine owns the navigation algorithm and the read-modify-write cycle
// against the store and the catalog. It holds no per-user state; every
// operation is a single load/compute/persist cycle.
type Engine struct {
	store   Store
	catalog Catalog
}

// NewEngine creates a playback session engine.
func NewEngine(store Store, catalog Catalog) *Engine {
	return &Engine{store: store, catalog: catalog}
}

// StartSession replaces the user's playback state wholesale with a fresh
// session over the given queue, cursor, and mode.
func (e *Engine) StartSession(ctx context.Context, userID string, refs []string, cursor string, mode playback.Mode) error {
	if !mode.Valid() {
		return errors.Newf("invalid playback mode: %q", mode)
	}
	st := playback.New(refs, cursor, mode)
	if err := e.store.Put(ctx, userID, st); err != nil {
		return errors.Wrap(err, "failed to store new session")
	}
	zlog.Debug().
		Str("user", userID).
		Int("tracks", len(refs)).
		Bool("has_cursor", cursor != "").
		Str("mode", string(mode)).
		Msg("session started")
	return nil
}

// NextTrack advances the session and returns the reference of the track to
// play. ok is false when nothing is available to play next. At most one
// catalog fetch happens per call: when the queue tail is reached and a
// cursor remains, one continuation page is fetched and appended before the
// position advances.
func (e *Engine) NextTrack(ctx context.Context, userID, authToken string) (string, bool, error) {
	st, err := e.store.Get(ctx, userID)
	if err != nil {
		return "", false, err
	}

	if idx, ok := st.NextIndex(); ok {
		if err := e.store.SetPosition(ctx, userID, idx); err != nil {
			return "", false, errors.Wrap(err, "failed to persist position")
		}
		return st.Queue[idx], true, nil
	}

	if st.Cursor == "" {
		return "", false, nil
	}
	return e.continueSession(ctx, userID, authToken, st)
}

// continueSession fetches one continuation page, appends it to the queue,
// and persists queue, cursor, and position together. An empty page still
// persists the new cursor (so the following call tries the next page) and
// reports nothing available for this call.
func (e *Engine) continueSession(ctx context.Context, userID, authToken string, st *playback.State) (string, bool, error) {
	var refs []string
	var next string

	switch st.Mode {
	case playback.ModeStream:
		if authToken == "" {
			return "", false, errors.Wrapf(ErrMissingAuthToken, "user %s", userID)
		}
		page, err := e.catalog.FetchStreamPage(ctx, st.Cursor, authToken)
		if err != nil {
			return "", false, errors.Wrap(err, "failed to continue stream")
		}
		refs = track.Refs(page.Tracks())
		next = page.NextHref
	case playback.ModeTrackList:
		page, err := e.catalog.FetchPage(ctx, st.Cursor)
		if err != nil {
			return "", false, errors.Wrap(err, "failed to fetch next page")
		}
		refs = track.Refs(page.Collection)
		next = page.NextHref
	default:
		return "", false, errors.Newf("invalid playback mode: %q", st.Mode)
	}

	first, appended := st.Append(refs, next)
	if appended {
		st.Position = first
	}
	if err := e.store.Put(ctx, userID, st); err != nil {
		return "", false, errors.Wrap(err, "failed to persist continuation")
	}

	zlog.Debug().
		Str("user", userID).
		Int("appended", len(refs)).
		Bool("has_cursor", next != "").
		Msg("queue extended from catalog")

	if !appended {
		return "", false, nil
	}
	return st.Queue[first], true, nil
}

// PreviousTrack steps the session back one track. ok is false at the queue
// head; backward navigation never wraps, independent of the looping flag.
func (e *Engine) PreviousTrack(ctx context.Context, userID string) (string, bool, error) {
	st, err := e.store.Get(ctx, userID)
	if err != nil {
		return "", false, err
	}
	idx, ok := st.PrevIndex()
	if !ok {
		return "", false, nil
	}
	if err := e.store.SetPosition(ctx, userID, idx); err != nil {
		return "", false, errors.Wrap(err, "failed to persist position")
	}
	return st.Queue[idx], true, nil
}

// UpdatePosition moves the play position to the queue entry holding ref.
// Returns ErrTrackNotInQueue (and persists nothing) when the reference is
// not part of the stored queue.
func (e *Engine) UpdatePosition(ctx context.Context, userID, ref string) error {
	st, err := e.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	idx, ok := st.IndexOf(ref)
	if !ok {
		return errors.Wrapf(ErrTrackNotInQueue, "track %s", ref)
	}
	return e.store.SetPosition(ctx, userID, idx)
}

// RememberOffsetAndPosition records the playback offset within the track
// holding ref and moves the position to it, writing both fields together.
// Call this when playback pauses so a later resume can pick up mid-track.
func (e *Engine) RememberOffsetAndPosition(ctx context.Context, userID, ref string, offsetMs int64) error {
	if offsetMs < 0 {
		return errors.Newf("offset must not be negative: %d", offsetMs)
	}
	st, err := e.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	idx, ok := st.IndexOf(ref)
	if !ok {
		return errors.Wrapf(ErrTrackNotInQueue, "track %s", ref)
	}
	return e.store.SetOffsetAndPosition(ctx, userID, offsetMs, idx)
}

// SetLoop flips the looping flag. Idempotent from the caller's
// perspective; setting the same value twice leaves the state unchanged.
func (e *Engine) SetLoop(ctx context.Context, userID string, enabled bool) error {
	return e.store.SetLooping(ctx, userID, enabled)
}

// Current returns the reference at the current play position and the
// remembered offset, for resuming paused playback. ok is false when the
// queue is empty.
func (e *Engine) Current(ctx context.Context, userID string) (string, int64, bool, error) {
	st, err := e.store.Get(ctx, userID)
	if err != nil {
		return "", 0, false, err
	}
	ref, ok := st.CurrentRef()
	if !ok {
		return "", 0, false, nil
	}
	return ref, st.OffsetMs, true, nil
}

// StartOver rewinds the session to the queue head. ok is false when the
// queue is empty.
func (e *Engine) StartOver(ctx context.Context, userID string) (string, bool, error) {
	st, err := e.store.Get(ctx, userID)
	if err != nil {
		return "", false, err
	}
	if len(st.Queue) == 0 {
		return "", false, nil
	}
	if err := e.store.SetPosition(ctx, userID, 0); err != nil {
		return "", false, errors.Wrap(err, "failed to persist position")
	}
	return st.Queue[0], true, nil
}
