// Package rest provides the JSON API consumed by the voice dispatcher.
//
// The engine owns navigation and persistence; this layer resolves track
// references into playable responses and maps the engine's error taxonomy
// onto HTTP status codes. "Nothing available to play" is 204, never an
// error.
package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cloudbox/internal/app/session"
	"github.com/osa030/cloudbox/internal/app/source"
	"github.com/osa030/cloudbox/internal/domain/playback"
	"github.com/osa030/cloudbox/internal/domain/track"
)

// authTokenHeader carries the listener's catalog token on user-bound calls.
const authTokenHeader = "X-Auth-Token"

// Catalog resolves track references for responses.
type Catalog interface {
	Track(ctx context.Context, ref string) (*track.Track, error)
	PlayableURL(ctx context.Context, t *track.Track) (string, error)
}

// Searcher serves free-text "play X" session starts.
type Searcher interface {
	SearchTracks(ctx context.Context, query string) (*track.Page, error)
}

// Social covers the like/follow operations of the primary catalog.
type Social interface {
	Like(ctx context.Context, authToken string, trackID int64) error
	Follow(ctx context.Context, authToken string, userID int64) (bool, error)
}

// Handler serves the dispatcher API.
type Handler struct {
	engine  *session.Engine
	catalog Catalog
	search  Searcher
	social  Social // may be nil
	sources map[string]source.Provider
}

// NewHandler creates the API handler.
func NewHandler(engine *session.Engine, catalog Catalog, search Searcher, social Social, sources map[string]source.Provider) *Handler {
	return &Handler{
		engine:  engine,
		catalog: catalog,
		search:  search,
		social:  social,
		sources: sources,
	}
}

// Register registers all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/users/{user}/session", h.startSession)
	mux.HandleFunc("POST /v1/users/{user}/next", h.nextTrack)
	mux.HandleFunc("POST /v1/users/{user}/previous", h.previousTrack)
	mux.HandleFunc("POST /v1/users/{user}/position", h.updatePosition)
	mux.HandleFunc("POST /v1/users/{user}/offset", h.rememberOffset)
	mux.HandleFunc("PUT /v1/users/{user}/loop", h.setLoop)
	mux.HandleFunc("POST /v1/users/{user}/restart", h.startOver)
	mux.HandleFunc("GET /v1/users/{user}/current", h.current)
	mux.HandleFunc("POST /v1/users/{user}/likes", h.likeCurrent)
	mux.HandleFunc("POST /v1/users/{user}/followings", h.followCurrent)
}

type startSessionRequest struct {
	Source string `json:"source"`
	Query  string `json:"query"`
}

type positionRequest struct {
	Ref string `json:"ref"`
}

type offsetRequest struct {
	Ref      string `json:"ref"`
	OffsetMs int64  `json:"offset_ms"`
}

type loopRequest struct {
	Enabled bool `json:"enabled"`
}

type trackResponse struct {
	Ref          string `json:"ref"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	PermalinkURL string `json:"permalink_url"`
	ArtworkURL   string `json:"artwork_url,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
	StreamURL    string `json:"stream_url"`
	OffsetMs     int64  `json:"offset_ms,omitempty"`
}

type followResponse struct {
	Followed bool   `json:"followed"`
	Username string `json:"username"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// startSession starts a new session from a named source or a search query,
// replacing any prior session for the user wholesale.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	page, err := h.startPage(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if len(page.Tracks) == 0 && page.Cursor == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.engine.StartSession(r.Context(), userID, track.Refs(page.Tracks), page.Cursor, page.Mode); err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	if len(page.Tracks) == 0 {
		// The opening page carried only non-track entries; the first
		// "next" will continue from the stored cursor.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeTrack(w, r, &page.Tracks[0], 0)
}

// startPage fetches the opening page for the requested source.
func (h *Handler) startPage(r *http.Request, req *startSessionRequest) (*source.StartPage, error) {
	if req.Query != "" {
		page, err := h.search.SearchTracks(r.Context(), req.Query)
		if err != nil {
			return nil, err
		}
		return &source.StartPage{
			Tracks: page.Collection,
			Cursor: page.NextHref,
			Mode:   playback.ModeTrackList,
		}, nil
	}

	provider, ok := h.sources[req.Source]
	if !ok {
		return nil, errors.Newf("unknown session source: %q", req.Source)
	}
	return provider.Start(r.Context(), r.Header.Get(authTokenHeader))
}

func (h *Handler) nextTrack(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	ref, ok, err := h.engine.NextTrack(r.Context(), userID, r.Header.Get(authTokenHeader))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.resolveAndWrite(w, r, ref, 0)
}

func (h *Handler) previousTrack(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	ref, ok, err := h.engine.PreviousTrack(r.Context(), userID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.resolveAndWrite(w, r, ref, 0)
}

func (h *Handler) updatePosition(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ref == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := h.engine.UpdatePosition(r.Context(), userID, req.Ref); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rememberOffset(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	var req offsetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ref == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := h.engine.RememberOffsetAndPosition(r.Context(), userID, req.Ref, req.OffsetMs); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setLoop(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	var req loopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := h.engine.SetLoop(r.Context(), userID, req.Enabled); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) startOver(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	ref, ok, err := h.engine.StartOver(r.Context(), userID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.resolveAndWrite(w, r, ref, 0)
}

// current returns the track at the play position and the remembered
// offset, for resuming paused playback.
func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	ref, offsetMs, ok, err := h.engine.Current(r.Context(), userID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.resolveAndWrite(w, r, ref, offsetMs)
}

// likeCurrent marks the track at the play position as a favorite.
func (h *Handler) likeCurrent(w http.ResponseWriter, r *http.Request) {
	t, token, done := h.currentForSocial(w, r)
	if done {
		return
	}
	if err := h.social.Like(r.Context(), token, t.ID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// followCurrent follows the uploader of the track at the play position.
func (h *Handler) followCurrent(w http.ResponseWriter, r *http.Request) {
	t, token, done := h.currentForSocial(w, r)
	if done {
		return
	}
	followed, err := h.social.Follow(r.Context(), token, t.User.ID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, followResponse{Followed: followed, Username: t.User.Username})
}

// currentForSocial resolves the current track for a like/follow call.
// done is true when a response was already written.
func (h *Handler) currentForSocial(w http.ResponseWriter, r *http.Request) (*track.Track, string, bool) {
	if h.social == nil {
		writeError(w, http.StatusNotImplemented, "not_supported", "social operations are not supported by this catalog")
		return nil, "", true
	}
	token := r.Header.Get(authTokenHeader)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "account_not_linked", "a linked account token is required")
		return nil, "", true
	}

	userID := r.PathValue("user")
	ref, _, ok, err := h.engine.Current(r.Context(), userID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return nil, "", true
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no_current_track", "nothing is playing")
		return nil, "", true
	}

	t, err := h.catalog.Track(r.Context(), ref)
	if err != nil {
		h.writeEngineError(w, r, err)
		return nil, "", true
	}
	return t, token, false
}

// resolveAndWrite resolves a track reference and writes the playable response.
func (h *Handler) resolveAndWrite(w http.ResponseWriter, r *http.Request, ref string, offsetMs int64) {
	t, err := h.catalog.Track(r.Context(), ref)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.writeTrack(w, r, t, offsetMs)
}

func (h *Handler) writeTrack(w http.ResponseWriter, r *http.Request, t *track.Track, offsetMs int64) {
	streamURL, err := h.catalog.PlayableURL(r.Context(), t)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trackResponse{
		Ref:          t.URI,
		Title:        t.Title,
		Artist:       t.User.Username,
		PermalinkURL: t.PermalinkURL,
		ArtworkURL:   t.DisplayImageURL(),
		DurationMs:   t.DurationMs,
		StreamURL:    streamURL,
		OffsetMs:     offsetMs,
	})
}

// writeEngineError maps the engine error taxonomy onto HTTP status codes.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNoPlaybackState):
		writeError(w, http.StatusNotFound, "no_playback_state", "no playback session; start one first")
	case errors.Is(err, session.ErrTrackNotInQueue):
		writeError(w, http.StatusConflict, "track_not_in_queue", "the track is not part of the session queue")
	case errors.Is(err, session.ErrMissingAuthToken):
		// Caller contract violation, not a user-facing condition
		zlog.Error().Err(err).Str("path", r.URL.Path).Msg("stream continuation without auth token")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	default:
		zlog.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusBadGateway, "upstream_failure", "catalog or store operation failed")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zlog.Error().Err(err).Msg("failed to encode response")
	}
}
