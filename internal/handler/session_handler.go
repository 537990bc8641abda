package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/gate"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/kv"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/pipeline"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/prefs"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/repository"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/session"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/tmdb"
)

// Sessions builds session-state handles from requests. The session ID comes
// from the X-Session-ID header; a missing header falls back to a shared
// "local" session, matching the single-user origins of the service.
type Sessions struct {
	store      kv.Store
	unlockCode string
}

// NewSessions creates the session factory.
func NewSessions(store kv.Store, unlockCode string) *Sessions {
	return &Sessions{store: store, unlockCode: unlockCode}
}

// FromRequest resolves the request's session handle.
func (s *Sessions) FromRequest(c fiber.Ctx) *session.Store {
	id := c.Get("X-Session-ID")
	if id == "" {
		id = "local"
	}
	return session.NewStore(s.store, id, s.unlockCode)
}

// SessionHandler handles per-session state: preferences, watched set, tier.
type SessionHandler struct {
	runner    *pipeline.Runner
	sessions  *Sessions
	catalog   pipeline.Catalog
	snapshots *repository.SnapshotRepository
}

// NewSessionHandler creates a new SessionHandler. snapshots may be nil when
// Postgres is unavailable.
func NewSessionHandler(runner *pipeline.Runner, sessions *Sessions, catalog pipeline.Catalog, snapshots *repository.SnapshotRepository) *SessionHandler {
	return &SessionHandler{runner: runner, sessions: sessions, catalog: catalog, snapshots: snapshots}
}

// GetPreferences returns the session's stored preferences.
func (h *SessionHandler) GetPreferences(c fiber.Ctx) error {
	sess := h.sessions.FromRequest(c)
	return c.JSON(sess.Preferences(c.Context()))
}

// SetPreferences stores the session's preferences, sanitized for its tier.
func (h *SessionHandler) SetPreferences(c fiber.Ctx) error {
	sess := h.sessions.FromRequest(c)

	var p prefs.Preferences
	if err := c.Bind().JSON(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	saved := sess.SavePreferences(c.Context(), p)
	return c.JSON(saved)
}

// ListWatched returns the session's watched keys.
func (h *SessionHandler) ListWatched(c fiber.Ctx) error {
	sess := h.sessions.FromRequest(c)
	set := sess.Watched(c.Context())
	return c.JSON(fiber.Map{"watched": set.Keys()})
}

type watchedRequest struct {
	MediaType string `json:"media_type"`
	ID        int    `json:"id"`
}

func (r watchedRequest) validate() (tmdb.MediaType, bool) {
	mt := tmdb.MediaType(r.MediaType)
	if mt == "" {
		mt = tmdb.MediaMovie
	}
	if mt != tmdb.MediaMovie && mt != tmdb.MediaTV {
		return "", false
	}
	return mt, r.ID > 0
}

// MarkWatched adds an item to the forever-watched set.
func (h *SessionHandler) MarkWatched(c fiber.Ctx) error {
	sess := h.sessions.FromRequest(c)

	var req watchedRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	mt, ok := req.validate()
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid media type or id"})
	}

	h.runner.MarkWatched(c.Context(), sess, mt, req.ID)
	return c.JSON(fiber.Map{"watched": true})
}

// ToggleWatched flips an item's watched state.
func (h *SessionHandler) ToggleWatched(c fiber.Ctx) error {
	sess := h.sessions.FromRequest(c)

	var req watchedRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	mt, ok := req.validate()
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid media type or id"})
	}

	nowWatched := h.runner.ToggleWatched(c.Context(), sess, mt, req.ID)
	return c.JSON(fiber.Map{"watched": nowWatched})
}

// Unlock checks the premium unlock code for the session.
func (h *SessionHandler) Unlock(c fiber.Ctx) error {
	sess := h.sessions.FromRequest(c)

	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if !sess.Unlock(c.Context(), body.Code) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"premium": false,
			"error":   "Codice non valido. Riprova.",
		})
	}
	return c.JSON(fiber.Map{"premium": true})
}

// Tier reports the session's tier.
func (h *SessionHandler) Tier(c fiber.Ctx) error {
	sess := h.sessions.FromRequest(c)
	return c.JSON(fiber.Map{"premium": sess.Premium(c.Context())})
}

// Providers returns the region's provider name to ID directory.
func (h *SessionHandler) Providers(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"providers": h.catalog.ProvidersByName(c.Context())})
}

// Snapshots returns the session's last persisted ranked results.
func (h *SessionHandler) Snapshots(c fiber.Ctx) error {
	if h.snapshots == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "snapshots unavailable"})
	}

	sess := h.sessions.FromRequest(c)
	limit := fiber.Query(c, "limit", 10)

	snaps, err := h.snapshots.List(sess.ID(), limit)
	if err != nil {
		slog.Error("failed to list snapshots", "session", sess.ID(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to retrieve snapshots"})
	}
	return c.JSON(fiber.Map{"snapshots": snaps})
}

func gateJSON(info gate.Info) fiber.Map {
	return fiber.Map{
		"locked":       info.Locked,
		"remaining_ms": info.RemainingMs(),
	}
}
