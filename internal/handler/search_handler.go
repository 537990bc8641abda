package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/pipeline"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/tmdb"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SearchHandler handles ranking-run requests.
type SearchHandler struct {
	runner   *pipeline.Runner
	sessions *Sessions
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(runner *pipeline.Runner, sessions *Sessions) *SearchHandler {
	return &SearchHandler{runner: runner, sessions: sessions}
}

// Health returns service health status.
func (h *SearchHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "movie-finder",
	})
}

// Search runs the canonical search flow for the session's preferences.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	return h.runSearch(c, false)
}

// MoreResults advances the session's page window (paid tier only).
func (h *SearchHandler) MoreResults(c fiber.Ctx) error {
	return h.runSearch(c, true)
}

func (h *SearchHandler) runSearch(c fiber.Ctx, loadMore bool) error {
	sess := h.sessions.FromRequest(c)

	outcome, err := h.runner.Search(c.Context(), sess, loadMore)
	if err != nil {
		return h.renderSearchError(c, err)
	}

	return c.JSON(fiber.Map{
		"outcome": "ok",
		"results": outcome.Results,
		"gate":    gateJSON(outcome.Gate),
		"batch":   outcome.Batch,
	})
}

// Sweep runs the broad premium multi-genre sweep.
func (h *SearchHandler) Sweep(c fiber.Ctx) error {
	sess := h.sessions.FromRequest(c)

	var body struct {
		MediaType   string `json:"media_type"`
		PlatformIDs []int  `json:"platform_ids"`
	}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
		}
	}

	outcome, err := h.runner.PremiumSweep(c.Context(), sess, pipeline.SweepRequest{
		MediaType:   tmdb.MediaType(body.MediaType),
		PlatformIDs: body.PlatformIDs,
	})
	if err != nil {
		return h.renderSearchError(c, err)
	}

	return c.JSON(fiber.Map{
		"outcome": "ok",
		"results": outcome.Results,
	})
}

// Rankings returns this week's top streamable picks.
func (h *SearchHandler) Rankings(c fiber.Ctx) error {
	picks, err := h.runner.TopPicks(c.Context())
	if err != nil {
		return h.renderSearchError(c, err)
	}
	return c.JSON(fiber.Map{
		"outcome": "ok",
		"results": picks,
	})
}

// Gate reports the session's cooldown state.
func (h *SearchHandler) Gate(c fiber.Ctx) error {
	sess := h.sessions.FromRequest(c)
	info := h.runner.GateStatus(c.Context(), sess)
	return c.JSON(gateJSON(info))
}

// renderSearchError maps the pipeline's outcome taxonomy onto HTTP. Only
// the locked gate and a transport failure are user-visible as distinct
// states; an empty pool is a soft outcome, not an error.
func (h *SearchHandler) renderSearchError(c fiber.Ctx, err error) error {
	var locked *pipeline.GateLockedError
	if errors.As(err, &locked) {
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{
			"outcome":      "locked",
			"remaining_ms": locked.Remaining.Milliseconds(),
		})
	}

	var empty *pipeline.NoResultsError
	if errors.As(err, &empty) {
		return c.JSON(fiber.Map{
			"outcome": "empty",
			"results": []pipeline.Result{},
			"message": empty.Error(),
		})
	}

	if errors.Is(err, pipeline.ErrPremiumRequired) || errors.Is(err, pipeline.ErrLoadMoreUnavailable) {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: err.Error()})
	}

	slog.Error("search run failed", "error", err)
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"outcome": "error",
		"message": "Errore rete o permessi",
	})
}
