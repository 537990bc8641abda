package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// ErrPremiumRequired is returned when a paid-tier operation is invoked by a
// free-tier session.
var ErrPremiumRequired = errors.New("premium tier required")

// ErrLoadMoreUnavailable is returned when a free-tier session asks for the
// next result batch; the free flow is single-shot per cooldown window.
var ErrLoadMoreUnavailable = errors.New("load more is not available on the free tier")

// GateLockedError means the free-tier cooldown is active. It is a UI state,
// not a hard failure: no network calls were made.
type GateLockedError struct {
	Remaining time.Duration
}

func (e *GateLockedError) Error() string {
	return fmt.Sprintf("search locked for another %s", e.Remaining.Round(time.Minute))
}

// IsGateLocked reports whether err is a GateLockedError.
func IsGateLocked(err error) bool {
	var target *GateLockedError
	return errors.As(err, &target)
}

// NoResultsError means the query succeeded but the filtered candidate pool
// ended up empty. Distinct from a transport failure: the guidance to the
// user is to change filters, not to retry.
type NoResultsError struct {
	Premium bool
}

func (e *NoResultsError) Error() string {
	if e.Premium {
		return "Nessun risultato in questo blocco. Premi Altri 10."
	}
	return "Nessun risultato. Cambia filtri e riprova."
}

// IsNoResults reports whether err is a NoResultsError.
func IsNoResults(err error) bool {
	var target *NoResultsError
	return errors.As(err, &target)
}
