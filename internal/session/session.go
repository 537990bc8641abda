// Package session exposes one user session's durable state as an explicit,
// injectable object. The pipeline receives a *Store handle instead of
// reaching into ambient global state, which keeps it unit-testable over an
// in-memory kv.Store.
package session

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/kv"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/prefs"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/watched"
)

// Storage keys carried over from the deployed clients, so an existing
// session's state stays readable.
const (
	keyWatched    = "watchedMovies"
	keySettings   = "mf_settings_v3"
	keyLastSearch = "mf_basic_last_search_ts"
	keyPremium    = "premiumUnlocked"
)

// Store binds a key-value store to one session ID.
type Store struct {
	kv         kv.Store
	sessionID  string
	unlockCode string
}

// NewStore creates a session-state handle. unlockCode is the code that
// flips the session to the paid tier.
func NewStore(store kv.Store, sessionID, unlockCode string) *Store {
	return &Store{kv: store, sessionID: sessionID, unlockCode: unlockCode}
}

// ID returns the session identifier.
func (s *Store) ID() string { return s.sessionID }

func (s *Store) key(name string) string {
	return "mf:" + s.sessionID + ":" + name
}

// Premium reports whether the session has unlocked the paid tier.
func (s *Store) Premium(ctx context.Context) bool {
	val, _ := s.kv.Get(ctx, s.key(keyPremium))
	return val == "true"
}

// Unlock checks the unlock code (case-insensitive) and, on match, flips the
// session to the paid tier. It reports whether the code was accepted.
func (s *Store) Unlock(ctx context.Context, code string) bool {
	if !strings.EqualFold(strings.TrimSpace(code), s.unlockCode) {
		return false
	}
	s.kv.Set(ctx, s.key(keyPremium), "true")
	return true
}

// ResetPremium drops the paid-tier flag.
func (s *Store) ResetPremium(ctx context.Context) {
	s.kv.Delete(ctx, s.key(keyPremium))
}

// LastSearch returns the last recorded free-tier search time, or the zero
// time when none was recorded or the stored value is malformed.
func (s *Store) LastSearch(ctx context.Context) time.Time {
	val, ok := s.kv.Get(ctx, s.key(keyLastSearch))
	if !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// MarkSearchDone records now as the last free-tier search time.
func (s *Store) MarkSearchDone(ctx context.Context, now time.Time) {
	s.kv.Set(ctx, s.key(keyLastSearch), strconv.FormatInt(now.UnixMilli(), 10))
}

// Watched loads the session's watched set, degrading to empty on malformed
// stored data.
func (s *Store) Watched(ctx context.Context) *watched.Set {
	raw, _ := s.kv.Get(ctx, s.key(keyWatched))
	return watched.ParseSet(raw)
}

// SaveWatched persists the watched set.
func (s *Store) SaveWatched(ctx context.Context, set *watched.Set) {
	data, err := json.Marshal(set)
	if err != nil {
		return
	}
	s.kv.Set(ctx, s.key(keyWatched), string(data))
}

// Preferences loads the session's preferences, degrading to defaults.
func (s *Store) Preferences(ctx context.Context) prefs.Preferences {
	raw, _ := s.kv.Get(ctx, s.key(keySettings))
	return prefs.Parse(raw)
}

// SavePreferences sanitizes for the session's tier and persists.
func (s *Store) SavePreferences(ctx context.Context, p prefs.Preferences) prefs.Preferences {
	p.SanitizeForTier(s.Premium(ctx))
	data, err := json.Marshal(p)
	if err != nil {
		return p
	}
	s.kv.Set(ctx, s.key(keySettings), string(data))
	return p
}
