package session

import (
	"context"
	"testing"
	"time"

	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/kv"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/tmdb"
)

func newTestStore() *Store {
	return NewStore(kv.NewMemoryStore(), "test-session", "PREMIUM2026")
}

func TestUnlock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	if s.Premium(ctx) {
		t.Fatalf("fresh session must be free tier")
	}
	if s.Unlock(ctx, "WRONG") {
		t.Fatalf("wrong code must be rejected")
	}
	if !s.Unlock(ctx, "premium2026") {
		t.Fatalf("code check should be case-insensitive")
	}
	if !s.Premium(ctx) {
		t.Fatalf("session must be premium after unlock")
	}

	s.ResetPremium(ctx)
	if s.Premium(ctx) {
		t.Fatalf("reset must drop the premium flag")
	}
}

func TestLastSearchRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	if !s.LastSearch(ctx).IsZero() {
		t.Fatalf("fresh session must have no recorded search")
	}

	now := time.Now().Truncate(time.Millisecond)
	s.MarkSearchDone(ctx, now)

	if got := s.LastSearch(ctx); !got.Equal(now) {
		t.Fatalf("expected %s, got %s", now, got)
	}
}

func TestLastSearchDegradesOnMalformedValue(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	s := NewStore(mem, "sid", "CODE")

	mem.Set(ctx, "mf:sid:mf_basic_last_search_ts", "not-a-number")
	if !s.LastSearch(ctx).IsZero() {
		t.Fatalf("malformed timestamp must degrade to zero time")
	}
}

func TestWatchedPersistence(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	s := NewStore(mem, "sid", "CODE")

	set := s.Watched(ctx)
	set.Mark(tmdb.MediaMovie, 42)
	s.SaveWatched(ctx, set)

	reloaded := s.Watched(ctx)
	if !reloaded.IsWatched(tmdb.MediaMovie, 42) {
		t.Fatalf("watched set did not survive a reload")
	}

	// Another session must not see it.
	other := NewStore(mem, "other", "CODE")
	if other.Watched(ctx).IsWatched(tmdb.MediaMovie, 42) {
		t.Fatalf("sessions must be isolated")
	}
}

func TestPreferencesSanitizedPerTier(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	p := s.Preferences(ctx)
	p.Weights[18] = 8 // drama: premium-only genre
	saved := s.SavePreferences(ctx, p)

	if saved.Weights[18] != 0 {
		t.Fatalf("free-tier save must zero premium genres, got %d", saved.Weights[18])
	}

	s.Unlock(ctx, "PREMIUM2026")
	p = s.Preferences(ctx)
	p.Weights[18] = 8
	saved = s.SavePreferences(ctx, p)
	if saved.Weights[18] != 8 {
		t.Fatalf("premium save must keep the full genre set, got %d", saved.Weights[18])
	}
}
