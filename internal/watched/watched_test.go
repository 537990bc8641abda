package watched

import (
	"encoding/json"
	"testing"

	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/tmdb"
)

func TestMediaTypesDoNotCollide(t *testing.T) {
	s := NewSet()
	s.Mark(tmdb.MediaMovie, 42)

	if !s.IsWatched(tmdb.MediaMovie, 42) {
		t.Fatalf("movie 42 should be watched")
	}
	if s.IsWatched(tmdb.MediaTV, 42) {
		t.Fatalf("tv 42 must be independent of movie 42")
	}
}

func TestMarkIsIdempotent(t *testing.T) {
	s := NewSet()

	if !s.Mark(tmdb.MediaMovie, 100) {
		t.Fatalf("first mark should report a change")
	}
	if s.Mark(tmdb.MediaMovie, 100) {
		t.Fatalf("second mark must be a no-op")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}
}

func TestToggle(t *testing.T) {
	s := NewSet()

	if !s.Toggle(tmdb.MediaTV, 7) {
		t.Fatalf("toggle on absent item should add it")
	}
	if s.Toggle(tmdb.MediaTV, 7) {
		t.Fatalf("toggle on present item should remove it")
	}
	if s.IsWatched(tmdb.MediaTV, 7) {
		t.Fatalf("item should be gone after second toggle")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := NewSet()
	s.Mark(tmdb.MediaMovie, 1)
	s.Mark(tmdb.MediaTV, 1)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	restored := ParseSet(string(data))
	if !restored.IsWatched(tmdb.MediaMovie, 1) || !restored.IsWatched(tmdb.MediaTV, 1) {
		t.Fatalf("round trip lost entries: %s", data)
	}
	if restored.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", restored.Len())
	}
}

func TestParseSetDegradesOnMalformedInput(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"a":1}`, `[1,2,3`} {
		s := ParseSet(raw)
		if s == nil || s.Len() != 0 {
			t.Fatalf("malformed input %q must degrade to an empty set", raw)
		}
	}
}
