package tmdb

import (
	"fmt"
	"net/url"
	"strconv"
	"testing"
	"time"
)

func mustParseQuery(t *testing.T, encoded string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(encoded)
	if err != nil {
		t.Fatalf("encoded query does not parse: %v", err)
	}
	return v
}

func TestEncodePinnedParams(t *testing.T) {
	v := mustParseQuery(t, DiscoverQuery{}.Encode("key", "it-IT", "IT", 2))

	for param, want := range map[string]string{
		"api_key":       "key",
		"language":      "it-IT",
		"include_adult": "false",
		"sort_by":       "popularity.desc",
		"page":          "2",
	} {
		if got := v.Get(param); got != want {
			t.Errorf("%s: expected %q, got %q", param, want, got)
		}
	}

	// The zero query adds no filters.
	for _, param := range []string{"with_genres", "without_genres", "watch_region", "with_watch_providers", "vote_count.gte"} {
		if v.Has(param) {
			t.Errorf("zero query must not set %s", param)
		}
	}
}

func TestEncodeGenresAreORJoined(t *testing.T) {
	q := DiscoverQuery{GenreIDs: []int{35, 28, 53}, ExcludeGenreIDs: []int{16}}
	v := mustParseQuery(t, q.Encode("key", "it-IT", "IT", 1))

	if got := v.Get("with_genres"); got != "35|28|53" {
		t.Fatalf("with_genres: expected pipe-joined IDs, got %q", got)
	}
	if got := v.Get("without_genres"); got != "16" {
		t.Fatalf("without_genres: expected 16, got %q", got)
	}
}

func TestEncodeOnlineOnly(t *testing.T) {
	q := DiscoverQuery{OnlineOnly: true, ProviderIDs: []int{8, 337}}
	v := mustParseQuery(t, q.Encode("key", "it-IT", "IT", 1))

	if got := v.Get("watch_region"); got != "IT" {
		t.Fatalf("watch_region: got %q", got)
	}
	if got := v.Get("with_watch_monetization_types"); got != "flatrate" {
		t.Fatalf("monetization: got %q", got)
	}
	if got := v.Get("with_watch_providers"); got != "8|337" {
		t.Fatalf("providers: got %q", got)
	}

	// Providers without the online-only flag are ignored.
	offline := mustParseQuery(t, DiscoverQuery{ProviderIDs: []int{8}}.Encode("key", "it-IT", "IT", 1))
	if offline.Has("with_watch_providers") || offline.Has("watch_region") {
		t.Fatalf("provider filter must require online-only")
	}
}

func TestEncodeRecentWindowPerMediaType(t *testing.T) {
	year := time.Now().Year()
	wantFrom := fmt.Sprintf("%d-01-01", year-releaseWindowYears)
	wantTo := fmt.Sprintf("%d-12-31", year)

	movie := mustParseQuery(t, DiscoverQuery{RecentOnly: true}.Encode("key", "it-IT", "IT", 1))
	if got := movie.Get("primary_release_date.gte"); got != wantFrom {
		t.Errorf("movie from: expected %q, got %q", wantFrom, got)
	}
	if got := movie.Get("primary_release_date.lte"); got != wantTo {
		t.Errorf("movie to: expected %q, got %q", wantTo, got)
	}

	tv := mustParseQuery(t, DiscoverQuery{MediaType: MediaTV, RecentOnly: true}.Encode("key", "it-IT", "IT", 1))
	if got := tv.Get("first_air_date.gte"); got != wantFrom {
		t.Errorf("tv from: expected %q, got %q", wantFrom, got)
	}
	if tv.Has("primary_release_date.gte") {
		t.Errorf("tv queries must not carry movie date bounds")
	}
}

func TestEncodeMinVoteCount(t *testing.T) {
	v := mustParseQuery(t, DiscoverQuery{MinVoteCount: 50}.Encode("key", "it-IT", "IT", 1))
	if got := v.Get("vote_count.gte"); got != strconv.Itoa(50) {
		t.Fatalf("vote_count.gte: got %q", got)
	}
}

func TestPathPerMediaType(t *testing.T) {
	if got := (DiscoverQuery{}).Path(); got != "/discover/movie" {
		t.Fatalf("default path: got %q", got)
	}
	if got := (DiscoverQuery{MediaType: MediaTV}).Path(); got != "/discover/tv" {
		t.Fatalf("tv path: got %q", got)
	}
}

func TestKeyDistinguishesQueries(t *testing.T) {
	base := DiscoverQuery{MediaType: MediaMovie, GenreIDs: []int{35}}

	same := DiscoverQuery{MediaType: MediaMovie, GenreIDs: []int{35}}
	if base.Key() != same.Key() {
		t.Fatalf("identical queries must share a key")
	}

	for name, changed := range map[string]DiscoverQuery{
		"genres":    {MediaType: MediaMovie, GenreIDs: []int{35, 28}},
		"media":     {MediaType: MediaTV, GenreIDs: []int{35}},
		"online":    {MediaType: MediaMovie, GenreIDs: []int{35}, OnlineOnly: true},
		"providers": {MediaType: MediaMovie, GenreIDs: []int{35}, ProviderIDs: []int{8}},
	} {
		if base.Key() == changed.Key() {
			t.Errorf("%s change must change the key", name)
		}
	}
}
