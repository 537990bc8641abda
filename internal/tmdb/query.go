package tmdb

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// releaseWindowYears bounds discovery to recent titles; very old catalog
// entries rarely make useful recommendations.
const releaseWindowYears = 12

// DiscoverQuery describes one discovery search. The zero value is a valid
// "most popular, any genre" query.
type DiscoverQuery struct {
	MediaType MediaType
	// GenreIDs are OR-joined: an item matches when it carries any of them.
	GenreIDs []int
	// ExcludeGenreIDs are passed as without_genres.
	ExcludeGenreIDs []int
	// OnlineOnly restricts to subscription streaming in the watch region
	// and, when ProviderIDs is non-empty, to those providers (OR-joined).
	OnlineOnly  bool
	ProviderIDs []int
	// MinVoteCount filters out items with too few ratings to score reliably.
	MinVoteCount int
	// RecentOnly bounds the release date to the last releaseWindowYears.
	RecentOnly bool
}

// Path returns the discovery endpoint path for the query's media type.
func (q DiscoverQuery) Path() string {
	if q.MediaType == MediaTV {
		return "/discover/tv"
	}
	return "/discover/movie"
}

// Encode builds the query string for one page. Adult content is always
// excluded and results are always ordered by descending popularity; region
// and language come from the deployment's locale.
func (q DiscoverQuery) Encode(apiKey, language, region string, page int) string {
	v := url.Values{}
	v.Set("api_key", apiKey)
	v.Set("language", language)
	v.Set("include_adult", "false")
	v.Set("sort_by", "popularity.desc")
	v.Set("page", strconv.Itoa(page))

	if len(q.GenreIDs) > 0 {
		v.Set("with_genres", joinIDs(q.GenreIDs))
	}
	if len(q.ExcludeGenreIDs) > 0 {
		v.Set("without_genres", joinIDs(q.ExcludeGenreIDs))
	}

	if q.OnlineOnly {
		v.Set("watch_region", region)
		v.Set("with_watch_monetization_types", "flatrate")
		if len(q.ProviderIDs) > 0 {
			v.Set("with_watch_providers", joinIDs(q.ProviderIDs))
		}
	}

	if q.MinVoteCount > 0 {
		v.Set("vote_count.gte", strconv.Itoa(q.MinVoteCount))
	}

	if q.RecentOnly {
		year := time.Now().Year()
		from := fmt.Sprintf("%d-01-01", year-releaseWindowYears)
		to := fmt.Sprintf("%d-12-31", year)
		if q.MediaType == MediaTV {
			v.Set("first_air_date.gte", from)
			v.Set("first_air_date.lte", to)
		} else {
			v.Set("primary_release_date.gte", from)
			v.Set("primary_release_date.lte", to)
		}
	}

	return v.Encode()
}

// Key is a stable identity for the query, used to detect preference changes
// between "load more" invocations.
func (q DiscoverQuery) Key() string {
	return strings.Join([]string{
		string(q.MediaType),
		joinIDs(q.GenreIDs),
		joinIDs(q.ExcludeGenreIDs),
		strconv.FormatBool(q.OnlineOnly),
		joinIDs(q.ProviderIDs),
		strconv.Itoa(q.MinVoteCount),
		strconv.FormatBool(q.RecentOnly),
	}, "/")
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "|")
}
