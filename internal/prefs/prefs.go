// Package prefs holds the user's selected genre weights, platform filters
// and search toggles. Preferences are serialized to the session store on
// every change and rehydrated at startup; malformed stored data degrades to
// defaults.
package prefs

import (
	"encoding/json"

	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/tmdb"
)

// AnimationGenreID is the catalog's animation genre; the animation toggle
// filters on it explicitly.
const AnimationGenreID = 16

// MaxWeight is the upper bound of a genre slider.
const MaxWeight = 10

// Genre is one selectable genre with its per-media catalog IDs. Movie and
// TV use different ID spaces for some genres.
type Genre struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	MovieID int    `json:"movie_id"`
	TVID    int    `json:"tv_id"`
}

// Genres is the full premium genre table. Weights are keyed by MovieID; use
// GenreIDForMedia to translate for TV queries.
var Genres = []Genre{
	{Key: "comedy", Label: "Comicità", MovieID: 35, TVID: 35},
	{Key: "action", Label: "Azione", MovieID: 28, TVID: 10759},
	{Key: "thriller", Label: "Thriller", MovieID: 53, TVID: 9648},
	{Key: "drama", Label: "Drammatico", MovieID: 18, TVID: 18},
	{Key: "romance", Label: "Romantico", MovieID: 10749, TVID: 10749},
	{Key: "scifi", Label: "Fantascienza", MovieID: 878, TVID: 10765},
	{Key: "horror", Label: "Horror", MovieID: 27, TVID: 27},
	{Key: "fantasy", Label: "Fantasy", MovieID: 14, TVID: 10765},
	{Key: "adventure", Label: "Avventura", MovieID: 12, TVID: 10759},
	{Key: "crime", Label: "Crime", MovieID: 80, TVID: 80},
	{Key: "animation", Label: "Animazione", MovieID: AnimationGenreID, TVID: AnimationGenreID},
}

// FreeGenreIDs is the small subset the free tier may select.
var FreeGenreIDs = map[int]bool{
	35:               true, // comedy
	28:               true, // action
	53:               true, // thriller
	AnimationGenreID: true,
}

// GenreIDForMedia translates a canonical (movie) genre ID to the given
// media type's ID space. Unknown IDs pass through unchanged.
func GenreIDForMedia(movieGenreID int, mediaType tmdb.MediaType) int {
	if mediaType != tmdb.MediaTV {
		return movieGenreID
	}
	for _, g := range Genres {
		if g.MovieID == movieGenreID {
			return g.TVID
		}
	}
	return movieGenreID
}

// Preferences parameterize one ranking run.
type Preferences struct {
	// Weights maps canonical (movie) genre IDs to a weight in [0,MaxWeight].
	Weights map[int]int `json:"weights"`
	// Platforms holds user-facing provider display names, resolved to
	// provider IDs through the catalog's directory at search time.
	Platforms        []string `json:"platforms"`
	OnlineOnly       bool     `json:"online_only"`
	HideWatched      bool     `json:"hide_watched"`
	IncludeAnimation bool     `json:"include_animation"`
}

// Default returns the initial preference state.
func Default() Preferences {
	return Preferences{
		Weights:          map[int]int{},
		OnlineOnly:       true,
		HideWatched:      true,
		IncludeAnimation: true,
	}
}

// SelectedGenreIDs returns the canonical genre IDs with a positive weight.
// Order follows the genre table so the result is deterministic.
func (p Preferences) SelectedGenreIDs() []int {
	var ids []int
	for _, g := range Genres {
		if p.Weights[g.MovieID] > 0 {
			ids = append(ids, g.MovieID)
		}
	}
	return ids
}

// SanitizeForTier clamps weights into range and, for the free tier, zeroes
// genres outside the free subset and forces hide-watched on.
func (p *Preferences) SanitizeForTier(premium bool) {
	if p.Weights == nil {
		p.Weights = map[int]int{}
	}
	for id, w := range p.Weights {
		if w < 0 {
			w = 0
		}
		if w > MaxWeight {
			w = MaxWeight
		}
		if !premium && !FreeGenreIDs[id] {
			w = 0
		}
		p.Weights[id] = w
	}
	if !premium {
		p.HideWatched = true
	}
}

// Key is a stable identity for the preference state, used to detect changes
// between "load more" invocations.
func (p Preferences) Key() string {
	// Canonical key via the genre table keeps map iteration order out of it.
	type keyed struct {
		Weights          []int    `json:"w"`
		Platforms        []string `json:"p"`
		OnlineOnly       bool     `json:"o"`
		HideWatched      bool     `json:"h"`
		IncludeAnimation bool     `json:"a"`
	}
	k := keyed{
		Platforms:        p.Platforms,
		OnlineOnly:       p.OnlineOnly,
		HideWatched:      p.HideWatched,
		IncludeAnimation: p.IncludeAnimation,
	}
	for _, g := range Genres {
		k.Weights = append(k.Weights, p.Weights[g.MovieID])
	}
	data, _ := json.Marshal(k)
	return string(data)
}

// Parse decodes stored preferences, degrading to Default on malformed or
// empty input.
func Parse(raw string) Preferences {
	if raw == "" {
		return Default()
	}
	p := Default()
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Default()
	}
	if p.Weights == nil {
		p.Weights = map[int]int{}
	}
	return p
}
