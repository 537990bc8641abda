package tmdb

// MediaType selects the movie or TV side of the catalog API. The two sides
// share numeric ID spaces, so an ID alone never identifies an item.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// Item is one title from a discover, trending or search listing.
type Item struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	GenreIDs     []int   `json:"genre_ids"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
}

// DisplayTitle returns the movie title or, for TV items, the show name.
func (i Item) DisplayTitle() string {
	if i.Title != "" {
		return i.Title
	}
	return i.Name
}

// HasGenre reports whether the item carries the given genre ID.
func (i Item) HasGenre(genreID int) bool {
	for _, g := range i.GenreIDs {
		if g == genreID {
			return true
		}
	}
	return false
}

// Provider is one streaming/rental/purchase source for an item.
type Provider struct {
	ProviderID   int    `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	LogoPath     string `json:"logo_path"`
}

// Availability is the per-region watch-provider breakdown for one item.
// All three lists may be empty; an all-empty value means "not streamable
// here" or "lookup failed", and the pipeline treats both the same way.
type Availability struct {
	Flatrate []Provider `json:"flatrate"`
	Rent     []Provider `json:"rent"`
	Buy      []Provider `json:"buy"`
}

// Empty reports whether no provider of any kind is known.
func (a Availability) Empty() bool {
	return len(a.Flatrate) == 0 && len(a.Rent) == 0 && len(a.Buy) == 0
}

// All returns every provider across flatrate, rent and buy.
func (a Availability) All() []Provider {
	out := make([]Provider, 0, len(a.Flatrate)+len(a.Rent)+len(a.Buy))
	out = append(out, a.Flatrate...)
	out = append(out, a.Rent...)
	out = append(out, a.Buy...)
	return out
}

// ---- TMDB wire shapes (internal, validated at the client boundary) ----

type discoverResponse struct {
	Page         int    `json:"page"`
	Results      []Item `json:"results"`
	TotalPages   int    `json:"total_pages"`
	TotalResults int    `json:"total_results"`
}

type providersResponse struct {
	Results map[string]regionProviders `json:"results"`
}

type regionProviders struct {
	Flatrate []Provider `json:"flatrate"`
	Rent     []Provider `json:"rent"`
	Buy      []Provider `json:"buy"`
}

type providerDirectoryResponse struct {
	Results []Provider `json:"results"`
}

type trendingResponse struct {
	Results []Item `json:"results"`
}
