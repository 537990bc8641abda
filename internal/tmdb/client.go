package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	availabilityCacheTTL = 30 * time.Minute
	directoryCacheTTL    = 24 * time.Hour
)

// Client is the TMDB API client. It is a pure I/O adapter: no retries, no
// business logic. Availability and provider-directory lookups are
// best-effort and degrade to empty values instead of returning errors.
type Client struct {
	apiKey   string
	baseURL  string
	language string
	region   string
	http     *http.Client
	redis    *redis.Client
}

// NewClient creates a new TMDB API client. rdb may be nil; lookups are then
// uncached.
func NewClient(apiKey, baseURL, language, region string, rdb *redis.Client) *Client {
	return &Client{
		apiKey:   apiKey,
		baseURL:  baseURL,
		language: language,
		region:   region,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		redis: rdb,
	}
}

// Region returns the watch region the client was configured with.
func (c *Client) Region() string { return c.region }

// DiscoverPage fetches one 1-based page of a discovery query. It returns the
// page's items and the total page count reported by the catalog. Failures
// are returned as *TransportError or *DecodeError; the caller decides how
// much of its batch to abort.
func (c *Client) DiscoverPage(ctx context.Context, q DiscoverQuery, page int) ([]Item, int, error) {
	endpoint := q.Path()
	url := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, q.Encode(c.apiKey, c.language, c.region, page))

	slog.Debug("fetching TMDB discover page", "media_type", q.MediaType, "page", page)
	var result discoverResponse
	if err := c.getJSON(ctx, endpoint, url, &result); err != nil {
		return nil, 0, err
	}
	return result.Results, result.TotalPages, nil
}

// FetchAvailability fetches the watch-provider listing for one item in the
// configured region. Availability is enrichment, not essential data: any
// failure degrades to an empty Availability.
func (c *Client) FetchAvailability(ctx context.Context, mediaType MediaType, id int) Availability {
	cacheKey := fmt.Sprintf("tmdb:providers:%s:%d", mediaType, id)
	if cached, ok := c.getCache(ctx, cacheKey); ok {
		var a Availability
		if json.Unmarshal([]byte(cached), &a) == nil {
			return a
		}
	}

	endpoint := fmt.Sprintf("/%s/%d/watch/providers", mediaType, id)
	url := fmt.Sprintf("%s%s?api_key=%s", c.baseURL, endpoint, c.apiKey)

	var result providersResponse
	if err := c.getJSON(ctx, endpoint, url, &result); err != nil {
		slog.Debug("availability lookup failed, degrading to empty", "media_type", mediaType, "id", id, "error", err)
		return Availability{}
	}

	region := result.Results[c.region]
	a := Availability{
		Flatrate: region.Flatrate,
		Rent:     region.Rent,
		Buy:      region.Buy,
	}

	if data, err := json.Marshal(a); err == nil {
		c.setCache(ctx, cacheKey, string(data), availabilityCacheTTL)
	}
	return a
}

// ProvidersByName fetches the region's provider directory and returns a
// display-name to provider-ID mapping. On failure it returns an empty map;
// callers degrade to "no platform filter".
func (c *Client) ProvidersByName(ctx context.Context) map[string]int {
	cacheKey := "tmdb:provider_directory:" + c.region
	if cached, ok := c.getCache(ctx, cacheKey); ok {
		var m map[string]int
		if json.Unmarshal([]byte(cached), &m) == nil {
			return m
		}
	}

	endpoint := "/watch/providers/movie"
	url := fmt.Sprintf("%s%s?api_key=%s&watch_region=%s", c.baseURL, endpoint, c.apiKey, c.region)

	var result providerDirectoryResponse
	if err := c.getJSON(ctx, endpoint, url, &result); err != nil {
		slog.Warn("provider directory lookup failed", "region", c.region, "error", err)
		return map[string]int{}
	}

	m := make(map[string]int, len(result.Results))
	for _, p := range result.Results {
		if p.ProviderName != "" && p.ProviderID != 0 {
			m[p.ProviderName] = p.ProviderID
		}
	}

	if data, err := json.Marshal(m); err == nil {
		c.setCache(ctx, cacheKey, string(data), directoryCacheTTL)
	}
	return m
}

// TrendingMovies fetches this week's trending movie listing.
func (c *Client) TrendingMovies(ctx context.Context) ([]Item, error) {
	endpoint := "/trending/movie/week"
	url := fmt.Sprintf("%s%s?api_key=%s&language=%s", c.baseURL, endpoint, c.apiKey, c.language)

	slog.Debug("fetching TMDB trending movies")
	var result trendingResponse
	if err := c.getJSON(ctx, endpoint, url, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// ---- Redis helpers ----

func (c *Client) getCache(ctx context.Context, key string) (string, bool) {
	if c.redis == nil {
		return "", false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *Client) setCache(ctx context.Context, key, value string, ttl time.Duration) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Error("failed to set cache", "key", key, "error", err)
	}
}
