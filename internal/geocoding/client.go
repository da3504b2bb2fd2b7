// Package geocoding resolves postal addresses to coordinates through a
// Nominatim-compatible search endpoint. Results are cached so repeated venue
// merge cycles do not re-hit the API.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/showgrid/showgrid-go/internal/conf"
	"github.com/showgrid/showgrid-go/internal/errors"
	"github.com/showgrid/showgrid-go/internal/httpclient"
	"github.com/showgrid/showgrid-go/internal/logging"
)

// serviceLogger resolves the geocoding logger at client construction time,
// after logging.Init has run. Falls back to a discard logger when logging is
// not initialized, as in tests.
func serviceLogger() *slog.Logger {
	if l := logging.ForService("geocoding"); l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil)).With("service", "geocoding")
}

// ErrNoResults indicates the service returned an empty result set for a query.
var ErrNoResults = errors.NewStd("no geocoding results")

// Config holds geocoding client configuration.
type Config struct {
	Enabled  bool
	Endpoint string
	Email    string
	Timeout  time.Duration
	CacheTTL time.Duration

	// Transport overrides the HTTP transport, tests install httpmock here.
	Transport http.RoundTripper
}

// DefaultConfig returns the default geocoding configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Endpoint: "https://nominatim.openstreetmap.org",
		Timeout:  10 * time.Second,
		CacheTTL: 24 * time.Hour,
	}
}

// ConfigFromSettings builds a Config from loaded application settings.
func ConfigFromSettings(settings *conf.Settings) Config {
	return Config{
		Enabled:  settings.Geocoding.Enabled,
		Endpoint: settings.Geocoding.Endpoint,
		Email:    settings.Geocoding.Email,
		Timeout:  settings.Geocoding.Timeout,
		CacheTTL: settings.Geocoding.CacheTTL,
	}
}

// Coordinates is a geocoding result.
type Coordinates struct {
	Lat float64
	Lng float64
}

// String renders coordinates in the "lat,lng" form stored on venues.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// Client is a Nominatim-style geocoding client with a TTL result cache.
type Client struct {
	config     Config
	httpClient *httpclient.Client
	cache      *cache.Cache
	log        *slog.Logger
}

// NewClient creates a new geocoding client.
func NewClient(config Config) *Client {
	if config.Endpoint == "" {
		config.Endpoint = DefaultConfig().Endpoint
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultConfig().CacheTTL
	}

	client := &Client{
		config: config,
		httpClient: httpclient.New(&httpclient.Config{
			DefaultTimeout: config.Timeout,
			Transport:      config.Transport,
		}),
		cache: cache.New(config.CacheTTL, config.CacheTTL*2),
		log:   serviceLogger(),
	}

	client.log.Info("geocoding client initialized",
		"endpoint", config.Endpoint,
		"cache_ttl", config.CacheTTL,
		"enabled", config.Enabled)

	return client
}

// IsConfigured reports whether the client is enabled and usable.
func (c *Client) IsConfigured() bool {
	return c != nil && c.config.Enabled && c.config.Endpoint != ""
}

// nominatimResult is a single entry of the search response.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search resolves a free-text address query to coordinates.
// Results, including the query itself, are cached for CacheTTL.
func (c *Client) Search(ctx context.Context, query string) (Coordinates, error) {
	if !c.IsConfigured() {
		return Coordinates{}, errors.Newf("geocoding client is not configured").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if query == "" {
		return Coordinates{}, errors.Newf("empty geocoding query").
			Category(errors.CategoryValidation).
			Build()
	}

	if cached, found := c.cache.Get(query); found {
		c.log.Debug("geocoding cache hit", "query", query)
		return cached.(Coordinates), nil
	}

	requestURL := c.buildSearchURL(query)

	start := time.Now()
	resp, err := c.httpClient.Get(ctx, requestURL)
	if err != nil {
		return Coordinates{}, errors.New(err).
			Category(errors.CategoryGeocoding).
			NetworkContext(c.config.Endpoint, c.config.Timeout).
			Timing("geocode-search", time.Since(start)).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, errors.Newf("geocoding request returned status %d", resp.StatusCode).
			Category(errors.CategoryGeocoding).
			Context("status_code", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Coordinates{}, errors.New(err).
			Category(errors.CategoryGeocoding).
			Context("operation", "read-response").
			Build()
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Coordinates{}, errors.New(err).
			Category(errors.CategoryGeocoding).
			Context("operation", "unmarshal-response").
			Build()
	}

	if len(results) == 0 {
		return Coordinates{}, errors.New(ErrNoResults).
			Category(errors.CategoryGeocoding).
			Context("query", query).
			Build()
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, errors.Newf("malformed latitude %q: %w", results[0].Lat, err).
			Category(errors.CategoryGeocoding).
			Build()
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, errors.Newf("malformed longitude %q: %w", results[0].Lon, err).
			Category(errors.CategoryGeocoding).
			Build()
	}

	coords := Coordinates{Lat: lat, Lng: lng}
	c.cache.Set(query, coords, cache.DefaultExpiration)

	c.log.Debug("geocoding search succeeded",
		"query", query,
		"lat", lat,
		"lng", lng,
		"duration_ms", time.Since(start).Milliseconds())

	return coords, nil
}

// buildSearchURL assembles the search request URL for a query.
func (c *Client) buildSearchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	if c.config.Email != "" {
		params.Set("email", c.config.Email)
	}
	return fmt.Sprintf("%s/search?%s", c.config.Endpoint, params.Encode())
}

// Close releases the underlying HTTP connection pool.
func (c *Client) Close() {
	if c != nil && c.httpClient != nil {
		c.httpClient.Close()
	}
}
