// Package timezone derives IANA timezone names from coordinates through an
// external lookup service. The service is optional, callers must check
// IsConfigured before use.
package timezone

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/showgrid/showgrid-go/internal/conf"
	"github.com/showgrid/showgrid-go/internal/errors"
	"github.com/showgrid/showgrid-go/internal/httpclient"
	"github.com/showgrid/showgrid-go/internal/logging"
)

// serviceLogger resolves the timezone logger at client construction time,
// after logging.Init has run. Falls back to a discard logger when logging is
// not initialized, as in tests.
func serviceLogger() *slog.Logger {
	if l := logging.ForService("timezone"); l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil)).With("service", "timezone")
}

// Config holds timezone lookup client configuration.
type Config struct {
	Enabled  bool
	Endpoint string
	Timeout  time.Duration

	// Transport overrides the HTTP transport, tests install httpmock here.
	Transport http.RoundTripper
}

// DefaultConfig returns the default timezone lookup configuration.
func DefaultConfig() Config {
	return Config{
		Endpoint: "https://timeapi.io/api/TimeZone/coordinate",
		Timeout:  10 * time.Second,
	}
}

// ConfigFromSettings builds a Config from loaded application settings.
func ConfigFromSettings(settings *conf.Settings) Config {
	return Config{
		Enabled:  settings.Timezone.Enabled,
		Endpoint: settings.Timezone.Endpoint,
		Timeout:  settings.Timezone.Timeout,
	}
}

// Client looks up IANA timezone names for coordinates.
type Client struct {
	config     Config
	httpClient *httpclient.Client
	log        *slog.Logger
}

// NewClient creates a new timezone lookup client.
func NewClient(config Config) *Client {
	if config.Endpoint == "" {
		config.Endpoint = DefaultConfig().Endpoint
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	return &Client{
		config: config,
		httpClient: httpclient.New(&httpclient.Config{
			DefaultTimeout: config.Timeout,
			Transport:      config.Transport,
		}),
		log: serviceLogger(),
	}
}

// IsConfigured reports whether the lookup service is enabled and usable.
func (c *Client) IsConfigured() bool {
	return c != nil && c.config.Enabled && c.config.Endpoint != ""
}

// lookupResponse is the relevant part of the service response.
type lookupResponse struct {
	TimeZone string `json:"timeZone"`
}

// Lookup resolves coordinates to an IANA timezone name.
func (c *Client) Lookup(ctx context.Context, lat, lng float64) (string, error) {
	if !c.IsConfigured() {
		return "", errors.Newf("timezone lookup client is not configured").
			Category(errors.CategoryConfiguration).
			Build()
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', 6, 64))
	requestURL := c.config.Endpoint + "?" + params.Encode()

	start := time.Now()
	resp, err := c.httpClient.Get(ctx, requestURL)
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategoryTimezoneLookup).
			NetworkContext(c.config.Endpoint, c.config.Timeout).
			Timing("timezone-lookup", time.Since(start)).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("timezone lookup returned status %d", resp.StatusCode).
			Category(errors.CategoryTimezoneLookup).
			Context("status_code", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategoryTimezoneLookup).
			Context("operation", "read-response").
			Build()
	}

	var result lookupResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", errors.New(err).
			Category(errors.CategoryTimezoneLookup).
			Context("operation", "unmarshal-response").
			Build()
	}

	if result.TimeZone == "" {
		return "", errors.Newf("timezone lookup returned empty timezone").
			Category(errors.CategoryTimezoneLookup).
			Build()
	}

	c.log.Debug("timezone lookup succeeded",
		"lat", lat,
		"lng", lng,
		"timezone", result.TimeZone,
		"duration_ms", time.Since(start).Milliseconds())

	return result.TimeZone, nil
}

// Close releases the underlying HTTP connection pool.
func (c *Client) Close() {
	if c != nil && c.httpClient != nil {
		c.httpClient.Close()
	}
}
