package timezone

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showgrid/showgrid-go/internal/errors"
)

const testEndpoint = "https://tz.test/api/TimeZone/coordinate"

func newTestClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()

	transport := httpmock.NewMockTransport()
	client := NewClient(Config{
		Enabled:   true,
		Endpoint:  testEndpoint,
		Timeout:   2 * time.Second,
		Transport: transport,
	})
	t.Cleanup(client.Close)
	return client, transport
}

func TestLookup_Success(t *testing.T) {
	client, transport := newTestClient(t)

	transport.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"timeZone": "America/Chicago"}`))

	tz, err := client.Lookup(context.Background(), 30.267153, -97.743057)
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", tz)
}

func TestLookup_HTTPError(t *testing.T) {
	client, transport := newTestClient(t)

	transport.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(http.StatusInternalServerError, `oops`))

	_, err := client.Lookup(context.Background(), 30.0, -97.0)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryTimezoneLookup))
}

func TestLookup_EmptyTimezone(t *testing.T) {
	client, transport := newTestClient(t)

	transport.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"timeZone": ""}`))

	_, err := client.Lookup(context.Background(), 30.0, -97.0)
	require.Error(t, err)
}

func TestLookup_MalformedResponse(t *testing.T) {
	client, transport := newTestClient(t)

	transport.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `not json`))

	_, err := client.Lookup(context.Background(), 30.0, -97.0)
	require.Error(t, err)
}

func TestLookup_NotConfigured(t *testing.T) {
	client := NewClient(Config{Enabled: false})
	defer client.Close()

	_, err := client.Lookup(context.Background(), 30.0, -97.0)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestIsConfigured(t *testing.T) {
	var nilClient *Client
	assert.False(t, nilClient.IsConfigured())

	client, _ := newTestClient(t)
	assert.True(t, client.IsConfigured())
}
