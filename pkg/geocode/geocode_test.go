package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodeParsesResponse(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, "325 N St Paul St, Dallas, TX", r.URL.Query().Get("q"))
		w.Write([]byte(`[{"lat":"32.7815","lon":"-96.7978","display_name":"325 N St Paul St, Dallas"}]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithUserAgent("test-agent"))
	r, err := c.Geocode(context.Background(), "325 N St Paul St, Dallas, TX")
	require.NoError(t, err)

	assert.True(t, r.Matched)
	assert.InDelta(t, 32.7815, r.Latitude, 1e-9)
	assert.InDelta(t, -96.7978, r.Longitude, 1e-9)
	assert.Equal(t, "test-agent", gotUA)
}

func TestGeocodeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	r, err := c.Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.False(t, r.Matched)
}

func TestGeocodeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Geocode(context.Background(), "somewhere")
	require.Error(t, err)
}

type countingClient struct {
	calls  int
	result *Result
}

func (c *countingClient) Geocode(ctx context.Context, address string) (*Result, error) {
	c.calls++
	return c.result, nil
}

func newTestCache(t *testing.T, inner Client, ttl time.Duration) *CachedClient {
	t.Helper()
	c, err := NewCachedClient(inner, filepath.Join(t.TempDir(), "geocodes.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCachedClientGeocodesOnce(t *testing.T) {
	inner := &countingClient{result: &Result{Latitude: 32.78, Longitude: -96.80, Matched: true}}
	c := newTestCache(t, inner, 30*24*time.Hour)
	ctx := context.Background()

	first, err := c.Geocode(ctx, "325 N St Paul St")
	require.NoError(t, err)
	second, err := c.Geocode(ctx, "325 N St Paul St")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first.Latitude, second.Latitude)
}

func TestCachedClientNormalizesAddress(t *testing.T) {
	inner := &countingClient{result: &Result{Latitude: 32.78, Matched: true}}
	c := newTestCache(t, inner, time.Hour)
	ctx := context.Background()

	_, err := c.Geocode(ctx, "325 N St Paul St")
	require.NoError(t, err)
	_, err = c.Geocode(ctx, "  325  n st PAUL st ")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
}

func TestCachedClientCachesNonMatches(t *testing.T) {
	inner := &countingClient{result: &Result{Matched: false}}
	c := newTestCache(t, inner, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r, err := c.Geocode(ctx, "unresolvable address")
		require.NoError(t, err)
		assert.False(t, r.Matched)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedClientExpiry(t *testing.T) {
	inner := &countingClient{result: &Result{Latitude: 32.78, Matched: true}}
	c := newTestCache(t, inner, time.Nanosecond)
	ctx := context.Background()

	_, err := c.Geocode(ctx, "325 N St Paul St")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = c.Geocode(ctx, "325 N St Paul St")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}
