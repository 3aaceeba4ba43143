package netinfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, Token: "tok"}, nil)
	require.NoError(t, err)
	return c, &calls
}

func TestLookupPrivacyFlags(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/203.0.113.9", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		_, _ = w.Write([]byte(`{"ip":"203.0.113.9","country":"jp","privacy":{"vpn":false,"proxy":true,"tor":false}}`))
	})

	info := c.Lookup(context.Background(), "203.0.113.9")
	assert.Equal(t, "JP", info.Country)
	assert.True(t, info.Anonymized)
	assert.Equal(t, "ipinfo", info.Source)
}

func TestLookupCachesResult(t *testing.T) {
	c, calls := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"country":"US"}`))
	})

	for i := 0; i < 3; i++ {
		info := c.Lookup(context.Background(), "198.51.100.1")
		assert.Equal(t, "US", info.Country)
		assert.False(t, info.Anonymized)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestLookupFailureFallsBack(t *testing.T) {
	c, calls := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	info := c.Lookup(context.Background(), "198.51.100.1")
	assert.Equal(t, UnknownCountry, info.Country)
	assert.False(t, info.Anonymized)

	c.Lookup(context.Background(), "198.51.100.1")
	assert.Equal(t, int32(2), atomic.LoadInt32(calls), "failures must not be cached")
}

func TestLookupIgnoresCallerCancellation(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"country":"JP"}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	info := c.Lookup(ctx, "203.0.113.9")
	assert.Equal(t, "ipinfo", info.Source)
	assert.Equal(t, "JP", info.Country)
}

func TestLookupEvictsExpiredEntries(t *testing.T) {
	c, calls := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"country":"US"}`))
	})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Lookup(context.Background(), "198.51.100.1")
	_, ok := c.cache.Load("198.51.100.1")
	require.True(t, ok)

	now = now.Add(c.cacheTTL + time.Second)
	c.Lookup(context.Background(), "198.51.100.2")

	_, ok = c.cache.Load("198.51.100.1")
	assert.False(t, ok, "expired entry should be swept")
	_, ok = c.cache.Load("198.51.100.2")
	assert.True(t, ok)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestMissingGeoIPDatabase(t *testing.T) {
	_, err := New(Options{GeoIPPath: t.TempDir() + "/missing.mmdb"}, nil)
	assert.Error(t, err)
}
