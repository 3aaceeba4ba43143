// Package netinfo resolves the country and anonymizer status of a client
// address.
package netinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL   = "https://ipinfo.io"
	UnknownCountry   = "unknown"
	maxResponseBytes = 64 << 10
)

type Info struct {
	IP         string
	Country    string
	Anonymized bool
	Source     string
}

type ipinfoResponse struct {
	IP      string `json:"ip"`
	Country string `json:"country"`
	Privacy struct {
		VPN   bool `json:"vpn"`
		Proxy bool `json:"proxy"`
		Tor   bool `json:"tor"`
	} `json:"privacy"`
}

type cacheEntry struct {
	info    Info
	expires time.Time
}

type Options struct {
	BaseURL   string
	Token     string
	GeoIPPath string
	CacheTTL  time.Duration
	Timeout   time.Duration
}

type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	geo      *geoip2.Reader
	timeout  time.Duration
	cacheTTL time.Duration
	cache    sync.Map
	group    singleflight.Group
	logger   *zap.Logger
	now      func() time.Time

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// New builds a client. A GeoIPPath that cannot be opened is an error; an
// empty one disables the offline fallback.
func New(opts Options, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}

	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		token:    opts.Token,
		http:     &http.Client{Timeout: opts.Timeout},
		timeout:  opts.Timeout,
		cacheTTL: opts.CacheTTL,
		logger:   logger,
		now:      time.Now,
	}
	if opts.GeoIPPath != "" {
		reader, err := geoip2.Open(opts.GeoIPPath)
		if err != nil {
			return nil, fmt.Errorf("open geoip database: %w", err)
		}
		c.geo = reader
	}
	return c, nil
}

func (c *Client) Close() error {
	if c.geo != nil {
		return c.geo.Close()
	}
	return nil
}

// Lookup never fails. When ipinfo is unreachable the country comes from the
// GeoIP database, and failing that it is "unknown" with no anonymizer flag.
//
// Concurrent lookups of one address share a single fetch. That fetch keeps
// the caller's values but not its cancellation, so one caller giving up does
// not fail the others.
func (c *Client) Lookup(ctx context.Context, ip string) Info {
	now := c.now()
	c.sweep(now)
	if entry, ok := c.cache.Load(ip); ok {
		cached := entry.(cacheEntry)
		if now.Before(cached.expires) {
			return cached.info
		}
		c.cache.CompareAndDelete(ip, entry)
	}

	result, _, _ := c.group.Do(ip, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		info, err := c.fetch(fetchCtx, ip)
		if err != nil {
			c.logger.Warn("ipinfo lookup failed", zap.String("ip", ip), zap.Error(err))
			return Info{IP: ip, Country: c.geoCountry(ip), Source: "geoip"}, nil
		}
		if info.Country == "" {
			info.Country = c.geoCountry(ip)
		}
		c.cache.Store(ip, cacheEntry{info: info, expires: now.Add(c.cacheTTL)})
		return info, nil
	})
	return result.(Info)
}

// sweep drops expired entries at most once per cache TTL so addresses that
// are never looked up again do not accumulate.
func (c *Client) sweep(now time.Time) {
	c.sweepMu.Lock()
	if now.Sub(c.lastSweep) < c.cacheTTL {
		c.sweepMu.Unlock()
		return
	}
	c.lastSweep = now
	c.sweepMu.Unlock()

	c.cache.Range(func(key, value any) bool {
		if !now.Before(value.(cacheEntry).expires) {
			c.cache.CompareAndDelete(key, value)
		}
		return true
	})
}

func (c *Client) fetch(ctx context.Context, ip string) (Info, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(ip)
	if c.token != "" {
		endpoint += "?token=" + url.QueryEscape(c.token)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Info{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Info{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("ipinfo status %d", resp.StatusCode)
	}

	var body ipinfoResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return Info{}, fmt.Errorf("decode ipinfo response: %w", err)
	}
	return Info{
		IP:         ip,
		Country:    strings.ToUpper(body.Country),
		Anonymized: body.Privacy.VPN || body.Privacy.Proxy || body.Privacy.Tor,
		Source:     "ipinfo",
	}, nil
}

func (c *Client) geoCountry(ip string) string {
	if c.geo == nil {
		return UnknownCountry
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return UnknownCountry
	}
	record, err := c.geo.Country(parsed)
	if err != nil || record.Country.IsoCode == "" {
		return UnknownCountry
	}
	return record.Country.IsoCode
}
