// Package liveness re-checks the URLs a record's verification rests on:
// evidence sources and the place website. It only refreshes provenance
// timestamps; trust tiers never change based on a fetch.
package liveness

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/badjoke-lab/cryptopaymap/internal/cache"
	"github.com/badjoke-lab/cryptopaymap/internal/model"
	"github.com/badjoke-lab/cryptopaymap/internal/worker"
)

const maxRetries = 3

// CheckResult is the outcome of one URL probe.
type CheckResult struct {
	URL         string    `json:"url"`
	Alive       bool      `json:"alive"`
	StatusCode  int       `json:"status_code,omitempty"`
	RedirectURL string    `json:"redirect_url,omitempty"`
	Blocked     bool      `json:"blocked,omitempty"` // robots.txt disallowed
	Error       string    `json:"error,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Checker probes URLs with HEAD requests, honoring per-domain rate limits
// and robots.txt, with a cache so re-runs skip recently checked hosts.
type Checker struct {
	client    *http.Client
	limiter   *worker.Limiter
	robots    *Robots
	cache     cache.Cache
	userAgent string
	sleep     func(time.Duration)
	now       func() time.Time
}

// NewChecker builds a checker from the HTTP config. store may be nil to
// disable caching.
func NewChecker(cfg model.HTTPConfig, store cache.Cache) *Checker {
	return &Checker{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: newProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		limiter:   worker.NewLimiter(cfg.RatePerSec, cfg.RateBurst),
		robots:    NewRobots(cfg.UserAgent, cfg.Timeout),
		cache:     store,
		userAgent: cfg.UserAgent,
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// Check probes one URL, consulting the cache first.
func (c *Checker) Check(ctx context.Context, rawURL string) CheckResult {
	if c.cache != nil {
		if data, found := c.cache.Get(cache.CacheKey(rawURL)); found {
			var cached CheckResult
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached
			}
		}
	}

	result := c.checkWithRetry(ctx, rawURL)

	if c.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = c.cache.Set(cache.CacheKey(rawURL), data, 0)
		}
	}
	return result
}

// CheckRecord probes the record's website and every sourced URL, stamping
// verification.last_checked when all probes complete. Unreachable sources
// are marked dead on the record; a source that comes back is unmarked. It
// returns the number of dead URLs found.
func (c *Checker) CheckRecord(ctx context.Context, rec *model.PlaceRecord) (int, []CheckResult) {
	dead := 0
	var results []CheckResult

	if rec.Website != "" {
		res := c.Check(ctx, rec.Website)
		results = append(results, res)
		if !res.Alive && !res.Blocked {
			dead++
		}
	}

	for i := range rec.Verification.Sources {
		src := &rec.Verification.Sources[i]
		if src.URL == "" {
			continue
		}
		res := c.Check(ctx, src.URL)
		results = append(results, res)
		switch {
		case res.Alive:
			src.Dead = false
		case !res.Blocked:
			src.Dead = true
			dead++
		}
	}

	at := c.now().UTC()
	rec.Verification.LastChecked = &at
	return dead, results
}

func (c *Checker) checkWithRetry(ctx context.Context, rawURL string) CheckResult {
	var result CheckResult
	for attempt := 0; attempt < maxRetries; attempt++ {
		result = c.checkOnce(ctx, rawURL)
		if !retryable(result) {
			return result
		}
		if attempt < maxRetries-1 {
			c.sleep(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return result
}

func (c *Checker) checkOnce(ctx context.Context, rawURL string) CheckResult {
	result := CheckResult{URL: rawURL, CheckedAt: c.now().UTC()}

	allowed, crawlDelay, err := c.robots.CanFetch(ctx, rawURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if !allowed {
		result.Blocked = true
		return result
	}

	if err := c.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		result.Error = err.Error()
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	result.Alive = resp.StatusCode >= 200 && resp.StatusCode < 400
	if resp.Request.URL.String() != rawURL {
		result.RedirectURL = resp.Request.URL.String()
	}
	return result
}

func retryable(result CheckResult) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == 429 {
		return true
	}
	if result.Error != "" {
		s := strings.ToLower(result.Error)
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}
	return false
}

// newProxyFunc prefers configured proxies and falls back to the
// environment.
func newProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}
	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
