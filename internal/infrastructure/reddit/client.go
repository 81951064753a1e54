package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"RedditPulse/internal/config"
	"RedditPulse/internal/domain"
	"RedditPulse/internal/ports"
	"RedditPulse/internal/ratelimit"
)

const pageSize = 100

// Client fetches top listings for a community through the credentialed
// Reddit API, paginating under the shared rate-limit budget and retrying
// transient failures with exponential backoff.
type Client struct {
	http      *http.Client
	baseURL   string
	authURL   string
	userAgent string

	clientID     string
	clientSecret string

	bucket     *ratelimit.Bucket
	maxRetries int
	retryBase  time.Duration
	logger     *slog.Logger

	mu    sync.Mutex
	token string

	sleepFunc func(ctx context.Context, d time.Duration) error
}

var _ ports.ItemSource = (*Client)(nil)

// NewClient wires an HTTP client from configuration. The bucket is shared
// across all fetch tasks in the run.
func NewClient(cfg config.RedditConfig, bucket *ratelimit.Bucket, logger *slog.Logger) (*Client, error) {
	transport := http.DefaultTransport
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
	}

	retryBase := cfg.RetryBaseDelay
	if retryBase <= 0 {
		retryBase = 5 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Client{
		http:         &http.Client{Timeout: 30 * time.Second, Transport: transport},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		authURL:      cfg.AuthURL,
		userAgent:    cfg.UserAgent,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		bucket:       bucket,
		maxRetries:   maxRetries,
		retryBase:    retryBase,
		logger:       logger,
		sleepFunc:    sleepCtx,
	}, nil
}

// Fetch pages through the community's top listing until the requested limit
// or end-of-results. On retry exhaustion it returns the items yielded so far
// together with domain.ErrFetchExhausted; the caller keeps the partial data.
func (c *Client) Fetch(ctx context.Context, community domain.Community) ([]domain.RawItem, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, fmt.Errorf("r/%s: %w: %v", community.Name, domain.ErrFetchExhausted, err)
	}

	var collected []domain.RawItem
	after := ""

	for len(collected) < community.Limit {
		pageURL, err := c.listingURL(community, community.Limit-len(collected), after)
		if err != nil {
			return collected, fmt.Errorf("r/%s: %w", community.Name, err)
		}

		page, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return collected, fmt.Errorf("r/%s: %w", community.Name, err)
		}

		collected = append(collected, page.items...)

		// Source signals end-of-results with an empty cursor; yielding
		// fewer than limit items is not an error.
		if page.after == "" || len(page.items) == 0 {
			break
		}
		after = page.after
	}

	c.debug("listing fetched", "community", community.Name, "items", len(collected))
	return collected, nil
}

type listingPage struct {
	items []domain.RawItem
	after string
}

// fetchPage issues one listing request under the shared budget, retrying
// transient failures (network errors, 429, 5xx) with exponential backoff.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (listingPage, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.retryBase * time.Duration(1<<(attempt-1))
			c.debug("retrying listing request", "attempt", attempt, "backoff", backoff)
			if err := c.sleepFunc(ctx, backoff); err != nil {
				return listingPage{}, err
			}
		}

		if c.bucket != nil {
			if err := c.bucket.Wait(ctx); err != nil {
				return listingPage{}, err
			}
		}

		page, retryable, err := c.doListing(ctx, pageURL)
		if err == nil {
			return page, nil
		}
		if !retryable {
			return listingPage{}, err
		}
		lastErr = err
	}

	return listingPage{}, fmt.Errorf("%w: %v", domain.ErrFetchExhausted, lastErr)
}

func (c *Client) doListing(ctx context.Context, pageURL string) (listingPage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return listingPage{}, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return listingPage{}, false, ctx.Err()
		}
		return listingPage{}, true, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	c.observeRateHeaders(resp)

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return listingPage{}, true, fmt.Errorf("listing returned %s", resp.Status)
	default:
		return listingPage{}, false, fmt.Errorf("listing returned %s", resp.Status)
	}

	var body struct {
		Data struct {
			After    string `json:"after"`
			Children []struct {
				Kind string         `json:"kind"`
				Data domain.RawItem `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return listingPage{}, true, fmt.Errorf("decode listing: %w", err)
	}

	page := listingPage{after: body.Data.After}
	for _, child := range body.Data.Children {
		page.items = append(page.items, child.Data)
	}
	return page, false, nil
}

// observeRateHeaders feeds the source's advisory budget headers back into
// the shared bucket.
func (c *Client) observeRateHeaders(resp *http.Response) {
	if c.bucket == nil {
		return
	}

	remaining, errRem := strconv.ParseFloat(resp.Header.Get("x-ratelimit-remaining"), 64)
	reset, errReset := strconv.Atoi(resp.Header.Get("x-ratelimit-reset"))
	if errRem != nil || errReset != nil {
		return
	}
	c.bucket.Observe(int(remaining), reset)
}

func (c *Client) listingURL(community domain.Community, limit int, after string) (string, error) {
	if limit > pageSize {
		limit = pageSize
	}

	parsed, err := url.Parse(fmt.Sprintf("%s/r/%s/top", c.baseURL, url.PathEscape(community.Name)))
	if err != nil {
		return "", fmt.Errorf("invalid listing url: %w", err)
	}

	query := parsed.Query()
	query.Set("limit", strconv.Itoa(limit))
	if community.Timeframe != "" {
		query.Set("t", string(community.Timeframe))
	}
	if after != "" {
		query.Set("after", after)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// ensureToken exchanges client credentials for a bearer token once per run.
// The handshake itself is a credentialed client capability; no token means
// the client proceeds unauthenticated (useful against test servers).
func (c *Client) ensureToken(ctx context.Context) error {
	if c.authURL == "" || c.clientID == "" || c.clientSecret == "" {
		return nil
	}
	if c.currentToken() != "" {
		return nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("duration", "temporary")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint returned %s", resp.Status)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}

	c.mu.Lock()
	c.token = body.AccessToken
	c.mu.Unlock()

	c.debug("access token obtained")
	return nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
