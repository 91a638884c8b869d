package tilda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nylinary/openlines-tg/internal/logger"
)

// Browser-mimicking headers; the storefront 403s plain user agents.
var browserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Accept":          "application/json, text/javascript, */*; q=0.01",
	"Accept-Language": "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
}

type ClientOptions struct {
	BaseURL      string
	StoreAPIURL  string
	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration
}

// Client is the live HTTP implementation of Source.
type Client struct {
	log          *logger.Logger
	baseURL      string
	storeAPIURL  string
	httpClient   *http.Client
	retries      int
	retryBackoff time.Duration
}

func NewClient(baseLog *logger.Logger, opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://myryba.ru"
	}
	if opts.StoreAPIURL == "" {
		opts.StoreAPIURL = "https://store.tildacdn.com/api/getproductslist/"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 3 * time.Second
	}
	return &Client{
		log:          baseLog.With("service", "TildaClient"),
		baseURL:      opts.BaseURL,
		storeAPIURL:  opts.StoreAPIURL,
		httpClient:   &http.Client{Timeout: opts.Timeout},
		retries:      opts.Retries,
		retryBackoff: opts.RetryBackoff,
	}
}

func (c *Client) DiscoverPairs(ctx context.Context, slug string) ([]Pair, error) {
	html, err := c.fetchCategoryPage(ctx, slug)
	if err != nil {
		return nil, err
	}
	return extractStorePairs(html), nil
}

// fetchCategoryPage retrieves category HTML. 403 and network errors retry
// with linear backoff (backoff * attempt); other non-200 statuses give up
// immediately for this category.
func (c *Client) fetchCategoryPage(ctx context.Context, slug string) (string, error) {
	pageURL := c.baseURL + "/" + slug
	for attempt := 1; attempt <= c.retries; attempt++ {
		body, status, err := c.get(ctx, pageURL)
		if err != nil {
			wait := c.retryBackoff * time.Duration(attempt)
			c.log.Warn("Category page request failed", "slug", slug, "attempt", attempt, "wait", wait, "error", err)
			if sleepErr := sleepCtx(ctx, wait); sleepErr != nil {
				return "", sleepErr
			}
			continue
		}
		switch {
		case status == http.StatusOK:
			return string(body), nil
		case status == http.StatusForbidden:
			wait := c.retryBackoff * time.Duration(attempt)
			c.log.Warn("Category page returned 403", "slug", slug, "attempt", attempt, "wait", wait)
			if sleepErr := sleepCtx(ctx, wait); sleepErr != nil {
				return "", sleepErr
			}
		default:
			return "", fmt.Errorf("category page %s: status %d", slug, status)
		}
	}
	return "", fmt.Errorf("category page %s: retries exhausted", slug)
}

// FetchProducts calls the Tilda products-list endpoint for one pair.
// A response without a products array is "zero results", not an error.
func (c *Client) FetchProducts(ctx context.Context, pair Pair) ([]map[string]any, error) {
	params := url.Values{
		"storepartuid": {pair.StorePartUID},
		"recid":        {pair.RecID},
		"c":            {"1"},
		"getparts":     {"true"},
		"getoptions":   {"true"},
		"slice":        {"1"},
		"size":         {"500"},
	}
	reqURL := c.storeAPIURL + "?" + params.Encode()

	for attempt := 1; attempt <= c.retries; attempt++ {
		body, status, err := c.get(ctx, reqURL)
		if err != nil {
			wait := c.retryBackoff * time.Duration(attempt)
			c.log.Warn("Products request failed", "storepart", pair.StorePartUID, "attempt", attempt, "wait", wait, "error", err)
			if sleepErr := sleepCtx(ctx, wait); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		switch {
		case status == http.StatusOK:
			var payload struct {
				Products []map[string]any `json:"products"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				c.log.Warn("Products response is not valid JSON", "storepart", pair.StorePartUID, "error", err)
				return []map[string]any{}, nil
			}
			if payload.Products == nil {
				c.log.Warn("Products response has no products array", "storepart", pair.StorePartUID)
				return []map[string]any{}, nil
			}
			return payload.Products, nil
		case status == http.StatusForbidden:
			wait := c.retryBackoff * time.Duration(attempt)
			c.log.Warn("Products endpoint returned 403", "storepart", pair.StorePartUID, "attempt", attempt, "wait", wait)
			if sleepErr := sleepCtx(ctx, wait); sleepErr != nil {
				return nil, sleepErr
			}
		default:
			return nil, fmt.Errorf("products endpoint for storepart %s: status %d", pair.StorePartUID, status)
		}
	}
	return nil, fmt.Errorf("products endpoint for storepart %s: retries exhausted", pair.StorePartUID)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
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
