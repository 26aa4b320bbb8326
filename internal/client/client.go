// Package client is the REST client for the domainsentry API. All failures
// are classified into the domain error taxonomy so callers never see a raw
// transport error.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"domainsentry/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Client talks to one API server. Zero-value is not usable; construct with New.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// New builds a client for the API at baseURL (e.g. http://localhost:8080).
// httpClient may be nil; a default with a 30s overall timeout is used.
func New(baseURL string, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// ListDomains fetches one page of monitored domains.
func (c *Client) ListDomains(ctx context.Context, page, size int) (domain.DomainPage, error) {
	var out domain.DomainPage
	q := url.Values{"page": {strconv.Itoa(page)}, "size": {strconv.Itoa(size)}}
	err := c.getJSON(ctx, "/api/v1/domains", q, &out)
	return out, err
}

// GetDomain fetches one domain by id. A missing id surfaces domain.ErrNotFound.
func (c *Client) GetDomain(ctx context.Context, id string) (domain.DomainRecord, error) {
	var out domain.DomainRecord
	err := c.getJSON(ctx, "/api/v1/domains/"+url.PathEscape(id), nil, &out)
	return out, err
}

// GetStats fetches the corpus summary for the overview page.
func (c *Client) GetStats(ctx context.Context) (domain.Stats, error) {
	var out domain.Stats
	err := c.getJSON(ctx, "/api/v1/domains/stats/summary", nil, &out)
	return out, err
}

// GetTLDDistribution fetches the top TLDs by domain count.
func (c *Client) GetTLDDistribution(ctx context.Context, limit int) ([]domain.TLDCount, error) {
	var out []domain.TLDCount
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	err := c.getJSON(ctx, "/api/v1/domains/tld/distribution", q, &out)
	return out, err
}

// GetRiskTrends fetches the raw trend payload for a trailing window. The
// shape varies; hand the result to series.NormalizeTrend.
func (c *Client) GetRiskTrends(ctx context.Context, days int) (json.RawMessage, error) {
	q := url.Values{"days": {strconv.Itoa(days)}}
	return c.getRaw(ctx, "/api/v1/risk/trends", q)
}

// GetFactorBreakdown fetches the raw factor-breakdown payload.
func (c *Client) GetFactorBreakdown(ctx context.Context, days int) (json.RawMessage, error) {
	q := url.Values{"days": {strconv.Itoa(days)}}
	return c.getRaw(ctx, "/api/v1/risk/factor-breakdown", q)
}

// ListNews fetches the most recent aggregated news items.
func (c *Client) ListNews(ctx context.Context, limit int) (domain.NewsPage, error) {
	var out domain.NewsPage
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	err := c.getJSON(ctx, "/api/v1/feeds", q, &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.getRaw(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.DecodeError{Reason: "response body for " + path, Err: err}
	}
	return nil
}

func (c *Client) getRaw(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", u, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", u, domain.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("request failed", "url", u, "status", resp.StatusCode)
		return nil, &domain.HTTPError{URL: u, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{URL: u, Err: err}
	}
	return body, nil
}
