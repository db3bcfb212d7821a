// Package feed fetches raw daily rows from the analytics provider. Results
// arrive as loosely-typed rows keyed by column name; parsing into typed models
// happens in the callers.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/sairaghavaa/sol-analytics/internal/errs"
)

const (
	DefaultBaseURL = "https://api.dune.com"
	RequestTimeout = 60 * time.Second
)

// Row is one result row keyed by column name.
type Row map[string]any

// Feed fetches the full result set of a provider query.
type Feed interface {
	FetchQueryResultsAsRows(ctx context.Context, queryID int) ([]Row, error)
}

// Client talks to the Dune results API. Requests share a rate limiter so
// resyncs across protocols do not trip the provider's limits.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

func NewClient(baseURL, apiKey string, requestsPerMinute int, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 40
	}
	return &Client{
		httpClient: &http.Client{Timeout: RequestTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 5),
		logger:     logger,
	}
}

type resultsResponse struct {
	Result struct {
		Rows []Row `json:"rows"`
	} `json:"result"`
}

// FetchQueryResultsAsRows pages through a query's stored results. A non-2xx
// status or an empty result set is an UpstreamFeedError.
func (c *Client) FetchQueryResultsAsRows(ctx context.Context, queryID int) ([]Row, error) {
	var all []Row
	const pageLimit = 5000
	for offset := 0; ; offset += pageLimit {
		page, err := c.fetchPage(ctx, queryID, pageLimit, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageLimit {
			break
		}
	}
	if len(all) == 0 {
		return nil, &errs.UpstreamFeedError{QueryID: queryID, Reason: "empty result set"}
	}
	c.logger.WithFields(logrus.Fields{"query_id": queryID, "rows": len(all)}).Info("feed query fetched")
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, queryID, limit, offset int) ([]Row, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/api/v1/query/%d/results?limit=%d&offset=%d", c.baseURL, queryID, limit, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request for query %d: %w", queryID, err)
	}
	req.Header.Set("X-Dune-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request for query %d: %w", queryID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &errs.UpstreamFeedError{QueryID: queryID, Status: resp.StatusCode, Reason: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed response for query %d: %w", queryID, err)
	}
	if len(body) == 0 {
		return nil, &errs.UpstreamFeedError{QueryID: queryID, Reason: "empty body"}
	}

	var parsed resultsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode feed response for query %d: %w", queryID, err)
	}
	return parsed.Result.Rows, nil
}
