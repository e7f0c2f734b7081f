// Package dune fetches warehouse query rows from the Dune Analytics API.
//
// Rows come back as raw column maps; the normalize package turns them into
// canonical data rows. A query with no cached result is executed and polled;
// execute and poll failures degrade to an empty row set rather than an error,
// so callers can fall through to other sources.
package dune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/predictionmetrics/marketshare/internal/upstream"
)

// DefaultBaseURL is the public Dune API.
const DefaultBaseURL = "https://api.dune.com"

const (
	resultLimit  = 10000
	pollAttempts = 30
	pollInterval = time.Second

	stateCompleted = "QUERY_STATE_COMPLETED"
	stateFailed    = "QUERY_STATE_FAILED"
)

// ErrMissingAPIKey reports that no API key was configured. It is an
// authentication problem, not a data problem, and is logged as such.
var ErrMissingAPIKey = errors.New("dune api key not configured")

// Client fetches query results from Dune.
type Client struct {
	api          *upstream.Client
	logger       *slog.Logger
	pollInterval time.Duration
	hasKey       bool
	upstreamOpts []upstream.Option
}

// Option configures a Client beyond its defaults.
type Option func(*Client)

// WithPollInterval overrides the execution poll cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// WithUpstreamOptions forwards options to the underlying HTTP client.
func WithUpstreamOptions(opts ...upstream.Option) Option {
	return func(c *Client) {
		c.upstreamOpts = append(c.upstreamOpts, opts...)
	}
}

// New creates a client for the given base URL (DefaultBaseURL if empty)
// authenticating with apiKey. An empty apiKey is allowed at construction;
// Results fails fast with ErrMissingAPIKey.
func New(baseURL, apiKey string, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		logger:       logger,
		pollInterval: pollInterval,
		hasKey:       apiKey != "",
	}
	for _, opt := range opts {
		opt(c)
	}

	upOpts := append([]upstream.Option{
		upstream.WithLogger(logger),
		upstream.WithHeader("X-Dune-API-Key", apiKey),
	}, c.upstreamOpts...)
	c.api = upstream.NewClient(baseURL, upOpts...)
	return c
}

type resultsResponse struct {
	Result struct {
		Rows []map[string]any `json:"rows"`
	} `json:"result"`
}

type executeResponse struct {
	ExecutionID string `json:"execution_id"`
}

type statusResponse struct {
	State string `json:"state"`
}

// Results returns the rows of a saved query. The cached result is preferred;
// when it is empty the query is executed and polled until completion. Execute
// or poll failures return an empty slice with a nil error so the caller can
// fall through to other sources; only the initial results fetch can fail
// hard.
func (c *Client) Results(ctx context.Context, queryID int) ([]map[string]any, error) {
	if !c.hasKey {
		return nil, ErrMissingAPIKey
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(resultLimit))

	var resp resultsResponse
	path := fmt.Sprintf("/api/v1/query/%d/results", queryID)
	if err := c.api.GetJSON(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("dune query %d results: %w", queryID, err)
	}

	if len(resp.Result.Rows) > 0 {
		c.logger.Debug("dune cached results", "query_id", queryID, "rows", len(resp.Result.Rows))
		return resp.Result.Rows, nil
	}

	c.logger.Info("dune query has no cached results, executing", "query_id", queryID)
	return c.executeAndPoll(ctx, queryID), nil
}

// executeAndPoll triggers a fresh execution and waits for it. All failures
// degrade to an empty row set.
func (c *Client) executeAndPoll(ctx context.Context, queryID int) []map[string]any {
	var exec executeResponse
	path := fmt.Sprintf("/api/v1/query/%d/execute", queryID)
	if err := c.api.PostJSON(ctx, path, nil, &exec); err != nil {
		c.logger.Warn("dune execute failed", "query_id", queryID, "error", err)
		return nil
	}
	if exec.ExecutionID == "" {
		c.logger.Warn("dune execute returned no execution id", "query_id", queryID)
		return nil
	}

	c.logger.Debug("dune execution started", "query_id", queryID, "execution_id", exec.ExecutionID)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < pollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			c.logger.Warn("dune poll cancelled", "query_id", queryID, "error", ctx.Err())
			return nil
		case <-ticker.C:
		}

		var status statusResponse
		statusPath := fmt.Sprintf("/api/v1/execution/%s/status", exec.ExecutionID)
		if err := c.api.GetJSON(ctx, statusPath, nil, &status); err != nil {
			c.logger.Warn("dune status check failed", "query_id", queryID, "error", err)
			return nil
		}

		switch status.State {
		case stateCompleted:
			var resp resultsResponse
			resultsPath := fmt.Sprintf("/api/v1/execution/%s/results", exec.ExecutionID)
			if err := c.api.GetJSON(ctx, resultsPath, nil, &resp); err != nil {
				c.logger.Warn("dune execution results fetch failed", "query_id", queryID, "error", err)
				return nil
			}
			c.logger.Info("dune execution completed",
				"query_id", queryID, "rows", len(resp.Result.Rows))
			return resp.Result.Rows
		case stateFailed:
			c.logger.Warn("dune execution failed", "query_id", queryID)
			return nil
		}
		// Still pending or executing.
	}

	c.logger.Warn("dune execution timed out", "query_id", queryID, "attempts", pollAttempts)
	return nil
}
