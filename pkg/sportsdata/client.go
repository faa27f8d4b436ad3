package sportsdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/kingdave4/Nba-Data-Lake/pkg/logger"
	"github.com/kingdave4/Nba-Data-Lake/pkg/metrics"

	"go.uber.org/zap"
)

// subscriptionHeader carries the API key on every request, as required by
// the sportsdata.io gateway.
const subscriptionHeader = "Ocp-Apim-Subscription-Key"

// StatusError reports a non-2xx response from the sports data API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sports data API returned status %d: %s", e.Code, e.Body)
}

// Retryable classifies fetch errors. Network failures and server-side
// statuses are transient; client mistakes such as a bad API key are not.
func Retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return true
}

// Fetcher retrieves player data from the upstream sports data API
type Fetcher interface {
	// FetchPlayers retrieves the full player list
	FetchPlayers(ctx context.Context) ([]Player, error)
}

// Client fetches player data over HTTP
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *logger.Logger
}

var _ Fetcher = (*Client)(nil)

// NewClient creates a client for the given endpoint. The timeout bounds the
// whole request including body read.
func NewClient(endpoint, apiKey string, timeout time.Duration, l *logger.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		logger:   l,
	}
}

// FetchPlayers retrieves the full player list from the API
func (c *Client) FetchPlayers(ctx context.Context) ([]Player, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(subscriptionHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	metrics.FetcherRequestsTotal.Inc()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call sports data API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var players []Player
	if err := json.NewDecoder(resp.Body).Decode(&players); err != nil {
		return nil, fmt.Errorf("failed to decode player payload: %w", err)
	}

	metrics.FetcherRecordsTotal.Add(float64(len(players)))
	c.logger.Debug("fetched players", zap.Int("count", len(players)))
	return players, nil
}
