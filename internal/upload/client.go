package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/pulseboard/internal/ingest"
	"github.com/klauspost/compress/gzip"
)

// maxAttempts bounds the sends of one payload.
const maxAttempts = 3

// ErrRejected wraps 4xx responses, which are not retried.
var ErrRejected = errors.New("payload rejected")

// Client sends payloads to the Pulseboard ingest endpoints over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the Pulseboard server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// SendMetrics POSTs an ingest payload to /api/v1/ingest.
func (c *Client) SendMetrics(ctx context.Context, payload []byte) (*ingest.Result, error) {
	var res ingest.Result
	if err := c.send(ctx, "/api/v1/ingest", payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SendAnomaly POSTs an anomaly report to /api/v1/ingest/anomaly.
func (c *Client) SendAnomaly(ctx context.Context, payload []byte) (*ingest.AnomalyResult, error) {
	var res ingest.AnomalyResult
	if err := c.send(ctx, "/api/v1/ingest/anomaly", payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// send gzips the body and POSTs it, retrying network errors and 5xx/429 responses
// with exponential backoff.
func (c *Client) send(ctx context.Context, path string, payload []byte, out any) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return fmt.Errorf("compressing payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing payload: %w", err)
	}
	body := buf.Bytes()

	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Content-Encoding", "gzip")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			return nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
			return fmt.Errorf("%w (status %d): %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		lastErr = fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}
