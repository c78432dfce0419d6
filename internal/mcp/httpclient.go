package mcp

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

	"github.com/claude/pulseboard/internal/dashboard"
)

// HTTPClient implements Backend by calling the Pulseboard REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies Backend.
var _ Backend = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// get fetches path and decodes the JSON body into v. The server's 400 and 404
// responses come back wrapped in the matching dashboard error.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", dashboard.ErrInvalid, errorMessage(body))
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", dashboard.ErrNotFound, errorMessage(body))
	default:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

// errorMessage extracts the message of a {"error": "..."} body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func queryParams(q dashboard.Query) url.Values {
	v := url.Values{}
	v.Set("email", q.Email)
	if q.Period != "" {
		v.Set("period", q.Period)
	}
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	return v
}

func (c *HTTPClient) Cards(ctx context.Context, q dashboard.Query) (*dashboard.CardsView, error) {
	var view dashboard.CardsView
	if err := c.get(ctx, "/api/v1/dashboard", queryParams(q), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) Chart(ctx context.Context, q dashboard.Query, metric string) (*dashboard.ChartView, error) {
	var view dashboard.ChartView
	if err := c.get(ctx, "/api/v1/charts/"+url.PathEscape(metric), queryParams(q), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) History(ctx context.Context, email, startDate, endDate string) (*dashboard.HistoryView, error) {
	params := url.Values{}
	params.Set("email", email)
	if startDate != "" {
		params.Set("start_date", startDate)
	}
	if endDate != "" {
		params.Set("end_date", endDate)
	}

	var view dashboard.HistoryView
	if err := c.get(ctx, "/api/v1/history", params, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) Sleep(ctx context.Context, q dashboard.Query) (*dashboard.SleepView, error) {
	var view dashboard.SleepView
	if err := c.get(ctx, "/api/v1/sleep", queryParams(q), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) WeeklySleep(ctx context.Context, email string) (*dashboard.WeeklySleepView, error) {
	var view dashboard.WeeklySleepView
	if err := c.get(ctx, "/api/v1/sleep/week", url.Values{"email": {email}}, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) Activity(ctx context.Context, email string, days int) (*dashboard.ActivityView, error) {
	params := url.Values{}
	params.Set("email", email)
	if days > 0 {
		params.Set("days", strconv.Itoa(days))
	}

	var view dashboard.ActivityView
	if err := c.get(ctx, "/api/v1/activity", params, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) Anomaly(ctx context.Context, email, date string) (*dashboard.AnomalyView, error) {
	params := url.Values{}
	params.Set("email", email)
	if date != "" {
		params.Set("date", date)
	}

	var view dashboard.AnomalyView
	if err := c.get(ctx, "/api/v1/anomaly", params, &view); err != nil {
		return nil, err
	}
	return &view, nil
}
