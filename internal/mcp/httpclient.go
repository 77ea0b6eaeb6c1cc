package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/history"
	"github.com/claude/liftlog/internal/models"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: *HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

// ListWorkouts fetches the full history and filters to [start, end).
// The list endpoint has no range parameters, so filtering happens here.
func (c *HTTPClient) ListWorkouts(ctx context.Context, start, end time.Time) ([]models.Workout, error) {
	body, err := c.get(ctx, "/api/v1/workouts", nil)
	if err != nil {
		return nil, err
	}

	var all []models.Workout
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, fmt.Errorf("httpclient: decode workouts: %w", err)
	}

	var out []models.Workout
	for _, w := range all {
		if !w.Date.Before(start) && w.Date.Before(end) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (c *HTTPClient) PreviousPerformance(ctx context.Context, exerciseName string) ([]models.Set, bool, error) {
	params := url.Values{}
	params.Set("exercise", exerciseName)

	body, err := c.get(ctx, "/api/v1/previous", params)
	if err != nil {
		return nil, false, err
	}

	var resp struct {
		Found bool         `json:"found"`
		Sets  []models.Set `json:"sets"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false, fmt.Errorf("httpclient: decode previous performance: %w", err)
	}
	return resp.Sets, resp.Found, nil
}

func (c *HTTPClient) ExerciseNames(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/api/v1/exercises/names", nil)
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, fmt.Errorf("httpclient: decode exercise names: %w", err)
	}
	return names, nil
}

func (c *HTTPClient) MaxWeightSeries(ctx context.Context, exerciseName string) ([]history.ProgressPoint, error) {
	params := url.Values{}
	params.Set("exercise", exerciseName)

	body, err := c.get(ctx, "/api/v1/progress/series", params)
	if err != nil {
		return nil, err
	}

	var points []history.ProgressPoint
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, fmt.Errorf("httpclient: decode progress series: %w", err)
	}
	return points, nil
}
