package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/abeauvois/ingestflow/pkg/api"
)

// HTTPTaskAPI is a TaskAPI backed by the HTTP server. It is safe for
// concurrent use.
type HTTPTaskAPI struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTaskAPI creates a remote TaskAPI rooted at baseURL, for example
// "http://localhost:8080". A nil httpClient uses http.DefaultClient.
func NewHTTPTaskAPI(baseURL string, httpClient *http.Client) *HTTPTaskAPI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPTaskAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// Submit implements TaskAPI.
func (c *HTTPTaskAPI) Submit(ctx context.Context, preset string, options map[string]any) (*api.SubmitReceipt, error) {
	body, err := json.Marshal(SubmitRequest{Preset: preset, Options: options})
	if err != nil {
		return nil, fmt.Errorf("encoding submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/tasks", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp SubmitResponse
	if err := c.do(req, http.StatusAccepted, &resp); err != nil {
		return nil, err
	}
	return resp.ToReceipt(), nil
}

// GetTask implements TaskAPI.
func (c *HTTPTaskAPI) GetTask(ctx context.Context, taskID string) (*api.Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/tasks/"+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, err
	}

	var dto TaskDTO
	if err := c.do(req, http.StatusOK, &dto); err != nil {
		return nil, err
	}
	return dto.ToTask(), nil
}

// ListTasks fetches tasks matching the given options.
func (c *HTTPTaskAPI) ListTasks(ctx context.Context, opts api.TaskListOptions) ([]*api.Task, error) {
	q := url.Values{}
	if opts.Preset != "" {
		q.Set("preset", opts.Preset)
	}
	if opts.Status != "" {
		q.Set("status", string(opts.Status))
	}
	endpoint := c.baseURL + "/api/v1/tasks"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var dtos []TaskDTO
	if err := c.do(req, http.StatusOK, &dtos); err != nil {
		return nil, err
	}
	tasks := make([]*api.Task, 0, len(dtos))
	for _, dto := range dtos {
		tasks = append(tasks, dto.ToTask())
	}
	return tasks, nil
}

func (c *HTTPTaskAPI) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var body ErrorResponse
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
