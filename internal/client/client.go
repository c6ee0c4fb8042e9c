// Package client talks to a BarCut server: it enqueues optimizations and
// polls their jobs until they complete.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/piwi3910/barcut/internal/model"
)

// DefaultPollInterval is how often Poll asks for a job's status.
const DefaultPollInterval = 4 * time.Second

// ErrJobFailed is wrapped by the error Poll returns for a failed job.
var ErrJobFailed = errors.New("job failed")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("barcut api: %d %s", e.StatusCode, e.Message)
}

// Client is a BarCut API client.
type Client struct {
	baseURL string
	user    string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// WithUser sets the user that enqueued jobs notify.
func (c *Client) WithUser(user string) *Client {
	c.user = user
	return c
}

// EnqueueFullOptimization starts a run over every profile of a sales order.
// A nil cfg uses the config stored on the order.
func (c *Client) EnqueueFullOptimization(ctx context.Context, orderName string, cfg *model.OptimizerConfig) (string, error) {
	body := struct {
		Config *model.OptimizerConfig `json:"config,omitempty"`
	}{Config: cfg}
	return c.enqueue(ctx, "/api/orders/"+url.PathEscape(orderName)+"/optimize", body)
}

// EnqueueOptimization starts a run of a single request whose report is
// attached to (doctype, docname).
func (c *Client) EnqueueOptimization(ctx context.Context, doctype, docname string, req model.Request) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}
	return c.enqueue(ctx, "/api/optimize", model.SingleOptimizationPayload{
		DocType:         doctype,
		DocName:         docname,
		RequestDataJSON: string(data),
	})
}

func (c *Client) enqueue(ctx context.Context, path string, body any) (string, error) {
	var out struct {
		JobID string `json:"job_id"`
	}
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return "", err
	}
	return out.JobID, nil
}

// JobResult is a job's state as returned by the server.
type JobResult struct {
	Status model.JobStatus `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error,omitempty"`
}

// GetJobResult returns the current state of a job.
func (c *Client) GetJobResult(ctx context.Context, id string) (JobResult, error) {
	var res JobResult
	err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, &res)
	return res, err
}

// Poll waits for a job to finish and returns its output. A failed job yields
// an error wrapping ErrJobFailed with the job's message. interval defaults to
// DefaultPollInterval.
func (c *Client) Poll(ctx context.Context, id string, interval time.Duration) (json.RawMessage, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := c.GetJobResult(ctx, id)
		if err != nil {
			return nil, err
		}
		switch res.Status {
		case model.JobFinished:
			return res.Output, nil
		case model.JobFailed:
			return nil, fmt.Errorf("%w: %s", ErrJobFailed, res.Error)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.Header.Set("X-Barcut-User", c.user)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
