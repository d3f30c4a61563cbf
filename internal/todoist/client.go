// Package todoist provides the live HTTP client for the Todoist REST
// API, implementing the syncer.Client interface.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fernhill/todosync/internal/syncer"
)

// DefaultBaseURL is the Todoist REST API root.
const DefaultBaseURL = "https://api.todoist.com/rest/v2"

// retryMaxElapsed bounds the total time spent retrying one request.
const retryMaxElapsed = 30 * time.Second

// Client provides HTTP access to the Todoist REST API.
type Client struct {
	BaseURL    string
	APIToken   string
	HTTPClient *http.Client
}

// NewClient creates a new Todoist client.
func NewClient(apiToken string) *Client {
	return &Client{
		BaseURL:  DefaultBaseURL,
		APIToken: apiToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL returns a copy of the client pointed at a different API
// root. Used by tests and self-hosted gateways.
func (c *Client) WithBaseURL(base string) *Client {
	nc := *c
	nc.BaseURL = strings.TrimSuffix(base, "/")
	return &nc
}

// Task represents a Todoist task as returned by the REST API.
type Task struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	ProjectID string   `json:"project_id,omitempty"`
	SectionID string   `json:"section_id,omitempty"`
	ParentID  string   `json:"parent_id,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	URL       string   `json:"url,omitempty"`
}

// createTaskRequest is the POST /tasks body.
type createTaskRequest struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	ParentID    string   `json:"parent_id,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	SectionID   string   `json:"section_id,omitempty"`
}

// CreateTask creates a task and returns its external id.
func (c *Client) CreateTask(ctx context.Context, req syncer.CreateRequest) (string, error) {
	payload := createTaskRequest{
		Content:     req.Content,
		Description: req.Description,
		Labels:      req.Labels,
		ParentID:    req.ParentID,
		ProjectID:   req.ProjectID,
		SectionID:   req.SectionID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal create request: %w", err)
	}

	body, err := c.doRequest(ctx, "POST", c.BaseURL+"/tasks", data)
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}

	var task Task
	if err := json.Unmarshal(body, &task); err != nil {
		return "", fmt.Errorf("parse create response: %w", err)
	}
	if task.ID == "" {
		return "", fmt.Errorf("create task: response missing id")
	}
	return task.ID, nil
}

// MoveTask moves a task to a destination section.
func (c *Client) MoveTask(ctx context.Context, taskID, destSectionID string) error {
	payload := map[string]string{"section_id": destSectionID}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal move request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/tasks/%s/move", c.BaseURL, url.PathEscape(taskID))
	if _, err := c.doRequest(ctx, "POST", apiURL, data); err != nil {
		return fmt.Errorf("move task %s: %w", taskID, err)
	}
	return nil
}

// apiError is a non-2xx response from the API.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("todoist API returned %d: %s", e.StatusCode, e.Body)
}

// isRetryable reports whether the error is a transient failure worth
// retrying: network-level errors, timeouts, 429, and 5xx. Everything
// else (auth, validation, other 4xx) must not be retried because the
// API offers no create-idempotency key.
func isRetryable(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.StatusCode == http.StatusTooManyRequests || ae.StatusCode >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	// http.Client wraps transport errors in *url.Error.
	var ue *url.Error
	return errors.As(err, &ue)
}

func newRequestBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = retryMaxElapsed
	return bo
}

// doRequest executes an authenticated request, retrying transient
// failures with exponential backoff. Exhausted retries surface as a
// syncer.TransientError so callers can classify the failure.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	if c.APIToken == "" {
		return nil, fmt.Errorf("todoist API token not configured: %w", syncer.ErrNotConfigured)
	}

	var respBody []byte
	bo := newRequestBackoff()
	err := backoff.Retry(func() error {
		b, err := c.doRequestOnce(ctx, method, apiURL, body)
		if err != nil {
			if isRetryable(err) {
				return err // backoff will retry
			}
			return backoff.Permanent(err) // non-retryable, stop immediately
		}
		respBody = b
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		if isRetryable(err) {
			return nil, &syncer.TransientError{Err: err}
		}
		return nil, err
	}
	return respBody, nil
}

func (c *Client) doRequestOnce(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.APIToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "todosync/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// Move returns 204 No Content on success.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apiError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
