package browseruse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.browser-use.com/api/v1"

const (
	defaultPollInterval = 2 * time.Second
	defaultTimeout      = 120 * time.Second
	requestTimeout      = 30 * time.Second
)

// Options configures a Client. Only APIKey is required; every other field
// falls back to a default.
type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	PollInterval time.Duration
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Client is a thin client around the Browser Use Cloud API. It submits a
// comparison task, polls until the task reaches a terminal status and
// normalizes the task output. No failure is retried internally.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	pollInterval time.Duration
	timeout      time.Duration
	httpClient   *http.Client
}

// NewClient builds a Client from options. A missing API key is a
// configuration error raised here, before any task is submitted.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, &APIError{Message: "Browser Use API key is not configured"}
	}

	c := &Client{
		apiKey:       opts.APIKey,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		model:        opts.Model,
		pollInterval: opts.PollInterval,
		timeout:      opts.Timeout,
		httpClient:   opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = "gemini-2.5-pro"
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}

	return c, nil
}

// CompareDocument runs one comparison task for the document at url. When
// snapshot is nil (or carries no summary) the task is an unconditioned
// baseline scan.
func (c *Client) CompareDocument(ctx context.Context, url, title string, snapshot *Snapshot) (*Result, error) {
	instructions := buildInstructions(url, title, snapshot)

	taskID, err := c.startTask(ctx, instructions)
	if err != nil {
		return nil, err
	}

	slog.Debug("Browser Use task submitted", "task_id", taskID, "url", url)

	details, err := c.waitForCompletion(ctx, taskID)
	if err != nil {
		return nil, err
	}

	output, err := parseTaskOutput(details)
	if err != nil {
		return nil, err
	}

	return normalizeOutput(output, details)
}

func (c *Client) startTask(ctx context.Context, instructions string) (string, error) {
	body := map[string]string{
		"task":      instructions,
		"llm_model": c.model,
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/run-task", body, &resp); err != nil {
		return "", err
	}

	if resp.ID == "" {
		return "", &APIError{Message: "Browser Use API response did not include a task ID"}
	}

	return resp.ID, nil
}

// waitForCompletion polls the task until it reaches a terminal status.
// Terminal statuses are "finished" (the payload is returned), "failed" and
// "stopped" (both errors). Exceeding the overall timeout is an error too.
func (c *Client) waitForCompletion(ctx context.Context, taskID string) (map[string]any, error) {
	deadline := time.Now().Add(c.timeout)

	for {
		var payload map[string]any
		if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/task/"+taskID, nil, &payload); err != nil {
			return nil, err
		}

		status, _ := payload["status"].(string)
		switch status {
		case "finished":
			return payload, nil
		case "failed", "stopped":
			return nil, &APIError{Message: fmt.Sprintf("Browser Use task %s ended with status: %s", taskID, status)}
		}

		if time.Now().After(deadline) {
			return nil, &APIError{Message: fmt.Sprintf("timed out waiting for Browser Use task %s to finish", taskID)}
		}

		select {
		case <-ctx.Done():
			return nil, &APIError{Message: fmt.Sprintf("Browser Use task %s interrupted", taskID), Err: ctx.Err()}
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) doJSON(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: "failed to marshal Browser Use request", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, reader)
	if err != nil {
		return &APIError{Message: "failed to create Browser Use request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: "Browser Use API request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{Message: fmt.Sprintf("Browser Use API request failed: %s: %s", resp.Status, strings.TrimSpace(string(detail)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Message: "failed to decode Browser Use response", Err: err}
	}

	return nil
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// parseTaskOutput extracts the structured output object from a finished task
// payload. The output field is either already an object, or a string that
// contains a JSON object, possibly wrapped in prose.
func parseTaskOutput(details map[string]any) (map[string]any, error) {
	output, ok := details["output"]
	if !ok || output == nil {
		return nil, &APIError{Message: "Browser Use task did not contain an output payload"}
	}

	switch v := output.(type) {
	case map[string]any:
		return v, nil
	case string:
		candidate := strings.TrimSpace(v)

		var parsed map[string]any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			return parsed, nil
		}

		if match := jsonObjectPattern.FindString(candidate); match != "" {
			if err := json.Unmarshal([]byte(match), &parsed); err != nil {
				return nil, &APIError{Message: "unable to parse JSON output from Browser Use task", Err: err}
			}
			return parsed, nil
		}

		return nil, &APIError{Message: "Browser Use output could not be parsed as JSON"}
	default:
		return nil, &APIError{Message: "Browser Use output format is not supported"}
	}
}
