package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request is the wire format the execution sandbox accepts. One request runs
// the submitted source once against a single stdin.
type Request struct {
	Language         string `json:"language"`
	Version          string `json:"version"`
	Files            []File `json:"files"`
	Stdin            string `json:"stdin"`
	CompileTimeoutMs int    `json:"compile_timeout_ms,omitempty"`
	RunTimeoutMs     int    `json:"run_timeout_ms,omitempty"`
	MemoryLimitKb    int    `json:"memory_limit_kb,omitempty"`
}

type File struct {
	Content string `json:"content"`
}

type Response struct {
	Run     RunResult `json:"run"`
	Message string    `json:"message,omitempty"`
}

// RunResult is the raw outcome of one sandbox run.
type RunResult struct {
	Code     int     `json:"code"`
	Signal   *string `json:"signal"`
	Stdout   string  `json:"stdout"`
	Stderr   string  `json:"stderr"`
	TimeSec  float64 `json:"time_s"`
	MemoryKb int     `json:"memory_kb"`
}

// StatusError is returned when the sandbox answered but with a non-2xx status.
// It is distinct from transport errors, where no response arrived at all.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sandbox returned status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Execute issues one sandbox run. A nil error means the sandbox responded 2xx
// with a parseable body; the run itself may still have failed (non-zero exit,
// kill signal), which is the caller's concern.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal sandbox request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sandbox request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sandbox request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sandbox response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode sandbox response: %w", err)
	}
	return &out, nil
}
