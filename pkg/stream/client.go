// Package stream implements the client side of the tacscope push channel:
// session creation, snapshot subscription over SSE and disposition updates.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/opsdeck/tacscope/pkg/marker"
)

// Client talks to a tacscope server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the server at baseURL (e.g.
// "http://localhost:8080"). Streaming requests are long-lived, so the
// underlying http.Client carries no overall timeout; pass a context to bound
// individual calls.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// CreateSession allocates a new session and returns its code.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/session", nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server error %d: %s", resp.StatusCode, body)
	}

	var response struct {
		SessionCode string `json:"sessionCode"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if response.SessionCode == "" {
		return "", fmt.Errorf("server returned empty session code")
	}
	return response.SessionCode, nil
}

// Subscribe opens the SSE stream for a session and invokes handle for every
// pushed event. It blocks until the context is cancelled or the stream
// breaks, returning nil on cancellation.
func (c *Client) Subscribe(ctx context.Context, code, role string, handle func(marker.Event)) error {
	q := url.Values{}
	q.Set("session", code)
	if role != "" {
		q.Set("role", role)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/stream?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, body)
	}

	scanner := bufio.NewScanner(resp.Body)
	// Events carry the full entity list, so allow generous line sizes
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}
		var event marker.Event
		if err := json.Unmarshal(bytes.TrimPrefix(line, []byte("data: ")), &event); err != nil {
			return fmt.Errorf("parse event: %w", err)
		}
		handle(event)
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read: %w", err)
	}
	return fmt.Errorf("stream ended")
}

// SetDisposition submits a classification change for one entity.
func (c *Client) SetDisposition(ctx context.Context, code, id string, d marker.Disposition) error {
	payload, err := json.Marshal(map[string]string{
		"session":     code,
		"id":          id,
		"disposition": string(d),
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/disposition", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
