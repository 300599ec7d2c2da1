package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/yndnr/authstore/internal/infra/buildinfo"
	"github.com/yndnr/authstore/internal/server/localserver"
)

// baseURL is a placeholder host; the transport always dials the socket.
const baseURL = "http://authstore"

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx agent response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("agent returned status %d", e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Client talks to authstore-agent over its Unix socket.
type Client struct {
	socket string
	client *http.Client
}

// NewClient creates a client for the agent listening on socketPath.
func NewClient(socketPath string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		socket: socketPath,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
		},
	}
}

// Socket returns the socket path.
func (c *Client) Socket() string {
	return c.socket
}

// GetItem returns the stored value. A missing item is not an error.
func (c *Client) GetItem(ctx context.Context, key string) (string, bool, error) {
	resp, err := c.do(ctx, http.MethodGet, itemPath(key), nil)
	if err != nil {
		return "", false, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return "", false, nil
	}

	var body localserver.ItemBody
	if err := ParseResponse(resp, &body); err != nil {
		return "", false, err
	}
	return body.Value, true, nil
}

// SetItem stores value under key.
func (c *Client) SetItem(ctx context.Context, key, value string) error {
	resp, err := c.do(ctx, http.MethodPut, itemPath(key), localserver.ItemBody{Value: value})
	if err != nil {
		return err
	}
	return ParseResponse(resp, nil)
}

// RemoveItem deletes key from every store.
func (c *Client) RemoveItem(ctx context.Context, key string) error {
	resp, err := c.do(ctx, http.MethodDelete, itemPath(key), nil)
	if err != nil {
		return err
	}
	return ParseResponse(resp, nil)
}

// Health returns the agent status.
func (c *Client) Health(ctx context.Context) (*localserver.HealthResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return nil, err
	}
	var health localserver.HealthResponse
	if err := ParseResponse(resp, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "authstore-cli/"+buildinfo.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent at %s: %w", c.socket, err)
	}
	return resp, nil
}

func itemPath(key string) string {
	return "/v1/items/" + url.PathEscape(key)
}

// ParseResponse decodes a JSON body into target and converts error
// statuses into *APIError. The body is always closed.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp localserver.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Message
		}
		return apiErr
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
