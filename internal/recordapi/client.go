package recordapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrMalformed marks an upstream response that decoded into an invalid
// shape. Distinct from HTTP-level failures so the poll loop can log the
// difference; both are treated as transient by callers.
var ErrMalformed = errors.New("recordapi: malformed upstream response")

// HTTPError is a non-2xx response from the record API.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("recordapi: request failed with status %d", e.StatusCode)
}

// Client reads finished call records and the assistant directory.
// All requests carry the private bearer credential.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("recordapi: base URL is required")
	}
	if token == "" {
		return nil, errors.New("recordapi: bearer credential is required")
	}
	if httpClient == nil {
		return nil, errors.New("recordapi: http client is required")
	}
	return &Client{baseURL: baseURL, token: token, http: httpClient}, nil
}

// GetCall fetches the record for one call. The record may still be
// mid-processing; callers check Status themselves.
func (c *Client) GetCall(ctx context.Context, callID string) (CallDetail, error) {
	if callID == "" {
		return CallDetail{}, errors.New("recordapi: call id is required")
	}

	var out CallDetail
	if err := c.getJSON(ctx, "/call/"+url.PathEscape(callID), &out); err != nil {
		return CallDetail{}, err
	}
	if out.Status == "" {
		return CallDetail{}, fmt.Errorf("%w: missing status", ErrMalformed)
	}
	return out, nil
}

// ListAssistants fetches the selectable assistant configurations.
func (c *Client) ListAssistants(ctx context.Context) ([]Assistant, error) {
	var out []Assistant
	if err := c.getJSON(ctx, "/assistant", &out); err != nil {
		return nil, err
	}
	for _, a := range out {
		if a.ID == "" {
			return nil, fmt.Errorf("%w: assistant entry missing id", ErrMalformed)
		}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &HTTPError{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
