package dli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/icholy/digest"
)

// HTTPHeader holds extra request headers for readibility.
type HTTPHeader map[string]string

// newClient returns a one-time HTTP client with digest authentication for
// the switch. A fresh client is built for every request; the switch firmware
// does not cope well with persistent connections, so keep-alives are off.
func (c *Controller) newClient() *http.Client {
	return &http.Client{
		Transport: &digest.Transport{
			Username: c.User,
			Password: c.password,
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		},
		Timeout: c.timeout,
	}
}

func (c *Controller) baseURL() string {
	return fmt.Sprintf("http://%s:%d/restapi", c.Host, c.Port)
}

// getJSON sends a GET request to the switch REST API and decodes the JSON
// response body into out. Passing a nil out skips decoding, as does an empty
// response body. A non-2xx response returns a *StatusError.
func (c *Controller) getJSON(ctx context.Context, route string, out any, header HTTPHeader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+route, nil)
	if err != nil {
		return fmt.Errorf("failed to create GET request: %w", err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	res, err := c.newClient().Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &StatusError{StatusCode: res.StatusCode}
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// put sends a PUT request with a form-encoded body to the switch REST API.
// The response body is not parsed. A non-2xx response returns a *StatusError.
func (c *Controller) put(ctx context.Context, route string, form url.Values, header HTTPHeader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL()+route, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create PUT request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	res, err := c.newClient().Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &StatusError{StatusCode: res.StatusCode}
	}
	return nil
}
