package tank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// request performs one HTTP call bounded by the request timeout and returns
// the status code and body. Transport failures come back as errors; HTTP
// status handling is left to the caller.
func (c *Client) request(ctx context.Context, op, method, url string, body any, authorized bool) (int, []byte, error) {
	if url == "" {
		return 0, nil, ErrNotResolved
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s body: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		if tok := c.bearer(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.cfg.Metrics.RequestFailed(op)
		return 0, nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.cfg.Metrics.RequestFailed(op)
		return resp.StatusCode, nil, fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode >= 300 {
		c.cfg.Metrics.RequestFailed(op)
	}
	if authorized && resp.StatusCode == http.StatusUnauthorized {
		c.log.Infow("tank_token_rejected", "op", op, "url", url)
		c.InvalidateToken()
	}
	return resp.StatusCode, data, nil
}

// getJSON GETs url and decodes a 200 response into dst. Bodies are decoded
// from their text regardless of the advertised content type because the
// settings and schedule resources answer with text/plain.
func (c *Client) getJSON(ctx context.Context, op, url string, authorized bool, dst any) error {
	status, data, err := c.request(ctx, op, http.MethodGet, url, nil, authorized)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &StatusError{Method: http.MethodGet, URL: url, Code: status}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", op, err)
	}
	return nil
}

// getRaw GETs url and returns the body of a 200 response.
func (c *Client) getRaw(ctx context.Context, op, url string) ([]byte, error) {
	status, data, err := c.request(ctx, op, http.MethodGet, url, nil, true)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &StatusError{Method: http.MethodGet, URL: url, Code: status}
	}
	return data, nil
}

// put sends an authorized PUT; anything but 200 is a failure.
func (c *Client) put(ctx context.Context, op, url string, body any) error {
	status, _, err := c.request(ctx, op, http.MethodPut, url, body, true)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &StatusError{Method: http.MethodPut, URL: url, Code: status}
	}
	return nil
}

// link is a HAL link object.
type link struct {
	Href string `json:"href"`
}

// halLinks is the "_links" section shared by every resource.
type halLinks map[string]link

func (l halLinks) href(name string) (string, error) {
	v, ok := l[name]
	if !ok || v.Href == "" {
		return "", missing("_links." + name)
	}
	return v.Href, nil
}
