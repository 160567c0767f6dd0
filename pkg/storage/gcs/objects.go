package gcs

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
)

// ErrObjectNotFound is returned when the requested object does not exist.
var ErrObjectNotFound = errors.New("gcs: object not found")

// ObjectName prepends the configured prefix to an artifact name.
func (c *Client) ObjectName(name string) string {
	name = strings.TrimLeft(name, "/")
	if c == nil || c.objectPrefix == "" {
		return name
	}
	return c.objectPrefix + "/" + name
}

// WriteJSON marshals v and uploads it to the named object, fully replacing
// any previous contents. Writes land at a stable path; GCS gives last-write-wins
// with no partial objects.
func (c *Client) WriteJSON(ctx context.Context, name string, v any) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}

	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf(
		"%s/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		c.baseURL,
		url.PathEscape(c.defaultBucket),
		url.QueryEscape(c.ObjectName(name)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("uploading %s: %s: %s", name, resp.Status, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// ReadJSON downloads the named object and unmarshals it into out.
func (c *Client) ReadJSON(ctx context.Context, name string, out any) error {
	raw, err := c.ReadObject(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}

// ReadObject downloads the named object's raw bytes.
func (c *Client) ReadObject(ctx context.Context, name string) ([]byte, error) {
	if c == nil || c.tokenSource == nil {
		return nil, errors.New("gcs client not initialized")
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		c.baseURL,
		url.PathEscape(c.defaultBucket),
		url.PathEscape(c.ObjectName(name)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrObjectNotFound
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("downloading %s: %s: %s", name, resp.Status, strings.TrimSpace(string(snippet)))
	}

	return io.ReadAll(resp.Body)
}
