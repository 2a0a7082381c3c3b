// Package storageclient is the cache side's facade onto a remote store
// service. It treats that service as an untrusted, occasionally
// unreachable dependency: every call carries its own timeout, and no
// failure here is allowed to propagate as anything other than a plain
// miss/false to the caller — the cache must stay in a well-defined state
// no matter what the store does.
package storageclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"
)

const (
	defaultHealthTimeout = 2 * time.Second
	defaultIOTimeout     = 5 * time.Second
)

// envelope mirrors the response shape every corekv HTTP surface returns;
// storageclient only needs to read it, never produce it.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type dataPayload struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Client talks to a remote store service over HTTP.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	healthTimeout time.Duration
	ioTimeout     time.Duration
	log           *slog.Logger

	// enabled is the kill switch. Atomic so Enable/Disable/IsEnabled
	// never need a mutex on the hot path.
	enabled atomic.Bool
}

// New constructs a Client pointed at baseURL (e.g. "http://localhost:3002").
// The client starts enabled.
func New(baseURL string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		baseURL:       baseURL,
		httpClient:    &http.Client{},
		healthTimeout: defaultHealthTimeout,
		ioTimeout:     defaultIOTimeout,
		log:           log,
	}
	c.enabled.Store(true)
	return c
}

// Enable turns the kill switch on: operations resume performing I/O.
func (c *Client) Enable() { c.enabled.Store(true) }

// Disable turns the kill switch off: every operation becomes a no-op that
// reports failure without touching the network.
func (c *Client) Disable() { c.enabled.Store(false) }

// IsEnabled reports the kill switch's current state.
func (c *Client) IsEnabled() bool { return c.enabled.Load() }

// Available probes the store's health endpoint with a short timeout.
func (c *Client) Available(ctx context.Context) bool {
	if !c.IsEnabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Save write-throughs key/value to the store. Any failure — disabled
// client, network error, timeout, non-2xx response — resolves to false;
// the cache is never blocked on a detailed error here.
func (c *Client) Save(ctx context.Context, key string, value any) bool {
	if !c.IsEnabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, c.ioTimeout)
	defer cancel()

	body, err := json.Marshal(dataPayload{Key: key, Value: value})
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/data", bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("storageclient: save failed", "key", key, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("storageclient: save rejected", "key", key, "status", resp.StatusCode)
		return false
	}
	return true
}

// Load fetches key's value from the store. Metadata is discarded; a
// 404-equivalent and any failure both map to (nil, false).
func (c *Client) Load(ctx context.Context, key string) (any, bool) {
	if !c.IsEnabled() {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, c.ioTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/data/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("storageclient: load failed", "key", key, "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || !env.Success {
		return nil, false
	}
	var payload dataPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, false
	}
	return payload.Value, true
}

// Delete removes key from the store, reporting success.
func (c *Client) Delete(ctx context.Context, key string) bool {
	if !c.IsEnabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, c.ioTimeout)
	defer cancel()

	path := fmt.Sprintf("%s/api/data/%s", c.baseURL, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("storageclient: delete failed", "key", key, "error", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
