package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/listenupapp/readtrack/internal/domain"
)

// Beacon queues rec for best-effort delivery and returns at once.
// There is no result to wait for; a nil error only means the payload was accepted.
func (c *Client) Beacon(rec domain.SessionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return wrapError("beacon", rec.BookID, fmt.Errorf("encode record: %w", err))
	}
	if len(payload) > MaxBeaconBytes {
		return wrapError("beacon", rec.BookID, ErrBeaconTooLarge)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return wrapError("beacon", rec.BookID, ErrClosed)
	}

	select {
	case c.queue <- beacon{bookID: rec.BookID, payload: payload}:
		return nil
	default:
		return wrapError("beacon", rec.BookID, ErrBeaconQueueFull)
	}
}

// Close stops accepting beacons and waits for queued ones to be posted, or for ctx to end.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush beacons: %w", ctx.Err())
	}
}

func (c *Client) beaconLoop() {
	defer close(c.done)

	for b := range c.queue {
		if err := c.postBeacon(b); err != nil {
			c.logger.Warn("beacon delivery failed",
				"book_id", b.bookID,
				"error", err,
			)
			continue
		}
		c.logger.Debug("beacon delivered", "book_id", b.bookID)
	}
}

// postBeacon sends the payload the way a page-unload beacon would: text/plain body,
// credentials in the query string, response ignored beyond its status.
func (c *Client) postBeacon(b beacon) error {
	query := url.Values{}
	if c.token != "" {
		query.Set("token", c.token)
	}
	if c.deviceID != "" {
		query.Set("device_id", c.deviceID)
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + beaconPath
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, u.String(), bytes.NewReader(b.payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
