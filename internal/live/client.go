package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
)

// WatchEvent is a decoded wireEvent ready for display by a watcher such
// as the tbucketd watch subcommand.
type WatchEvent struct {
	Kind    string
	Payload json.RawMessage
}

// Client dials a running Hub's /ws endpoint and delivers every broadcast
// event to a callback until ctx is cancelled or the connection drops.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to the websocket endpoint served by a Hub at addr
// (host:port, no scheme).
func Dial(addr string) (*Client, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("live: dial %s: %w", u.String(), err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying websocket connection.
func (c *Client) Close() error { return c.conn.Close() }

// Watch reads events until ctx is cancelled, the connection closes, or
// onEvent returns an error, whichever comes first.
func (c *Client) Watch(ctx context.Context, onEvent func(WatchEvent) error) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("live: read: %w", err)
		}
		var we wireEvent
		if err := json.Unmarshal(data, &we); err != nil {
			continue
		}
		payload, err := json.Marshal(we.Payload)
		if err != nil {
			continue
		}
		if err := onEvent(WatchEvent{Kind: we.Kind, Payload: payload}); err != nil {
			return err
		}
	}
}
