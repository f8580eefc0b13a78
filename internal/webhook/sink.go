package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/relaygate/tbucket"
	"github.com/relaygate/tbucket/internal/bufpool"
)

// outboxPool reuses the byte slices a Sink encodes its JSON payload
// into, since Publish may be called at the rate a Limiter emits events.
var outboxPool = bufpool.NewBytes(256, 8*1024, 2)

// Sink implements tbucket.EventSink by POSTing each event as JSON to a
// fixed URL. Delivery is fire-and-forget from the limiter's point of
// view: Publish launches the request on its own goroutine so a slow or
// unreachable receiver never backs up the Limiter's event dispatcher.
type Sink struct {
	url     string
	client  *Client
	log     *zap.Logger
	timeout time.Duration
}

// NewSink builds a Sink that posts to url, validated with
// IsValidHTTPAddress, using client for delivery.
func NewSink(url string, client *Client, log *zap.Logger, timeout time.Duration) (*Sink, error) {
	if !IsValidHTTPAddress(url) {
		return nil, fmt.Errorf("webhook: invalid sink address %q", url)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Sink{url: url, client: client, log: log, timeout: timeout}, nil
}

// Publish implements tbucket.EventSink.
func (s *Sink) Publish(ev tbucket.Event) {
	buf := outboxPool.Get(256).([]byte)
	out, err := json.Marshal(envelope{Kind: kindOf(ev), Event: ev})
	if err != nil {
		s.log.Error("webhook: marshal event", zap.Error(err))
		return
	}
	buf = append(buf, out...)

	go func(payload []byte) {
		defer outboxPool.Put(payload[:0])
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
		if err != nil {
			s.log.Error("webhook: build request", zap.Error(err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		if _, err := s.client.SendEntity(req, s.timeout); err != nil {
			s.log.Warn("webhook: delivery failed", zap.Error(err), zap.String("url", s.url))
		}
	}(buf)
}

type envelope struct {
	Kind  string        `json:"kind"`
	Event tbucket.Event `json:"payload"`
}

func kindOf(ev tbucket.Event) string {
	switch ev.(type) {
	case tbucket.SuccessEvent:
		return "success"
	case tbucket.FailureEvent:
		return "failure"
	case tbucket.DrainedEvent:
		return "drained"
	default:
		return "unknown"
	}
}
