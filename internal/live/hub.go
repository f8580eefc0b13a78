// Package live implements a websocket EventSink: every event a Limiter
// emits is fanned out as JSON to every connected dashboard/CLI watcher,
// the same gorilla/websocket dependency the teacher uses for its own
// client/server pair, now wired to tbucket.Event instead of a bespoke
// wire protocol.
package live

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relaygate/tbucket"
	"github.com/relaygate/tbucket/internal/bufpool"
)

// wireEvent is the JSON envelope every event kind is rendered into
// before being broadcast; Kind lets a watcher demux without trying each
// event shape in turn.
type wireEvent struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var payloadBufPool = bufpool.NewBytes(256, 16*1024, 2)

// client is one connected watcher; outbox is buffered so one slow reader
// can't stall the Hub's broadcast loop.
type client struct {
	conn   *websocket.Conn
	outbox chan []byte
}

// Hub broadcasts every published Event to every currently connected
// websocket client. It implements tbucket.EventSink, so it can be
// registered with WithEventSink alongside a Prometheus or webhook sink.
type Hub struct {
	log *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub constructs a Hub ready to accept connections via ServeWS and
// publish events via Publish.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{log: log, clients: make(map[*client]struct{})}
}

// ServeWS upgrades r to a websocket connection and registers it as a
// broadcast target until the connection closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("live: upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, outbox: make(chan []byte, 64)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	go h.readLoop(c)
}

// readLoop exists only to notice the client going away; watchers never
// send the Hub anything meaningful.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for buf := range c.outbox {
		err := c.conn.WriteMessage(websocket.TextMessage, buf)
		payloadBufPool.Put(buf[:0])
		if err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.outbox)
}

// Publish implements tbucket.EventSink. It never blocks on a slow
// client: a client whose outbox is full misses this event (the client
// stays connected) rather than being allowed to back up the whole Hub.
func (h *Hub) Publish(ev tbucket.Event) {
	we := wireEvent{Kind: eventKind(ev), Payload: ev}
	buf := payloadBufPool.Get(256).([]byte)
	out, err := json.Marshal(we)
	if err != nil {
		h.log.Error("live: marshal event", zap.Error(err))
		return
	}
	buf = append(buf, out...)

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.outbox <- buf:
		default:
			h.log.Warn("live: client outbox full, dropping", zap.String("kind", we.Kind))
		}
	}
}

func eventKind(ev tbucket.Event) string {
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

// Close disconnects every connected client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.outbox)
		c.conn.Close()
	}
	h.clients = make(map[*client]struct{})
}
