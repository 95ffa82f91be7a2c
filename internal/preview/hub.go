package preview

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"orbduel/logging"
	"orbduel/logging/session"
)

// subscriberBuffer is how many frames a viewer may fall behind before the
// hub starts dropping frames for it. The simulation never waits.
const subscriberBuffer = 16

// wsConn is the connection surface the hub needs; tests substitute a
// recorder.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type subscriber struct {
	conn wsConn
	addr string
	send chan []byte
	done chan struct{}
	once sync.Once
}

// Hub fans snapshot messages out to every connected viewer. Each viewer has
// its own writer goroutine and bounded queue, so one stalled connection can
// only lose its own frames. Late joiners get the greeting and the latest
// snapshot immediately.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	hello  []byte
	last   []byte
	closed bool

	pub     logging.Publisher
	dropped atomic.Uint64
}

func newHub(pub logging.Publisher) *Hub {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		pub:  pub,
	}
}

// SetHello sets the greeting sent to every viewer on attach, before any
// snapshot.
func (h *Hub) SetHello(data []byte) {
	h.mu.Lock()
	h.hello = data
	h.mu.Unlock()
}

// Attach registers a connection and starts its writer. The returned
// subscriber is already queued with the greeting and the most recent
// snapshot, if any. A closed hub refuses the connection.
func (h *Hub) Attach(conn wsConn, addr string) (*subscriber, bool) {
	sub := &subscriber{
		conn: conn,
		addr: addr,
		send: make(chan []byte, subscriberBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, false
	}
	h.subs[sub] = struct{}{}
	viewers := len(h.subs)
	if h.hello != nil {
		sub.send <- h.hello
	}
	if h.last != nil {
		sub.send <- h.last
	}
	h.mu.Unlock()

	go h.write(sub)
	session.ViewerJoined(context.Background(), h.pub, addr, viewers)
	return sub, true
}

// Detach removes a subscriber and closes its connection. Safe to call more
// than once.
func (h *Hub) Detach(sub *subscriber) {
	if sub == nil {
		return
	}
	sub.once.Do(func() {
		h.mu.Lock()
		delete(h.subs, sub)
		viewers := len(h.subs)
		h.mu.Unlock()

		close(sub.done)
		sub.conn.Close()
		session.ViewerLeft(context.Background(), h.pub, sub.addr, viewers)
	})
}

// Broadcast queues a snapshot message for every viewer, dropping it for any
// viewer whose queue is full. The latest message is retained for late
// joiners.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.last = data
	targets := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
}

// Dropped counts frames discarded because a viewer fell behind.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Viewers reports the number of attached connections.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches every viewer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	targets := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		h.Detach(sub)
	}
}

// write pumps queued messages to one connection until it fails or the
// subscriber detaches.
func (h *Hub) write(sub *subscriber) {
	for {
		select {
		case <-sub.done:
			return
		case data := <-sub.send:
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.Detach(sub)
				return
			}
		}
	}
}
