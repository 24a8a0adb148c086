package insights

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ViewEvent announces that a session's view state changed.
type ViewEvent struct {
	Session string    `json:"session"`
	Kind    string    `json:"kind"`
	Target  string    `json:"target,omitempty"`
	At      time.Time `json:"at"`
}

// EventPublisher receives view events from controllers.
type EventPublisher interface {
	Publish(event ViewEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(ViewEvent) {}

type subscriber struct {
	session string
	ch      chan ViewEvent
}

// Broadcaster fans view events out to in-process subscribers so every tab of a
// session stays in sync.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

// NewBroadcaster creates a broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]subscriber)}
}

// Publish delivers event to matching subscribers. Slow subscribers miss events.
func (b *Broadcaster) Publish(event ViewEvent) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.session != "" && sub.session != event.Session {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Subscribe returns the events of one session (or all sessions when session is empty)
// and a cancel func.
func (b *Broadcaster) Subscribe(session string) (<-chan ViewEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan ViewEvent, 8)
	b.subs[id] = subscriber{session: session, ch: ch}
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams the session's events as JSON.
func (b *Broadcaster) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer conn.Close()

	events, cancel := b.Subscribe(r.URL.Query().Get("session"))
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE streams the session's events as Server-Sent Events.
func (b *Broadcaster) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	events, cancel := b.Subscribe(r.URL.Query().Get("session"))
	defer cancel()

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			w.Write([]byte("data: "))
			if err := encoder.Encode(event); err != nil {
				return
			}
			w.Write([]byte("\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
