package insights

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultIdleTimeout evicts sessions nobody touched for this long.
const DefaultIdleTimeout = 30 * time.Minute

// HubOptions configures a Hub. Controller is the template every session is built from;
// its SessionID is ignored.
type HubOptions struct {
	Controller  Options
	IdleTimeout time.Duration
	Now         func() time.Time
}

type hubEntry struct {
	controller *Controller
	lastSeen   time.Time
}

// Hub keeps one Controller per session id.
type Hub struct {
	opts HubOptions

	mu       sync.Mutex
	sessions map[string]*hubEntry
}

// NewHub builds an empty hub.
func NewHub(opts HubOptions) *Hub {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	// sessions share one store so a saved layout applies to every session
	if opts.Controller.Layouts == nil {
		opts.Controller.Layouts = NewInMemoryLayoutStore()
	}
	if opts.Controller.LayoutValidator == nil {
		opts.Controller.LayoutValidator = NewSchemaLayoutValidator()
	}
	if opts.Controller.Defaults == nil {
		opts.Controller.Defaults = DefaultPlacements()
	}
	opts.Controller.Telemetry = normalizeTelemetry(opts.Controller.Telemetry)
	return &Hub{opts: opts, sessions: make(map[string]*hubEntry)}
}

// Create starts a new session with a fresh uuid.
func (h *Hub) Create() *Controller {
	opts := h.opts.Controller
	opts.SessionID = uuid.NewString()
	controller := NewController(opts)
	h.mu.Lock()
	h.sessions[controller.ID()] = &hubEntry{controller: controller, lastSeen: h.opts.Now()}
	h.mu.Unlock()
	h.opts.Controller.Telemetry.Record(context.Background(), "insights.session.create", map[string]any{"session": controller.ID()})
	return controller
}

// Get returns the session's controller and marks it as used.
func (h *Hub) Get(id string) (*Controller, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry, ok := h.sessions[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = h.opts.Now()
	return entry.controller, true
}

// GetOrCreate returns the session when it exists, otherwise a new one.
func (h *Hub) GetOrCreate(id string) (*Controller, bool) {
	if controller, ok := h.Get(id); ok {
		return controller, false
	}
	return h.Create(), true
}

// Remove closes and forgets a session.
func (h *Hub) Remove(id string) bool {
	h.mu.Lock()
	entry, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if ok {
		entry.controller.Close()
	}
	return ok
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Evict closes sessions idle for longer than the timeout and returns how many it closed.
func (h *Hub) Evict() int {
	cutoff := h.opts.Now().Add(-h.opts.IdleTimeout)
	h.mu.Lock()
	var stale []*Controller
	for id, entry := range h.sessions {
		if entry.lastSeen.Before(cutoff) {
			stale = append(stale, entry.controller)
			delete(h.sessions, id)
		}
	}
	h.mu.Unlock()
	for _, controller := range stale {
		controller.Close()
	}
	return len(stale)
}

// Run evicts idle sessions every interval until ctx is done.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.Evict(); n > 0 {
				h.opts.Controller.Telemetry.Record(ctx, "insights.session.evict", map[string]any{"count": n})
			}
		}
	}
}
