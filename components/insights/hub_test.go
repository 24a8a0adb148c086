package insights

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestHubEvictsIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	hub := NewHub(HubOptions{
		Controller:  Options{Gateway: newFakeGateway()},
		IdleTimeout: 10 * time.Minute,
		Now:         clock.Now,
	})

	idle := hub.Create()
	active := hub.Create()
	assert.NotEqual(t, idle.ID(), active.ID())
	assert.Equal(t, 2, hub.Len())

	clock.Advance(8 * time.Minute)
	_, ok := hub.Get(active.ID())
	require.True(t, ok)
	clock.Advance(5 * time.Minute)

	assert.Equal(t, 1, hub.Evict())
	_, ok = hub.Get(idle.ID())
	assert.False(t, ok)
	_, ok = hub.Get(active.ID())
	assert.True(t, ok)
}

func TestHubGetOrCreate(t *testing.T) {
	hub := NewHub(HubOptions{Controller: Options{Gateway: newFakeGateway()}})
	first, created := hub.GetOrCreate("missing")
	assert.True(t, created)
	again, created := hub.GetOrCreate(first.ID())
	assert.False(t, created)
	assert.Same(t, first, again)

	assert.True(t, hub.Remove(first.ID()))
	assert.False(t, hub.Remove(first.ID()))
	assert.Equal(t, 0, hub.Len())
}

func TestHubSessionsShareLayoutStore(t *testing.T) {
	gw := newFakeGateway().set(CollectionClients.SummaryPath(), clientsPayload())
	hub := NewHub(HubOptions{Controller: Options{Gateway: gw}})
	ctx := context.Background()

	a := hub.Create()
	_, err := a.SelectCollection(ctx, CollectionClients)
	require.NoError(t, err)
	_, err = a.SaveLayout(ctx, []WidgetPlacement{{ID: "mainChart1", X: 6, Y: 3, W: 6, H: 5}})
	require.NoError(t, err)

	b := hub.Create()
	view, err := b.SelectCollection(ctx, CollectionClients)
	require.NoError(t, err)
	assert.Contains(t, view.Layout, WidgetPlacement{ID: "mainChart1", X: 6, Y: 3, W: 6, H: 5})
}

func TestHubRunStopsWithContext(t *testing.T) {
	hub := NewHub(HubOptions{Controller: Options{Gateway: newFakeGateway()}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Run to return after cancel")
	}
}
