package insights

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterFiltersBySession(t *testing.T) {
	b := NewBroadcaster()
	mine, cancelMine := b.Subscribe("s1")
	defer cancelMine()
	all, cancelAll := b.Subscribe("")
	defer cancelAll()

	b.Publish(ViewEvent{Session: "s2", Kind: "filters"})
	b.Publish(ViewEvent{Session: "s1", Kind: "collection", Target: "Clientes"})

	select {
	case e := <-mine:
		if e.Session != "s1" || e.Kind != "collection" {
			t.Fatalf("unexpected event %+v", e)
		}
		if e.At.IsZero() {
			t.Fatalf("expected publish to stamp the event time")
		}
	default:
		t.Fatalf("expected event to be delivered")
	}
	select {
	case e := <-mine:
		t.Fatalf("did not expect another event, got %+v", e)
	default:
	}
	assert.Len(t, all, 2)
}

func TestBroadcasterCancelClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe("s1")
	assert.Equal(t, 1, b.Subscribers())
	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, b.Subscribers())
}

func TestBroadcasterDropsEventsForSlowSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe("s1")
	defer cancel()
	for i := 0; i < 20; i++ {
		b.Publish(ViewEvent{Session: "s1", Kind: "chart.variant"})
	}
	assert.Len(t, ch, cap(ch))
}

func TestBroadcasterServeWebSocket(t *testing.T) {
	b := NewBroadcaster()
	srv := httptest.NewServer(http.HandlerFunc(b.ServeWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?session=s1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	b.Publish(ViewEvent{Session: "s2", Kind: "ignored"})
	b.Publish(ViewEvent{Session: "s1", Kind: "modal.open", Target: "seller"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var got ViewEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "modal.open", got.Kind)
	assert.Equal(t, "seller", got.Target)
}
