package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/bidfoundry/quotient/internal/events"
)

func newTestFeed(t *testing.T) (*LiveFeed, *events.Bus, *httptest.Server) {
	t.Helper()

	bus := events.NewBus(zerolog.Nop())
	feed := NewLiveFeed(bus, zerolog.Nop())
	feed.Start()
	t.Cleanup(feed.Stop)

	ts := httptest.NewServer(http.HandlerFunc(feed.ServeHTTP))
	t.Cleanup(ts.Close)

	return feed, bus, ts
}

func dialFeed(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return conn
}

func waitForClients(t *testing.T, feed *LiveFeed, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if feed.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d connected clients, have %d", want, feed.ClientCount())
}

func TestLiveFeedBroadcastsBusEvents(t *testing.T) {
	feed, bus, ts := newTestFeed(t)

	conn := dialFeed(t, ts)
	defer conn.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, feed, 1)

	bus.Emit(events.TenderCreated, "tenders", map[string]interface{}{
		"tender_id":      "tnd-live-1",
		"reference_code": "RFP/2026/LIVE/001",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgType, frame, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, msgType)

	var event events.Event
	require.NoError(t, json.Unmarshal(frame, &event))
	assert.Equal(t, events.TenderCreated, event.Type)
	assert.Equal(t, "tenders", event.Module)
	assert.Equal(t, "tnd-live-1", event.Data["tender_id"])
}

func TestLiveFeedFansOutToAllClients(t *testing.T) {
	feed, bus, ts := newTestFeed(t)

	first := dialFeed(t, ts)
	defer first.Close(websocket.StatusNormalClosure, "")
	second := dialFeed(t, ts)
	defer second.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, feed, 2)

	bus.Emit(events.RanksUpdated, "ranking", map[string]interface{}{"count": 3.0})

	for _, conn := range []*websocket.Conn{first, second} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, frame, err := conn.Read(ctx)
		cancel()
		require.NoError(t, err)

		var event events.Event
		require.NoError(t, json.Unmarshal(frame, &event))
		assert.Equal(t, events.RanksUpdated, event.Type)
	}
}

func TestLiveFeedStartIsIdempotent(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	feed := NewLiveFeed(bus, zerolog.Nop())

	feed.Start()
	feed.Start()
	defer feed.Stop()

	// Double Start must not double-subscribe.
	assert.Equal(t, 1, bus.SubscriberCount(events.TenderCreated))
	assert.Equal(t, 1, bus.SubscriberCount(events.BidPriced))
}

func TestLiveFeedStopClosesClients(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	feed := NewLiveFeed(bus, zerolog.Nop())
	feed.Start()

	ts := httptest.NewServer(http.HandlerFunc(feed.ServeHTTP))
	defer ts.Close()

	conn := dialFeed(t, ts)
	defer conn.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, feed, 1)

	feed.Stop()

	assert.Equal(t, 0, feed.ClientCount())
	assert.Equal(t, 0, bus.SubscriberCount(events.TenderCreated))

	// The server closed the connection; the next read must fail.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	assert.Error(t, err)
}
