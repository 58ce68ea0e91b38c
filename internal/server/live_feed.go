// Package server provides the HTTP server and routing for Quotient.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/bidfoundry/quotient/internal/events"
)

const (
	// liveWriteWait bounds a single frame write; a client that cannot
	// keep up is dropped rather than allowed to stall the broadcaster.
	liveWriteWait = 10 * time.Second

	// liveSendBuffer is the per-connection frame queue length.
	liveSendBuffer = 32
)

// liveFeedEvents are the bus events pushed to dashboard clients.
var liveFeedEvents = []events.EventType{
	events.SnapshotReloaded,
	events.RateAlert,
	events.TenderCreated,
	events.TenderUpdated,
	events.TenderArchived,
	events.TenderDeleted,
	events.TenderMatched,
	events.BidPriced,
	events.RanksUpdated,
	events.SettingsChanged,
	events.JobStarted,
	events.JobCompleted,
	events.JobFailed,
}

// liveClient is one websocket subscriber.
type liveClient struct {
	conn   *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
}

// LiveFeed broadcasts bus events to websocket clients as JSON frames.
// Dashboards subscribe at GET /api/live instead of polling.
type LiveFeed struct {
	eventBus *events.Bus
	log      zerolog.Logger

	mu      sync.RWMutex
	clients map[*liveClient]struct{}

	unsubscribes []func()
	started      bool
}

// NewLiveFeed creates the live event feed hub.
func NewLiveFeed(eventBus *events.Bus, log zerolog.Logger) *LiveFeed {
	return &LiveFeed{
		eventBus: eventBus,
		log:      log.With().Str("component", "live_feed").Logger(),
		clients:  make(map[*liveClient]struct{}),
	}
}

// Start subscribes the hub to the event bus. Idempotent.
func (f *LiveFeed) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return
	}
	f.started = true

	for _, eventType := range liveFeedEvents {
		unsubscribe := f.eventBus.Subscribe(eventType, f.broadcast)
		f.unsubscribes = append(f.unsubscribes, unsubscribe)
	}

	f.log.Info().Int("event_types", len(liveFeedEvents)).Msg("Live feed started")
}

// Stop detaches from the bus and closes every client connection.
func (f *LiveFeed) Stop() {
	f.mu.Lock()
	if !f.started {
		f.mu.Unlock()
		return
	}
	f.started = false
	unsubscribes := f.unsubscribes
	f.unsubscribes = nil

	clients := make([]*liveClient, 0, len(f.clients))
	for client := range f.clients {
		clients = append(clients, client)
	}
	f.clients = make(map[*liveClient]struct{})
	f.mu.Unlock()

	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
	for _, client := range clients {
		client.cancel()
		client.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}

	f.log.Info().Int("clients", len(clients)).Msg("Live feed stopped")
}

// ClientCount returns the number of connected subscribers.
func (f *LiveFeed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// ServeHTTP upgrades the request to a websocket and streams events until
// the client disconnects.
func (f *LiveFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Same stance as the HTTP CORS middleware: the API is open.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		f.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	client := &liveClient{
		conn:   conn,
		send:   make(chan []byte, liveSendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}

	f.mu.Lock()
	f.clients[client] = struct{}{}
	count := len(f.clients)
	f.mu.Unlock()

	f.log.Debug().Int("clients", count).Msg("Live feed client connected")

	go f.writeLoop(client)

	// Reads are drained so close frames and pings are processed; the feed
	// itself is one-way.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	f.removeClient(client)
	f.log.Debug().Msg("Live feed client disconnected")
}

// writeLoop pushes queued frames to one client.
func (f *LiveFeed) writeLoop(client *liveClient) {
	for {
		select {
		case <-client.ctx.Done():
			return
		case frame, ok := <-client.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(client.ctx, liveWriteWait)
			err := client.conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()

			if err != nil {
				f.removeClient(client)
				client.conn.Close(websocket.StatusPolicyViolation, "write timeout")
				return
			}
		}
	}
}

// broadcast fans one bus event out to every connected client. Slow
// clients with a full queue miss the frame instead of blocking the bus.
func (f *LiveFeed) broadcast(event *events.Event) {
	frame, err := json.Marshal(event)
	if err != nil {
		f.log.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to marshal event frame")
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for client := range f.clients {
		select {
		case client.send <- frame:
		default:
			f.log.Warn().Str("event_type", string(event.Type)).Msg("Live feed client queue full, frame dropped")
		}
	}
}

// removeClient drops a client from the hub. Safe to call twice.
func (f *LiveFeed) removeClient(client *liveClient) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.clients[client]; ok {
		delete(f.clients, client)
		client.cancel()
	}
}
