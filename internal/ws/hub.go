package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/licensedesk/api/internal/ledger"
	"go.uber.org/zap"
)

// AllAgents is the room key for clients that follow every agent.
var AllAgents = uuid.Nil

// Observer is told about subscriber churn. Satisfied by *metrics.Metrics.
type Observer interface {
	FeedSubscribed(delta int)
	FeedDropped()
}

type noopObserver struct{}

func (noopObserver) FeedSubscribed(int) {}
func (noopObserver) FeedDropped()       {}

// Hub maintains the set of active clients and fans ledger events out to them
type Hub struct {
	// Registered clients by agent ID; AllAgents holds unfiltered clients
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// Outbound events; publishers never block on it
	broadcast chan ledger.Event

	// Closed when Run returns
	done chan struct{}

	mu       sync.RWMutex
	observer Observer
	log      *zap.Logger
}

// NewHub creates a new Hub. observer and log may be nil.
func NewHub(observer Observer, log *zap.Logger) *Hub {
	if observer == nil {
		observer = noopObserver{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan ledger.Event, 256),
		done:       make(chan struct{}),
		observer:   observer,
		log:        log,
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled, closing
// every client.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for agentID, clients := range h.rooms {
				for client := range clients {
					close(client.send)
					h.observer.FeedSubscribed(-1)
				}
				delete(h.rooms, agentID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.agentID] == nil {
				h.rooms[client.agentID] = make(map[*Client]bool)
			}
			h.rooms[client.agentID][client] = true
			h.mu.Unlock()
			h.observer.FeedSubscribed(1)

		case client := <-h.unregister:
			h.mu.Lock()
			if h.removeLocked(client) {
				close(client.send)
				h.observer.FeedSubscribed(-1)
			}
			h.mu.Unlock()

		case evt := <-h.broadcast:
			// Marshal event to JSON once
			message, err := json.Marshal(evt)
			if err != nil {
				h.log.Error("marshal ledger event", zap.Error(err))
				continue
			}

			h.mu.Lock()
			h.deliverLocked(evt.Payload.AgentID, message)
			h.deliverLocked(AllAgents, message)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) deliverLocked(room uuid.UUID, message []byte) {
	for client := range h.rooms[room] {
		select {
		case client.send <- message:
		default:
			// Client's send buffer is full, drop it rather than stall the feed
			h.removeLocked(client)
			close(client.send)
			h.observer.FeedSubscribed(-1)
			h.observer.FeedDropped()
			h.log.Warn("dropped slow feed client", zap.String("agent_id", client.agentID.String()))
		}
	}
}

// removeLocked deletes client from its room and reports whether it was there.
func (h *Hub) removeLocked(client *Client) bool {
	clients, ok := h.rooms[client.agentID]
	if !ok {
		return false
	}
	if _, exists := clients[client]; !exists {
		return false
	}
	delete(clients, client)
	// Clean up empty rooms
	if len(clients) == 0 {
		delete(h.rooms, client.agentID)
	}
	return true
}

// join registers client unless the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters client; a no-op once the hub has stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishLedgerEvent queues evt for delivery without blocking. When the
// queue is full the event is dropped for feed clients only; the ledger
// write it describes is already committed.
func (h *Hub) PublishLedgerEvent(evt ledger.Event) {
	select {
	case h.broadcast <- evt:
	default:
		h.log.Warn("ledger feed queue full, event dropped",
			zap.String("type", evt.Type),
			zap.String("id", evt.Payload.ID.String()),
		)
	}
}
