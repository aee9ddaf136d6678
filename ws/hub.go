package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
)

// EventPublisher is what services see of the hub.
type EventPublisher interface {
	BroadcastToRoom(room string, event Event)
	BroadcastToUser(userID string, event Event)
}

// RoomAuthorizer decides whether a user may join a chat room. Personal
// channels are checked by the hub itself.
type RoomAuthorizer interface {
	CanJoin(ctx context.Context, userID, room string) (bool, error)
}

// MessageLookup loads a stored message. The hub relays the stored copy of
// a mirrored message, never the body the client sent.
type MessageLookup interface {
	GetByID(ctx context.Context, id string) (*models.Message, error)
}

// Relay forwards room broadcasts to other server instances. The hub calls
// Publish after local delivery; the relay feeds remote payloads back in
// through DeliverRemote.
type Relay interface {
	Publish(ctx context.Context, room string, payload []byte) error
}

// Hub tracks connections by user and by room.
type Hub struct {
	clients map[string]map[*Client]bool // userID -> connections
	rooms   map[string]map[*Client]bool // room -> connections

	mu sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once

	seq atomic.Int64

	authorizer RoomAuthorizer
	relay      Relay
	messages   MessageLookup
}

// NewHub creates a hub. authorizer may be nil, in which case every chat
// room join is allowed.
func NewHub(authorizer RoomAuthorizer) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		authorizer: authorizer,
	}
}

// SetRelay attaches a cross-instance relay. Call before Run.
func (h *Hub) SetRelay(r Relay) {
	h.relay = r
}

// SetMessageLookup makes message mirrors relay the stored row. Without a
// lookup the client's copy is relayed as is. Call before Run.
func (h *Hub) SetMessageLookup(l MessageLookup) {
	h.messages = l
}

// Run processes register/unregister until Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// addClient indexes a new connection by user. Rooms come later through
// Join.
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	log.Printf("[ws] client connected: user=%s (connections for user: %d)",
		client.userID, len(h.clients[client.userID]))
}

// removeClient drops client from every room and closes its send channel,
// which ends its WritePump. Removing twice is a no-op.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}

	for room := range client.rooms {
		h.leaveLocked(client, room)
	}

	delete(clients, client)
	client.closed = true
	close(client.send)

	if len(clients) == 0 {
		delete(h.clients, client.userID)
		log.Printf("[ws] user fully disconnected: %s", client.userID)
	} else {
		log.Printf("[ws] client disconnected: user=%s (remaining: %d)", client.userID, len(clients))
	}
}

// Join subscribes client to room. Joining twice is a no-op.
func (h *Hub) Join(ctx context.Context, client *Client, room string) error {
	if room == "" {
		return fmt.Errorf("channel is required")
	}

	// ─── Authorize ───
	//
	// Personal channels belong to one user; chat rooms ask the authorizer.
	// The check runs before h.mu is taken.
	if owner, ok := models.PersonalChannelOwner(room); ok {
		if owner != client.userID {
			return fmt.Errorf("cannot join another user's channel")
		}
	} else if h.authorizer != nil {
		allowed, err := h.authorizer.CanJoin(ctx, client.userID, room)
		if err != nil {
			return fmt.Errorf("membership check failed: %w", err)
		}
		if !allowed {
			return fmt.Errorf("not a member of %s", room)
		}
	}

	// ─── Subscribe ───
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.rooms[room] {
		return nil
	}
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.rooms[room] = true
	return nil
}

// Leave unsubscribes client from room.
func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, room)
}

// leaveLocked must be called with h.mu held. Empty rooms are deleted.
func (h *Hub) leaveLocked(client *Client, room string) {
	delete(client.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// InRoom reports whether client is joined to room.
func (h *Hub) InRoom(client *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return client.rooms[room]
}

// RoomSize returns the number of connections joined to room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// BroadcastToRoom sends event to every local connection in room and hands
// the encoded frame to the relay, if any.
func (h *Hub) BroadcastToRoom(room string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal room event: %v", err)
		return
	}

	h.deliver(room, data)

	if h.relay != nil {
		if err := h.relay.Publish(context.Background(), room, data); err != nil {
			log.Printf("[ws] relay publish failed for room %s: %v", room, err)
		}
	}
}

// DeliverRemote delivers a frame that another instance already encoded.
func (h *Hub) DeliverRemote(room string, data []byte) {
	h.deliver(room, data)
}

// deliver writes an encoded frame to every local connection in room.
func (h *Hub) deliver(room string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		h.trySend(client, data)
	}
}

// BroadcastToUser sends event to every connection of userID, joined or not.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal user event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		h.trySend(client, data)
	}
}

// trySend must be called with h.mu held (read or write).
func (h *Hub) trySend(client *Client, data []byte) {
	if client.closed {
		return
	}
	// a full buffer means the client stopped reading; drop it
	select {
	case client.send <- data:
	default:
		go func(c *Client) {
			select {
			case h.unregister <- c:
			case <-h.done:
			}
		}(client)
	}
}

// OnlineUserIDs lists users with at least one connection.
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// Shutdown closes every connection's send channel, which makes each
// WritePump send a close frame and exit.
func (h *Hub) Shutdown() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		for _, clients := range h.clients {
			for client := range clients {
				client.closed = true
				close(client.send)
			}
		}
		h.clients = make(map[string]map[*Client]bool)
		h.rooms = make(map[string]map[*Client]bool)
		h.mu.Unlock()

		close(h.done)
		log.Println("[ws] hub shut down, all connections closed")
	})
}
