package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
)

const (
	writeWait = 10 * time.Second

	// Clients heartbeat every 30s; three missed beats drop the connection.
	pongWait = 90 * time.Second

	// Large enough for a 2000-rune message mirror plus its envelope.
	maxMessageSize = 16 * 1024

	sendBufferSize = 256

	joinTimeout = 5 * time.Second

	lookupTimeout = 5 * time.Second
)

// Client is one WebSocket connection. A user may hold several.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	userID   string
	username string

	send chan []byte

	// guarded by hub.mu
	rooms  map[string]bool
	closed bool

	registered atomic.Bool

	mu sync.Mutex // serialises conn writes
}

func newClient(hub *Hub, conn *websocket.Conn, userID, username string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		userID:   userID,
		username: username,
		send:     make(chan []byte, sendBufferSize),
		rooms:    make(map[string]bool),
	}
}

// ReadPump reads frames until the connection fails, then unregisters.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Printf("[ws] invalid frame from user %s: %v", c.userID, err)
			continue
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	case OpRegister:
		c.handleRegister(event)

	case OpJoin:
		c.handleJoin(event)

	case OpLeave:
		c.handleLeave(event)

	case OpMessage:
		c.handleMessage(event)

	default:
		log.Printf("[ws] unknown op from user %s: %s", c.userID, event.Op)
	}
}

func (c *Client) handleRegister(event Event) {
	var data RegisterData
	if err := DecodeData(event, &data); err != nil {
		c.sendError(event.Op, "invalid payload")
		return
	}

	if data.UserID != c.userID {
		log.Printf("[ws] register mismatch: token user=%s, claimed=%s", c.userID, data.UserID)
		c.sendError(event.Op, "user does not match token")
		return
	}

	c.registered.Store(true)
	c.sendEvent(Event{Op: OpReady, Data: ReadyData{UserID: c.userID, Username: c.username}})
}

func (c *Client) handleJoin(event Event) {
	if !c.registered.Load() {
		c.sendError(event.Op, "register first")
		return
	}

	var data ChannelData
	if err := DecodeData(event, &data); err != nil {
		c.sendError(event.Op, "invalid payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()

	if err := c.hub.Join(ctx, c, data.Channel); err != nil {
		log.Printf("[ws] join rejected: user=%s channel=%s: %v", c.userID, data.Channel, err)
		c.sendError(event.Op, err.Error())
	}
}

func (c *Client) handleLeave(event Event) {
	var data ChannelData
	if err := DecodeData(event, &data); err != nil || data.Channel == "" {
		return
	}
	c.hub.Leave(c, data.Channel)
}

// handleMessage relays a sender's confirmed message to its room. The sender
// must be joined to the room and be the message author. With a message
// lookup, the stored row replaces whatever body the client sent.
func (c *Client) handleMessage(event Event) {
	var data MessageData
	if err := DecodeData(event, &data); err != nil {
		c.sendError(event.Op, "invalid payload")
		return
	}

	if data.ChannelID == "" {
		data.ChannelID = data.Message.ChatID
	}
	if data.Message.ID == "" || data.ChannelID == "" {
		c.sendError(event.Op, "message id and channel are required")
		return
	}
	if data.Message.SenderID != c.userID {
		c.sendError(event.Op, "can only relay own messages")
		return
	}
	if !c.hub.InRoom(c, data.ChannelID) {
		c.sendError(event.Op, "not joined to channel")
		return
	}

	if c.hub.messages != nil {
		stored, err := c.storedMessage(data.Message.ID)
		if err != nil {
			log.Printf("[ws] message lookup failed: user=%s id=%s: %v", c.userID, data.Message.ID, err)
			c.sendError(event.Op, "unknown message")
			return
		}
		if stored.ChatID != data.ChannelID || stored.SenderID != c.userID {
			c.sendError(event.Op, "message does not belong to this channel and sender")
			return
		}
		data.Message = *stored
	}

	c.hub.BroadcastToRoom(data.ChannelID, Event{Op: OpMessage, Data: data})
}

func (c *Client) storedMessage(id string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	return c.hub.messages.GetByID(ctx, id)
}

func (c *Client) sendError(op, message string) {
	c.sendEvent(Event{Op: OpError, Data: ErrorData{Op: op, Message: message}})
}

func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for user %s: %v", c.userID, err)
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	c.hub.trySend(c, data)
}

// WritePump drains the send channel onto the socket. A closed channel
// produces a close frame.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.writeMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
