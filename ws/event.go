// Package ws implements the push transport: a WebSocket hub that groups
// connections into rooms (chat rooms and per-user notification channels)
// and fans events out to them.
//
// Event flow:
//  1. A client connects with ?token=, sends register, then join for each
//     channel it wants.
//  2. Services publish through EventPublisher (notifications to user:<id>).
//  3. Clients mirror confirmed chat messages with op "message"; the hub
//     relays them to every connection joined to that room, sender included.
//  4. Each Client's WritePump writes the encoded event to its socket.
//
// The realtime package uses the same Event and payload types on the
// client side.
package ws

import (
	"encoding/json"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
)

// Event is one frame on the socket.
//
// Seq is stamped by the hub on every outbound event; clients can use gaps
// to detect loss but the realtime core relies on id de-duplication instead.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client -> server
const (
	OpHeartbeat = "heartbeat"
	OpRegister  = "register"
	OpJoin      = "join"
	OpLeave     = "leave"
)

// Server -> client
const (
	OpReady        = "ready"
	OpHeartbeatAck = "heartbeat_ack"
	OpNotification = "notification"
	OpError        = "error"
)

// OpMessage travels both ways: clients send the server-confirmed message,
// the hub relays it to the room.
const OpMessage = "message"

// RegisterData binds the connection to a user. UserID must match the token.
type RegisterData struct {
	UserID string `json:"user_id"`
}

// ChannelData is the payload of join and leave.
type ChannelData struct {
	Channel string `json:"channel"`
}

// MessageData carries a persisted chat message for a room.
type MessageData struct {
	ChannelID string         `json:"channel_id"`
	Message   models.Message `json:"message"`
}

// ReadyData answers a successful register.
type ReadyData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// ErrorData reports a rejected client op. The connection stays open.
type ErrorData struct {
	Op      string `json:"op"`
	Message string `json:"message"`
}

// DecodeData converts the loosely typed Data of a decoded Event into v.
func DecodeData(event Event, v any) error {
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
