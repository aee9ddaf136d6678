package realtime

import (
	"log"
	"sync/atomic"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/ws"
)

// Dispatcher folds inbound push events into State. It never talks back
// to the server. Events without an id, or whose id is already present,
// are dropped silently: the sender receives its own broadcast, and the
// transport may deliver more than once.
type Dispatcher struct {
	state *State
	debug atomic.Bool
}

// NewDispatcher creates a dispatcher writing into state.
func NewDispatcher(state *State) *Dispatcher {
	return &Dispatcher{state: state}
}

// SetDebug logs every dropped event when on.
func (d *Dispatcher) SetDebug(on bool) {
	d.debug.Store(on)
}

// Dispatch applies ev and reports whether state changed.
func (d *Dispatcher) Dispatch(ev ws.Event) bool {
	switch ev.Op {
	case ws.OpMessage:
		return d.dispatchMessage(ev)
	case ws.OpNotification:
		return d.dispatchNotification(ev)
	default:
		d.drop(ev.Op, "unhandled op")
		return false
	}
}

func (d *Dispatcher) dispatchMessage(ev ws.Event) bool {
	var data ws.MessageData
	if err := ws.DecodeData(ev, &data); err != nil {
		d.drop(ev.Op, "undecodable payload")
		return false
	}

	channel := data.ChannelID
	if channel == "" {
		channel = data.Message.ChatID
	}
	if data.Message.ID == "" || channel == "" {
		d.drop(ev.Op, "missing id or channel")
		return false
	}

	if !d.state.appendMessage(channel, data.Message) {
		d.drop(ev.Op, "duplicate "+data.Message.ID)
		return false
	}
	return true
}

func (d *Dispatcher) dispatchNotification(ev ws.Event) bool {
	var n models.Notification
	if err := ws.DecodeData(ev, &n); err != nil {
		d.drop(ev.Op, "undecodable payload")
		return false
	}
	if n.ID == "" {
		d.drop(ev.Op, "missing id")
		return false
	}
	if n.Read {
		return false
	}

	if !d.state.prependNotification(n) {
		d.drop(ev.Op, "duplicate "+n.ID)
		return false
	}
	return true
}

// LoadHistory merges a fetched message history under the same rules.
func (d *Dispatcher) LoadHistory(channel string, history []models.Message) int {
	if channel == "" {
		return 0
	}
	return d.state.mergeHistory(channel, history)
}

// LoadNotifications installs a fetched notification list.
func (d *Dispatcher) LoadNotifications(list []models.Notification) {
	d.state.replaceNotifications(list)
}

func (d *Dispatcher) drop(op, reason string) {
	if d.debug.Load() {
		log.Printf("[realtime] dropped %s event: %s", op, reason)
	}
}
