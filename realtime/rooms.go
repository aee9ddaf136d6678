package realtime

import (
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/ws"
)

// Emitter sends one event over the push connection.
type Emitter interface {
	Emit(op string, data any) error
}

// Rooms is the Subscription Set: the channels this session wants to be
// joined to. It follows the single-active-conversation model: at most the
// active chat room plus the personal notification channel.
//
// A join directive is sent at most once per channel per connection
// lifetime. Channels added while offline are sent by Resubscribe.
type Rooms struct {
	mu       sync.Mutex
	emitter  Emitter
	joined   map[string]bool // channel -> directive sent on the current connection
	personal string
	active   string
}

// NewRooms creates an empty set that emits through e.
func NewRooms(e Emitter) *Rooms {
	return &Rooms{emitter: e, joined: make(map[string]bool)}
}

// Join adds channel to the set and sends a join directive. Joining a
// channel already in the set does nothing.
func (r *Rooms) Join(channel string) error {
	if channel == "" {
		return ErrChannelRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.joined[channel]; ok {
		return nil
	}
	r.joined[channel] = false
	r.sendJoinLocked(channel)
	return nil
}

// JoinPersonal joins user:<userID>. It is never left for the rest of the
// session.
func (r *Rooms) JoinPersonal(userID string) error {
	if userID == "" {
		return ErrNoSession
	}
	channel := models.PersonalChannel(userID)

	r.mu.Lock()
	r.personal = channel
	r.mu.Unlock()

	return r.Join(channel)
}

// Leave removes channel from the set and sends a leave directive.
func (r *Rooms) Leave(channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if channel != "" && channel == r.personal {
		return ErrPersonalChannel
	}
	r.leaveLocked(channel)
	return nil
}

func (r *Rooms) leaveLocked(channel string) {
	sent, ok := r.joined[channel]
	if !ok {
		return
	}
	delete(r.joined, channel)
	if r.active == channel {
		r.active = ""
	}
	if sent {
		r.emitLocked(ws.OpLeave, channel)
	}
}

// SwitchTo makes channel the active conversation: the previous active
// room is left first, then channel is joined.
func (r *Rooms) SwitchTo(channel string) error {
	if channel == "" {
		return ErrChannelRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev := r.active; prev != "" && prev != channel && prev != r.personal {
		r.leaveLocked(prev)
	}
	r.active = channel

	if _, ok := r.joined[channel]; !ok {
		r.joined[channel] = false
		r.sendJoinLocked(channel)
	}
	return nil
}

// Resubscribe sends join for every channel whose directive has not gone
// out on the current connection. Wired to Conn.OnConnect.
func (r *Rooms) Resubscribe() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, channel := range r.sortedLocked() {
		if !r.joined[channel] {
			r.sendJoinLocked(channel)
		}
	}
}

// ConnectionLost marks every directive as unsent, since server-side
// membership does not survive the socket. Wired to Conn.OnDisconnect.
func (r *Rooms) ConnectionLost() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for channel := range r.joined {
		r.joined[channel] = false
	}
}

// Reset empties the set (logout).
func (r *Rooms) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.joined = make(map[string]bool)
	r.personal = ""
	r.active = ""
}

// Channels returns the set, sorted.
func (r *Rooms) Channels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked()
}

// Contains reports whether channel is in the set.
func (r *Rooms) Contains(channel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.joined[channel]
	return ok
}

// Active returns the active conversation, or "".
func (r *Rooms) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Rooms) sortedLocked() []string {
	out := make([]string, 0, len(r.joined))
	for channel := range r.joined {
		out = append(out, channel)
	}
	sort.Strings(out)
	return out
}

func (r *Rooms) sendJoinLocked(channel string) {
	if r.emitLocked(ws.OpJoin, channel) {
		r.joined[channel] = true
	}
}

func (r *Rooms) emitLocked(op, channel string) bool {
	err := r.emitter.Emit(op, ws.ChannelData{Channel: channel})
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrNotConnected):
		// sent by Resubscribe once connected
	default:
		log.Printf("[realtime] %s %s failed: %v", op, channel, err)
	}
	return false
}
