package realtime

import (
	"sync"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
)

// ChangeKind says which list a Change touched.
type ChangeKind int

const (
	ChangeMessages ChangeKind = iota + 1
	ChangeNotifications
)

// Change is passed to OnChange listeners after a mutation.
type Change struct {
	Kind      ChangeKind
	ChannelID string // set for ChangeMessages
}

// State holds the per-channel message lists and the notification list.
// Only the Dispatcher and the ReadState synchronizer mutate it; readers
// receive copies.
type State struct {
	mu sync.RWMutex

	messages   map[string][]models.Message
	messageIDs map[string]map[string]struct{}

	notifications []models.Notification // newest first

	listenerMu sync.Mutex
	listeners  []func(Change)
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		messages:   make(map[string][]models.Message),
		messageIDs: make(map[string]map[string]struct{}),
	}
}

// OnChange registers fn. It is called without the state lock held.
func (s *State) OnChange(fn func(Change)) {
	s.listenerMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenerMu.Unlock()
}

func (s *State) notify(c Change) {
	s.listenerMu.Lock()
	listeners := append([]func(Change){}, s.listeners...)
	s.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(c)
	}
}

// Messages returns channel's messages in arrival order.
func (s *State) Messages(channel string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.messages[channel]...)
}

// Notifications returns every loaded notification, newest first.
func (s *State) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Notification(nil), s.notifications...)
}

// Unread returns the loaded notifications with Read == false.
func (s *State) Unread() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Notification
	for _, n := range s.notifications {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}

// Notification looks up one loaded notification.
func (s *State) Notification(id string) (models.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notifications {
		if n.ID == id {
			return n, true
		}
	}
	return models.Notification{}, false
}

// appendMessage adds m to channel unless its id is already present.
func (s *State) appendMessage(channel string, m models.Message) bool {
	s.mu.Lock()
	ids := s.idsLocked(channel)
	if _, dup := ids[m.ID]; dup {
		s.mu.Unlock()
		return false
	}
	ids[m.ID] = struct{}{}
	s.messages[channel] = append(s.messages[channel], m)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeMessages, ChannelID: channel})
	return true
}

// mergeHistory puts a fetched history (oldest first) in front of whatever
// already arrived live, dropping duplicates and id-less entries. It
// returns how many messages were new.
func (s *State) mergeHistory(channel string, history []models.Message) int {
	s.mu.Lock()

	existing := s.messages[channel]
	seen := make(map[string]struct{}, len(history)+len(existing))
	merged := make([]models.Message, 0, len(history)+len(existing))
	added := 0

	oldIDs := s.messageIDs[channel]
	for _, m := range history {
		if m.ID == "" {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
		if _, had := oldIDs[m.ID]; !had {
			added++
		}
	}
	for _, m := range existing {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}

	s.messages[channel] = merged
	s.messageIDs[channel] = seen
	s.mu.Unlock()

	if added > 0 {
		s.notify(Change{Kind: ChangeMessages, ChannelID: channel})
	}
	return added
}

func (s *State) idsLocked(channel string) map[string]struct{} {
	ids, ok := s.messageIDs[channel]
	if !ok {
		ids = make(map[string]struct{})
		s.messageIDs[channel] = ids
	}
	return ids
}

// prependNotification inserts n at the front unless its id is present.
func (s *State) prependNotification(n models.Notification) bool {
	s.mu.Lock()
	for _, existing := range s.notifications {
		if existing.ID == n.ID {
			s.mu.Unlock()
			return false
		}
	}
	s.notifications = append([]models.Notification{n}, s.notifications...)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeNotifications})
	return true
}

// replaceNotifications installs a freshly fetched list. Items already read
// locally stay read, and unread items only known locally are kept.
func (s *State) replaceNotifications(list []models.Notification) {
	s.mu.Lock()

	readLocally := make(map[string]bool, len(s.notifications))
	for _, n := range s.notifications {
		readLocally[n.ID] = n.Read
	}

	seen := make(map[string]struct{}, len(list))
	next := make([]models.Notification, 0, len(list))
	for _, n := range list {
		if n.ID == "" {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		if readLocally[n.ID] {
			n.Read = true
		}
		next = append(next, n)
	}
	for _, n := range s.notifications {
		if _, ok := seen[n.ID]; !ok {
			next = append(next, n)
		}
	}

	s.notifications = next
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeNotifications})
}

// markRead flips one notification to read. It never flips back.
func (s *State) markRead(id string) bool {
	s.mu.Lock()
	changed := false
	for i := range s.notifications {
		if s.notifications[i].ID == id && !s.notifications[i].Read {
			s.notifications[i].Read = true
			changed = true
			break
		}
	}
	s.mu.Unlock()

	if changed {
		s.notify(Change{Kind: ChangeNotifications})
	}
	return changed
}

// markAllRead flips every loaded notification to read and returns how
// many changed.
func (s *State) markAllRead() int {
	s.mu.Lock()
	changed := 0
	for i := range s.notifications {
		if !s.notifications[i].Read {
			s.notifications[i].Read = true
			changed++
		}
	}
	s.mu.Unlock()

	if changed > 0 {
		s.notify(Change{Kind: ChangeNotifications})
	}
	return changed
}

// reset drops everything (logout).
func (s *State) reset() {
	s.mu.Lock()
	s.messages = make(map[string][]models.Message)
	s.messageIDs = make(map[string]map[string]struct{})
	s.notifications = nil
	s.mu.Unlock()
}
