package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/ws"
)

func TestDispatcher_DeduplicatesMessages(t *testing.T) {
	state := NewState()
	d := NewDispatcher(state)

	m1 := textMessage("m1", "chat-a", "u1", "hi")
	m2 := textMessage("m2", "chat-a", "u2", "hey")

	// any interleaving of repeated events yields each id once
	events := []ws.Event{
		messageEvent("chat-a", m1),
		messageEvent("chat-a", m2),
		messageEvent("chat-a", m1),
		messageEvent("chat-a", m2),
		messageEvent("chat-a", m1),
	}
	var applied int
	for _, ev := range events {
		if d.Dispatch(ev) {
			applied++
		}
	}

	assert.Equal(t, 2, applied)
	assert.Equal(t, []string{"m1", "m2"}, ids(state.Messages("chat-a")))
}

func TestDispatcher_ChannelIsolation(t *testing.T) {
	state := NewState()
	d := NewDispatcher(state)

	require.True(t, d.Dispatch(messageEvent("chat-a", textMessage("m1", "chat-a", "u1", "a"))))
	require.True(t, d.Dispatch(messageEvent("chat-b", textMessage("m2", "chat-b", "u1", "b"))))

	assert.Equal(t, []string{"m1"}, ids(state.Messages("chat-a")))
	assert.Equal(t, []string{"m2"}, ids(state.Messages("chat-b")))
	assert.Empty(t, state.Messages("chat-c"))
}

func TestDispatcher_FallsBackToMessageChat(t *testing.T) {
	state := NewState()
	d := NewDispatcher(state)

	assert.True(t, d.Dispatch(messageEvent("", textMessage("m1", "chat-a", "u1", "a"))))
	assert.Len(t, state.Messages("chat-a"), 1)
}

func TestDispatcher_DropsMalformedEvents(t *testing.T) {
	state := NewState()
	d := NewDispatcher(state)
	d.SetDebug(true)

	assert.False(t, d.Dispatch(messageEvent("chat-a", models.Message{ChatID: "chat-a"})))
	assert.False(t, d.Dispatch(messageEvent("", models.Message{ID: "m1"})))
	assert.False(t, d.Dispatch(ws.Event{Op: ws.OpMessage, Data: "garbage"}))
	assert.False(t, d.Dispatch(notificationEvent(models.Notification{Message: "no id"})))
	assert.False(t, d.Dispatch(ws.Event{Op: "typing"}))

	assert.Empty(t, state.Messages("chat-a"))
	assert.Empty(t, state.Notifications())
}

func TestDispatcher_Notifications(t *testing.T) {
	state := NewState()
	d := NewDispatcher(state)

	var changes int
	state.OnChange(func(c Change) {
		if c.Kind == ChangeNotifications {
			changes++
		}
	})

	n1 := models.Notification{ID: "n1", UserID: "u1", Message: "first", Category: models.CategoryTask}
	n2 := models.Notification{ID: "n2", UserID: "u1", Message: "second", Category: models.CategoryMessage}

	assert.True(t, d.Dispatch(notificationEvent(n1)))
	assert.True(t, d.Dispatch(notificationEvent(n2)))
	assert.False(t, d.Dispatch(notificationEvent(n1)))
	// read notifications pushed live are ignored
	assert.False(t, d.Dispatch(notificationEvent(models.Notification{ID: "n3", Read: true})))

	list := state.Notifications()
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID, "newest first")
	assert.Equal(t, "n1", list[1].ID)
	assert.Equal(t, 2, changes)
}

func TestDispatcher_LoadHistoryMergesWithLive(t *testing.T) {
	state := NewState()
	d := NewDispatcher(state)

	// m3 arrived live before the history fetch returned
	require.True(t, d.Dispatch(messageEvent("chat-a", textMessage("m3", "chat-a", "u2", "live"))))

	history := []models.Message{
		textMessage("m1", "chat-a", "u1", "old"),
		textMessage("m2", "chat-a", "u2", "older"),
		textMessage("m3", "chat-a", "u2", "live"),
		{Content: nil},
	}
	added := d.LoadHistory("chat-a", history)

	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(state.Messages("chat-a")))

	// a replayed live event is still recognised
	assert.False(t, d.Dispatch(messageEvent("chat-a", textMessage("m1", "chat-a", "u1", "old"))))
	assert.Zero(t, d.LoadHistory("", history))
}

func TestDispatcher_RefreshKeepsLocalReadFlags(t *testing.T) {
	state := NewState()
	d := NewDispatcher(state)

	d.LoadNotifications([]models.Notification{{ID: "n1"}, {ID: "n2"}})
	require.True(t, state.markRead("n1"))
	require.True(t, d.Dispatch(notificationEvent(models.Notification{ID: "n9"})))

	// the server has not caught up on n1 yet and does not list n9
	d.LoadNotifications([]models.Notification{{ID: "n1"}, {ID: "n2"}, {ID: "n2"}, {ID: ""}})

	n1, ok := state.Notification("n1")
	require.True(t, ok)
	assert.True(t, n1.Read)

	_, ok = state.Notification("n9")
	assert.True(t, ok)
	assert.Len(t, state.Notifications(), 3)
	assert.Len(t, state.Unread(), 2)
}
