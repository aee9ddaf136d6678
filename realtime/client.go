package realtime

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/ws"
)

const resyncTimeout = 15 * time.Second

// API is the REST surface the client needs. *apiclient.Client implements it.
type API interface {
	MessageCreator
	NotificationMarker
	SetToken(token string)
	ListNotifications(ctx context.Context, userID string) ([]models.Notification, error)
	ListUserChats(ctx context.Context, userID string) ([]models.Chat, error)
	ProjectChat(ctx context.Context, projectID string) (*models.Chat, error)
	ListMessages(ctx context.Context, chatID string) ([]models.Message, error)
}

// Client wires the components of one session together.
type Client struct {
	api API

	session    *Session
	state      *State
	conn       *Conn
	rooms      *Rooms
	dispatcher *Dispatcher
	submitter  *Submitter
	readState  *ReadState
}

// New builds a client. Nothing touches the network until Start.
func New(cfg ConnConfig, api API) *Client {
	state := NewState()
	dispatcher := NewDispatcher(state)
	conn := NewConn(cfg, func(ev ws.Event) { dispatcher.Dispatch(ev) })
	rooms := NewRooms(conn)
	session := &Session{}

	c := &Client{
		api:        api,
		session:    session,
		state:      state,
		conn:       conn,
		rooms:      rooms,
		dispatcher: dispatcher,
		submitter:  NewSubmitter(api, conn, dispatcher.Dispatch),
		readState:  NewReadState(api, state, session),
	}

	// Joins go out first, so anything created after the fetches below is
	// pushed live; the overlap is absorbed by de-duplication.
	conn.OnConnect(rooms.Resubscribe)
	conn.OnConnect(c.resync)
	conn.OnDisconnect(rooms.ConnectionLost)

	return c
}

// Start establishes the session from token: joins the personal channel,
// connects the push transport and loads unread notifications. A push
// failure is logged and the client continues REST-only while the
// connection retries in the background.
func (c *Client) Start(ctx context.Context, token string) error {
	id, ok := c.session.SetToken(token)
	if !ok {
		return ErrNoSession
	}
	c.api.SetToken(id.Token)

	if err := c.rooms.JoinPersonal(id.UserID); err != nil {
		return err
	}

	// on success the connect hook has already loaded notifications
	if err := c.conn.Connect(ctx, id); err != nil {
		log.Printf("[realtime] push unavailable, continuing without live updates: %v", err)
		if err := c.RefreshNotifications(ctx); err != nil {
			log.Printf("[realtime] loading notifications failed: %v", err)
		}
	}
	return nil
}

// resync reloads what may have been missed while no socket was joined:
// the unread notifications and the active conversation's history. It runs
// after every (re)connect, once the join directives are out.
func (c *Client) resync() {
	if _, ok := c.session.Identity(); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	defer cancel()

	if err := c.RefreshNotifications(ctx); err != nil {
		log.Printf("[realtime] reloading notifications failed: %v", err)
	}

	active := c.rooms.Active()
	if active == "" {
		return
	}
	history, err := c.api.ListMessages(ctx, active)
	if err != nil {
		log.Printf("[realtime] reloading history of %s failed: %v", active, err)
		return
	}
	c.dispatcher.LoadHistory(active, history)
}

// SetDebug logs dropped inbound events when on.
func (c *Client) SetDebug(on bool) {
	c.dispatcher.SetDebug(on)
}

// Identity returns the session identity.
func (c *Client) Identity() (Identity, bool) {
	return c.session.Identity()
}

// Connected reports whether the push connection is up.
func (c *Client) Connected() bool {
	return c.conn.Connected()
}

// Chats lists the session user's chats.
func (c *Client) Chats(ctx context.Context) ([]models.Chat, error) {
	id, ok := c.session.Identity()
	if !ok {
		return nil, ErrNoSession
	}
	return c.api.ListUserChats(ctx, id.UserID)
}

// OpenConversation switches the active room to chatID and loads its
// history. The room is joined even if the history fetch fails.
func (c *Client) OpenConversation(ctx context.Context, chatID string) error {
	if err := c.rooms.SwitchTo(chatID); err != nil {
		return err
	}

	history, err := c.api.ListMessages(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load history of %s: %w", chatID, err)
	}
	c.dispatcher.LoadHistory(chatID, history)
	return nil
}

// OpenProjectChat resolves the project's chat and opens it.
func (c *Client) OpenProjectChat(ctx context.Context, projectID string) (*models.Chat, error) {
	chat, err := c.api.ProjectChat(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("resolve project chat: %w", err)
	}
	if err := c.OpenConversation(ctx, chat.ID); err != nil {
		return chat, err
	}
	return chat, nil
}

// ActiveConversation returns the open chat id, or "".
func (c *Client) ActiveConversation() string {
	return c.rooms.Active()
}

// Send submits a draft. A channel outside the subscription set becomes the
// active conversation first, since the server only relays a message from
// a connection joined to its room.
func (c *Client) Send(ctx context.Context, d Draft) (*models.Message, error) {
	if channel := strings.TrimSpace(d.ChannelID); channel != "" && !c.rooms.Contains(channel) {
		if err := c.rooms.SwitchTo(channel); err != nil {
			return nil, err
		}
	}
	return c.submitter.Submit(ctx, d)
}

// RefreshNotifications reloads the unread notifications from the server.
func (c *Client) RefreshNotifications(ctx context.Context) error {
	id, ok := c.session.Identity()
	if !ok {
		return ErrNoSession
	}
	list, err := c.api.ListNotifications(ctx, id.UserID)
	if err != nil {
		return err
	}
	c.dispatcher.LoadNotifications(list)
	return nil
}

// MarkRead marks one notification read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.readState.MarkRead(ctx, id)
}

// MarkAllRead marks every notification of the session user read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.readState.MarkAllRead(ctx, "")
}

// Messages returns the loaded messages of a channel.
func (c *Client) Messages(channel string) []models.Message {
	return c.state.Messages(channel)
}

// Notifications returns every loaded notification.
func (c *Client) Notifications() []models.Notification {
	return c.state.Notifications()
}

// Unread returns the loaded unread notifications.
func (c *Client) Unread() []models.Notification {
	return c.state.Unread()
}

// OnChange subscribes to state changes.
func (c *Client) OnChange(fn func(Change)) {
	c.state.OnChange(fn)
}

// Close disconnects the push transport and empties the subscription set.
func (c *Client) Close() error {
	err := c.conn.Disconnect()
	c.rooms.Reset()
	return err
}

// Logout closes the client and forgets the identity and local state.
func (c *Client) Logout() error {
	err := c.Close()
	c.session.Clear()
	c.api.SetToken("")
	c.state.reset()
	return err
}
