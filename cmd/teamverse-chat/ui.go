package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/realtime"
)

const helpText = `Commands:
  /chats              list your chats
  /open <n|chat-id>   open a chat (number from /chats)
  /project <id>       open a project's chat
  /notifications      show unread notifications
  /read <n|id>        mark one notification read
  /readall            mark every notification read
  /help               this text
  /quit               exit
Anything else is sent to the open chat.`

// chatClient is the part of realtime.Client the view drives.
type chatClient interface {
	Connected() bool
	Chats(ctx context.Context) ([]models.Chat, error)
	OpenConversation(ctx context.Context, chatID string) error
	OpenProjectChat(ctx context.Context, projectID string) (*models.Chat, error)
	Send(ctx context.Context, d realtime.Draft) (*models.Message, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Messages(channel string) []models.Message
	Unread() []models.Notification
}

// changeMsg is sent by the realtime client's OnChange hook.
type changeMsg realtime.Change

// chatsMsg carries a fetched chat list.
type chatsMsg []models.Chat

// openedMsg reports the chat that became active.
type openedMsg struct {
	chatID string
	name   string
}

// resultMsg ends a background call with a status line or an error.
type resultMsg struct {
	status string
	err    error
}

type command struct {
	name string
	arg  string
}

// parseInput splits "/name arg" commands from plain text.
func parseInput(s string) (command, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "/") {
		return command{}, false
	}
	name, arg, _ := strings.Cut(s[1:], " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}, true
}

type model struct {
	client  chatClient
	timeout time.Duration
	me      realtime.Identity

	chats      []models.Chat
	active     string
	activeName string
	showNotifs bool

	// startProject is opened by Init when set.
	startProject string

	input    textinput.Model
	viewport viewport.Model
	status   string
	failed   bool
	width    int
	height   int
}

func newModel(client chatClient, me realtime.Identity, timeout time.Duration) model {
	ti := textinput.New()
	ti.Placeholder = "Type a message or /help"
	ti.Prompt = "> "
	ti.CharLimit = models.MaxMessageLength
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()
	vp.SetContent(helpText)

	return model{
		client:   client,
		timeout:  timeout,
		me:       me,
		input:    ti,
		viewport: vp,
		status:   "type /chats to begin",
	}
}

func (m model) Init() tea.Cmd {
	if m.startProject != "" {
		return tea.Batch(textinput.Blink, m.openProject(m.startProject))
	}
	return tea.Batch(textinput.Blink, m.loadChats())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 3)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := m.input.Value()
			m.input.Reset()
			return m.submit(text)
		}

	case changeMsg:
		if msg.Kind == realtime.ChangeMessages && msg.ChannelID == m.active && !m.showNotifs {
			m.refresh()
		}
		if msg.Kind == realtime.ChangeNotifications && m.showNotifs {
			m.refresh()
		}
		return m, nil

	case chatsMsg:
		m.chats = msg
		m.showNotifs = false
		m.active = ""
		m.viewport.SetContent(renderChats(m.chats))
		m.setStatus(fmt.Sprintf("%d chats", len(m.chats)), nil)
		return m, nil

	case openedMsg:
		m.active, m.activeName = msg.chatID, msg.name
		m.showNotifs = false
		m.refresh()
		m.setStatus("opened "+msg.name, nil)
		return m, nil

	case resultMsg:
		m.setStatus(msg.status, msg.err)
		if m.showNotifs {
			m.refresh()
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *model) setStatus(s string, err error) {
	m.failed = err != nil
	if err != nil {
		s = err.Error()
	}
	m.status = s
}

// submit runs a command or sends text to the active chat.
func (m model) submit(text string) (tea.Model, tea.Cmd) {
	cmd, isCommand := parseInput(text)
	if !isCommand {
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		if m.active == "" {
			m.setStatus("open a chat first (/chats, /open)", nil)
			return m, nil
		}
		return m, m.send(m.active, text)
	}

	switch cmd.name {
	case "quit", "q":
		return m, tea.Quit
	case "help":
		m.showNotifs = false
		m.active = ""
		m.viewport.SetContent(helpText)
		return m, nil
	case "chats":
		return m, m.loadChats()
	case "open":
		chatID, name := m.resolveChat(cmd.arg)
		if chatID == "" {
			m.setStatus("usage: /open <n|chat-id>", nil)
			return m, nil
		}
		return m, m.open(chatID, name)
	case "project":
		if cmd.arg == "" {
			m.setStatus("usage: /project <id>", nil)
			return m, nil
		}
		return m, m.openProject(cmd.arg)
	case "notifications", "n":
		m.showNotifs = true
		m.refresh()
		return m, nil
	case "read":
		id := m.resolveNotification(cmd.arg)
		if id == "" {
			m.setStatus("usage: /read <n|id>", nil)
			return m, nil
		}
		return m, m.markRead(id)
	case "readall":
		return m, m.markAllRead()
	default:
		m.setStatus("unknown command /"+cmd.name+", try /help", nil)
		return m, nil
	}
}

func (m model) resolveChat(arg string) (string, string) {
	if arg == "" {
		return "", ""
	}
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(m.chats) {
		c := m.chats[n-1]
		return c.ID, chatName(c)
	}
	for _, c := range m.chats {
		if c.ID == arg {
			return c.ID, chatName(c)
		}
	}
	return arg, arg
}

func (m model) resolveNotification(arg string) string {
	if arg == "" {
		return ""
	}
	unread := m.client.Unread()
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(unread) {
		return unread[n-1].ID
	}
	return arg
}

// refresh re-renders the viewport from the client's state.
func (m *model) refresh() {
	if m.client == nil {
		return
	}
	if m.showNotifs {
		m.viewport.SetContent(renderNotifications(m.client.Unread()))
		return
	}
	if m.active == "" {
		return
	}
	m.viewport.SetContent(renderMessages(m.client.Messages(m.active), m.me.UserID))
	m.viewport.GotoBottom()
}

func (m model) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

func (m model) loadChats() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		chats, err := m.client.Chats(ctx)
		if err != nil {
			return resultMsg{err: fmt.Errorf("loading chats: %w", err)}
		}
		return chatsMsg(chats)
	}
}

func (m model) open(chatID, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		if err := m.client.OpenConversation(ctx, chatID); err != nil {
			return resultMsg{err: err}
		}
		return openedMsg{chatID: chatID, name: name}
	}
}

func (m model) openProject(projectID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		chat, err := m.client.OpenProjectChat(ctx, projectID)
		if err != nil {
			return resultMsg{err: err}
		}
		return openedMsg{chatID: chat.ID, name: chatName(*chat)}
	}
}

func (m model) send(chatID, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		if _, err := m.client.Send(ctx, realtime.Draft{ChannelID: chatID, Text: text}); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: "sent"}
	}
}

func (m model) markRead(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		if err := m.client.MarkRead(ctx, id); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: "marked read"}
	}
}

func (m model) markAllRead() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		if err := m.client.MarkAllRead(ctx); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: "all notifications read"}
	}
}

func (m model) View() string {
	conn := offlineStyle.Render("○ offline")
	if m.client != nil && m.client.Connected() {
		conn = onlineStyle.Render("● live")
	}

	unread := 0
	if m.client != nil {
		unread = len(m.client.Unread())
	}
	badge := mutedStyle.Render("no unread")
	if unread > 0 {
		badge = unreadStyle.Render(fmt.Sprintf("%d unread", unread))
	}

	title := "TeamVerse · " + m.me.DisplayName
	if m.activeName != "" && m.active != "" {
		title += " · " + m.activeName
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, headerStyle.Render(title), " ", conn, "  ", badge)

	status := m.status
	if m.failed {
		status = errorStyle.Render(status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		statusBarStyle.Render(status),
		m.input.View(),
	)
}

func chatName(c models.Chat) string {
	if c.Name != "" {
		return c.Name
	}
	return string(c.Kind) + " " + c.ID
}

func renderChats(chats []models.Chat) string {
	if len(chats) == 0 {
		return mutedStyle.Render("No chats yet. Try /project <id>.")
	}
	var b strings.Builder
	for i, c := range chats {
		fmt.Fprintf(&b, "%2d. %s %s\n", i+1, chatName(c), mutedStyle.Render(fmt.Sprintf("(%d members)", len(c.Members))))
	}
	return b.String()
}

func renderMessages(msgs []models.Message, selfID string) string {
	if len(msgs) == 0 {
		return mutedStyle.Render("No messages yet.")
	}
	var b strings.Builder
	for _, msg := range msgs {
		author := authorStyle.Render(msg.SenderName)
		if msg.SenderID == selfID {
			author = selfStyle.Render(msg.SenderName)
		}
		b.WriteString(timeStyle.Render(msg.CreatedAt.Local().Format("15:04")))
		b.WriteString(" ")
		b.WriteString(author)
		b.WriteString(": ")
		b.WriteString(msg.Text())
		if msg.FileName != nil {
			b.WriteString(mutedStyle.Render(" [file: " + *msg.FileName + "]"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderNotifications(list []models.Notification) string {
	if len(list) == 0 {
		return mutedStyle.Render("You're all caught up.")
	}
	var b strings.Builder
	for i, n := range list {
		fmt.Fprintf(&b, "%2d. %s %s %s\n", i+1,
			timeStyle.Render(n.CreatedAt.Local().Format("Jan 2 15:04")),
			unreadStyle.Render("["+string(n.Category)+"]"),
			n.Message)
	}
	return b.String()
}
