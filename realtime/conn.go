package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Fasilurahman/TeamVerse-sub001/ws"
)

const (
	defaultHeartbeat  = 30 * time.Second
	defaultReadWait   = 90 * time.Second
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 30 * time.Second

	writeWait = 10 * time.Second
)

// ConnConfig configures the push connection. Zero durations take defaults.
type ConnConfig struct {
	// URL of the push endpoint, e.g. ws://localhost:9090/ws. The access
	// token is appended as ?token=.
	URL string

	HeartbeatInterval time.Duration
	ReadWait          time.Duration
	MinBackoff        time.Duration
	MaxBackoff        time.Duration

	Dialer *websocket.Dialer
}

func (c ConnConfig) withDefaults() ConnConfig {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = defaultHeartbeat
	}
	if c.ReadWait <= 0 {
		c.ReadWait = defaultReadWait
	}
	if c.MinBackoff <= 0 {
		c.MinBackoff = defaultMinBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	if c.MaxBackoff < c.MinBackoff {
		c.MaxBackoff = c.MinBackoff
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
	return c
}

// Conn is the session's single push connection. After Connect it keeps
// reconnecting with exponential backoff until Disconnect.
type Conn struct {
	cfg     ConnConfig
	onEvent func(ws.Event)

	hookMu       sync.Mutex
	onConnect    []func()
	onDisconnect []func()

	mu      sync.Mutex
	sock    *websocket.Conn
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	writeMu sync.Mutex
}

// NewConn creates a connection manager. onEvent receives every inbound
// event other than protocol acks.
func NewConn(cfg ConnConfig, onEvent func(ws.Event)) *Conn {
	return &Conn{cfg: cfg.withDefaults(), onEvent: onEvent}
}

// OnConnect registers fn to run after every successful (re)connect, once
// the register directive has been sent.
func (c *Conn) OnConnect(fn func()) {
	c.hookMu.Lock()
	c.onConnect = append(c.onConnect, fn)
	c.hookMu.Unlock()
}

// OnDisconnect registers fn to run whenever a live socket goes away.
func (c *Conn) OnDisconnect(fn func()) {
	c.hookMu.Lock()
	c.onDisconnect = append(c.onDisconnect, fn)
	c.hookMu.Unlock()
}

func (c *Conn) runHooks(disconnect bool) {
	c.hookMu.Lock()
	hooks := c.onConnect
	if disconnect {
		hooks = c.onDisconnect
	}
	hooks = append([]func(){}, hooks...)
	c.hookMu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Connect starts the connection for id. On success it returns once the
// connect hooks of the first socket have run. On failure it returns the
// dial error and the manager keeps retrying in the background, so callers
// can continue REST-only. Calling Connect while already started is a
// no-op.
func (c *Conn) Connect(ctx context.Context, id Identity) error {
	if !id.Valid() {
		return ErrNoSession
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.running = true
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	first := make(chan error, 1)
	go c.run(loopCtx, id, first, done)

	select {
	case err := <-first:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect closes the socket and stops reconnecting. The server drops
// every room subscription of the connection.
func (c *Conn) Disconnect() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	cancel, done, sock := c.cancel, c.done, c.sock
	c.sock = nil
	c.mu.Unlock()

	cancel()
	if sock != nil {
		c.writeMu.Lock()
		_ = sock.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.writeMu.Unlock()
		sock.Close()
	}
	<-done
	return nil
}

// Connected reports whether a socket is currently up.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock != nil
}

// Emit sends one event. It fails with ErrNotConnected while down.
func (c *Conn) Emit(op string, data any) error {
	c.mu.Lock()
	sock := c.sock
	c.mu.Unlock()

	if sock == nil {
		return ErrNotConnected
	}
	return c.write(sock, ws.Event{Op: op, Data: data})
}

func (c *Conn) write(sock *websocket.Conn, ev ws.Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return sock.WriteJSON(ev)
}

func (c *Conn) run(ctx context.Context, id Identity, first chan<- error, done chan struct{}) {
	defer close(done)

	report := func(err error) {
		if first != nil {
			first <- err
			first = nil
		}
	}

	attempt := 0
	for {
		sock, err := c.dial(ctx, id)
		if err != nil {
			report(err)
			if ctx.Err() != nil {
				return
			}
			wait := c.backoff(attempt)
			attempt++
			log.Printf("[realtime] connect failed, retrying in %s: %v", wait, err)
			if !sleepCtx(ctx, wait) {
				return
			}
			continue
		}

		attempt = 0
		c.serve(sock, done, func() { report(nil) })
		if ctx.Err() != nil {
			return
		}
		log.Printf("[realtime] connection lost, reconnecting")
	}
}

func (c *Conn) backoff(attempt int) time.Duration {
	wait := c.cfg.MinBackoff
	for i := 0; i < attempt && wait < c.cfg.MaxBackoff; i++ {
		wait *= 2
	}
	if wait > c.cfg.MaxBackoff {
		wait = c.cfg.MaxBackoff
	}
	return wait
}

// dial opens the socket and sends register before anyone else can write.
func (c *Conn) dial(ctx context.Context, id Identity) (*websocket.Conn, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse push url: %w", err)
	}
	q := u.Query()
	q.Set("token", id.Token)
	u.RawQuery = q.Encode()

	sock, resp, err := c.cfg.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial push transport: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial push transport: %w", err)
	}

	register := ws.Event{Op: ws.OpRegister, Data: ws.RegisterData{UserID: id.UserID}}
	if err := c.write(sock, register); err != nil {
		sock.Close()
		return nil, fmt.Errorf("register: %w", err)
	}
	return sock, nil
}

// serve publishes sock, runs connect hooks, calls ready and reads until
// the socket fails. done identifies the run loop that owns sock.
func (c *Conn) serve(sock *websocket.Conn, done chan struct{}, ready func()) {
	c.mu.Lock()
	if !c.running || c.done != done {
		c.mu.Unlock()
		sock.Close()
		ready()
		return
	}
	c.sock = sock
	c.mu.Unlock()

	c.runHooks(false)
	ready()

	stopHeartbeat := make(chan struct{})
	go c.heartbeat(sock, stopHeartbeat)

	c.readLoop(sock)
	close(stopHeartbeat)

	c.mu.Lock()
	if c.sock == sock {
		c.sock = nil
	}
	c.mu.Unlock()
	sock.Close()

	c.runHooks(true)
}

func (c *Conn) heartbeat(sock *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.write(sock, ws.Event{Op: ws.OpHeartbeat}); err != nil {
				log.Printf("[realtime] heartbeat failed: %v", err)
				sock.Close()
				return
			}
		}
	}
}

func (c *Conn) readLoop(sock *websocket.Conn) {
	for {
		if err := sock.SetReadDeadline(time.Now().Add(c.cfg.ReadWait)); err != nil {
			return
		}

		_, raw, err := sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[realtime] read failed: %v", err)
			}
			return
		}

		var ev ws.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			log.Printf("[realtime] dropping undecodable frame: %v", err)
			continue
		}

		switch ev.Op {
		case ws.OpHeartbeatAck, ws.OpReady:
		case ws.OpError:
			var data ws.ErrorData
			_ = ws.DecodeData(ev, &data)
			log.Printf("[realtime] server rejected %s: %s", data.Op, data.Message)
		default:
			if c.onEvent != nil {
				c.onEvent(ev)
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
