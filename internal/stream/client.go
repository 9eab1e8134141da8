package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"meetingai/internal/domain"
)

const (
	DefaultReconnectDelay   = 3 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	defaultReadLimit        = 1 << 20
)

var (
	ErrClosed           = errors.New("stream client is closed")
	ErrAlreadyConnected = errors.New("stream client already connected")
)

// State is the connection state machine of a Client.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateClosed       State = "closed"
)

// Conn is the receive side of a websocket connection.
type Conn interface {
	ReadMessage() (messageType int, payload []byte, err error)
	Close() error
}

// Dialer opens connections to the streaming endpoint.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Config controls the streaming endpoint and reconnect policy.
type Config struct {
	URL              string
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration

	// Dialer and Clock default to gorilla/websocket and the wall clock.
	Dialer Dialer
	Clock  Clock
}

// Client keeps one logical receive-only connection to the transcription
// source, reconnecting after a fixed delay until Close is called.
type Client struct {
	cfg    Config
	log    zerolog.Logger
	events chan domain.StreamEvent
	done   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	state State
	conn  Conn
	timer Timer

	closeOnce sync.Once
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.Dialer == nil {
		cfg.Dialer = NewWebsocketDialer(cfg.HandshakeTimeout)
	}
	if cfg.Clock == nil {
		cfg.Clock = wallClock{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:    cfg,
		log:    log.With().Str("component", "stream").Str("url", cfg.URL).Logger(),
		events: make(chan domain.StreamEvent, 64),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		state:  StateIdle,
	}
}

// Connect starts the first connection attempt without blocking.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return ErrClosed
	case StateIdle:
		c.dialLocked()
		return nil
	default:
		return ErrAlreadyConnected
	}
}

// Events delivers status changes, transcription events and frame errors in
// wire order. The channel is closed once Close has returned.
func (c *Client) Events() <-chan domain.StreamEvent {
	return c.events
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close moves the client to the terminal closed state. A pending reconnect
// is cancelled and no events are delivered after Close returns.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		c.state = StateClosed
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		conn := c.conn
		c.conn = nil
		c.cancel()
		c.mu.Unlock()

		if conn != nil {
			_ = conn.Close()
		}
		c.wg.Wait()
		close(c.events)
		c.log.Debug().Msg("stream closed")
	})
	return nil
}

func (c *Client) dialLocked() {
	c.state = StateConnecting
	c.emitLocked(domain.StreamEvent{Type: domain.StreamEventStatus, Status: domain.ConnectionConnecting})

	c.wg.Add(1)
	go c.run()
}

func (c *Client) run() {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.HandshakeTimeout)
	conn, err := c.cfg.Dialer.Dial(ctx, c.cfg.URL)
	cancel()
	if err != nil {
		c.connectionLost(fmt.Errorf("failed to connect to transcription stream: %w", err))
		return
	}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.state = StateConnected
	c.emitLocked(domain.StreamEvent{Type: domain.StreamEventStatus, Status: domain.ConnectionConnected})
	c.mu.Unlock()

	c.log.Info().Msg("connected to transcription stream")
	c.readLoop(conn)
}

func (c *Client) readLoop(conn Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			c.connectionLost(fmt.Errorf("failed to read stream frame: %w", err))
			return
		}
		c.handleFrame(payload)
	}
}

func (c *Client) handleFrame(payload []byte) {
	event, err := ParseFrame(payload)
	if err != nil {
		c.log.Warn().Err(err).Int("bytes", len(payload)).Msg("dropping malformed frame")
		c.emit(domain.StreamEvent{Type: domain.StreamEventFrameError, Err: err})
		return
	}
	if event.Kind != domain.EventKindTranscription {
		c.log.Debug().Str("type", event.Kind).Msg("ignoring stream event")
		return
	}
	c.emit(domain.StreamEvent{Type: domain.StreamEventTranscription, Transcription: event})
}

func (c *Client) connectionLost(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return
	}
	if isNormalClose(err) {
		c.log.Info().Dur("retry_in", c.cfg.ReconnectDelay).Msg("transcription stream closed by peer")
	} else {
		c.log.Warn().Err(err).Dur("retry_in", c.cfg.ReconnectDelay).Msg("transcription stream lost")
	}

	c.conn = nil
	c.state = StateDisconnected
	c.timer = c.cfg.Clock.AfterFunc(c.cfg.ReconnectDelay, c.reconnect)
	c.emitLocked(domain.StreamEvent{Type: domain.StreamEventStatus, Status: domain.ConnectionDisconnected})
}

func (c *Client) reconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateDisconnected {
		return
	}
	c.timer = nil
	c.log.Debug().Msg("reconnecting to transcription stream")
	c.dialLocked()
}

func (c *Client) emit(event domain.StreamEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitLocked(event)
}

// emitLocked must run with mu held. Close closes done before it takes mu, so
// a send blocked on a slow consumer never holds Close up.
func (c *Client) emitLocked(event domain.StreamEvent) {
	if c.state == StateClosed {
		return
	}
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.events <- event:
	case <-c.done:
	}
}

func isNormalClose(err error) bool {
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		return false
	}
	return closeErr.Code == websocket.CloseNormalClosure || closeErr.Code == websocket.CloseGoingAway
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type websocketDialer struct {
	dialer *websocket.Dialer
}

// NewWebsocketDialer returns a gorilla/websocket backed Dialer.
func NewWebsocketDialer(handshakeTimeout time.Duration) Dialer {
	return websocketDialer{dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout}}
}

func (d websocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(defaultReadLimit)
	return conn, nil
}
