package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zoravur/tabletop-sync/internal/auth"
	"github.com/zoravur/tabletop-sync/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	defaultSendBuffer = 64
)

// Transport is the part of *websocket.Conn a connection needs.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

type State int32

const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Conn owns one participant's live connection.
type Conn struct {
	id       string
	identity auth.Identity
	t        Transport
	log      *zap.Logger

	out        chan protocol.Event
	done       chan struct{}
	writerDone chan struct{}
	started    atomic.Bool

	state     atomic.Int32
	closeOnce sync.Once

	onEvent func(*Conn, protocol.Event)
	onClose func(*Conn)
}

func newConn(t Transport, id auth.Identity, sendBuffer int, log *zap.Logger) *Conn {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	connID := uuid.NewString()
	return &Conn{
		id:         connID,
		identity:   id,
		t:          t,
		log:        log.With(zap.String("conn", connID), zap.Int64("user", id.UserID)),
		out:        make(chan protocol.Event, sendBuffer),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

func (c *Conn) ID() string              { return c.id }
func (c *Conn) Identity() auth.Identity { return c.identity }
func (c *Conn) State() State            { return State(c.state.Load()) }
func (c *Conn) Closed() bool            { return c.State() != StateOpen }

// Send queues ev for delivery. It never blocks and never fails from the
// caller's point of view: closed connections and full queues drop the event.
func (c *Conn) Send(ev protocol.Event) {
	if c.Closed() {
		return
	}
	select {
	case <-c.done:
	case c.out <- ev:
	default:
		c.log.Warn("send queue full, dropping event", zap.String("type", string(ev.Type)))
	}
}

// Run pumps the connection until the transport fails, ctx is cancelled or
// Close is called. It always leaves the connection closed.
func (c *Conn) Run(ctx context.Context) {
	defer c.Close()

	c.started.Store(true)
	go c.writePump()

	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	c.t.SetReadLimit(maxMessageSize)
	_ = c.t.SetReadDeadline(time.Now().Add(pongWait))
	c.t.SetPongHandler(func(string) error {
		return c.t.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.t.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !c.Closed() {
				c.log.Info("read error", zap.Error(err))
			}
			return
		}
		c.OnInboundEvent(data)
	}
}

// OnInboundEvent decodes one frame and hands it on. A bad frame is answered
// with an error event; the connection stays open.
func (c *Conn) OnInboundEvent(data []byte) {
	ev, err := protocol.Decode(data)
	if err != nil {
		c.log.Debug("dropping inbound frame", zap.Error(err))
		c.Send(protocol.ErrorEvent(err))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic while handling event", zap.Any("panic", r), zap.String("type", string(ev.Type)))
			c.Send(protocol.ErrorEvent(errInternal))
		}
	}()
	if c.onEvent != nil {
		c.onEvent(c, ev)
	}
}

var errInternal = errors.New("internal error")

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.writerDone)
	}()

	for {
		select {
		case <-c.done:
			_ = c.t.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.t.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case ev := <-c.out:
			data, err := protocol.Encode(ev)
			if err != nil {
				c.log.Error("encode failed", zap.Error(err))
				continue
			}
			_ = c.t.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.t.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("write failed", zap.Error(err))
				_ = c.t.Close()
				return
			}
		case <-ticker.C:
			_ = c.t.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.t.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.t.Close()
				return
			}
		}
	}
}

// Close is idempotent. The on-close hook (registry cleanup) runs exactly
// once, after the connection stopped accepting sends.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosing))
		close(c.done)

		if c.onClose != nil {
			c.onClose(c)
		}

		if c.started.Load() {
			<-c.writerDone
		}
		_ = c.t.Close()
		c.state.Store(int32(StateClosed))
		c.log.Debug("connection closed")
	})
}
