package session

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/zoravur/tabletop-sync/internal/auth"
	"github.com/zoravur/tabletop-sync/internal/protocol"
)

var ErrConnClosed = errors.New("connection closed")

// Coordinator wires live connections to the registry and the dispatcher.
type Coordinator struct {
	reg  *protocol.Registry
	disp *protocol.Dispatcher
	log  *zap.Logger

	sendBuffer int

	mu    sync.Mutex
	conns map[string]*Conn
}

type Option func(*Coordinator)

// WithSendBuffer sets how many outbound events a slow connection may queue
// before further events to it are dropped.
func WithSendBuffer(n int) Option { return func(c *Coordinator) { c.sendBuffer = n } }

func NewCoordinator(reg *protocol.Registry, disp *protocol.Dispatcher, log *zap.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Coordinator{
		reg:        reg,
		disp:       disp,
		log:        log,
		sendBuffer: defaultSendBuffer,
		conns:      make(map[string]*Conn),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Accept wraps an authenticated transport. The caller drives the returned
// connection with Run.
func (c *Coordinator) Accept(t Transport, id auth.Identity) *Conn {
	conn := newConn(t, id, c.sendBuffer, c.log)
	conn.onEvent = c.handle
	conn.onClose = c.release

	c.mu.Lock()
	c.conns[conn.ID()] = conn
	n := len(c.conns)
	c.mu.Unlock()

	c.log.Info("client connected",
		zap.String("conn", conn.ID()),
		zap.Int64("user", id.UserID),
		zap.Int("connections", n),
	)
	return conn
}

// JoinRoom subscribes conn to room. Whether the room exists is checked
// upstream; an unknown id simply never sees traffic.
func (c *Coordinator) JoinRoom(conn *Conn, room protocol.RoomID) error {
	if !c.reg.Join(room, conn) {
		return ErrConnClosed
	}
	c.log.Debug("joined room", zap.String("conn", conn.ID()), zap.Int64("room", room.Int64()))
	return nil
}

func (c *Coordinator) LeaveRoom(conn *Conn, room protocol.RoomID) {
	c.reg.Leave(room, conn)
	c.log.Debug("left room", zap.String("conn", conn.ID()), zap.Int64("room", room.Int64()))
}

func (c *Coordinator) handle(conn *Conn, ev protocol.Event) {
	switch ev.Type {
	case protocol.KindPing:
		conn.Send(protocol.Event{Type: protocol.KindPong})

	case protocol.KindJoin:
		if ev.RoomID <= 0 {
			conn.Send(protocol.ErrorEvent(fmt.Errorf("%w: roomId required", protocol.ErrInvalidEvent)))
			return
		}
		if err := c.JoinRoom(conn, ev.RoomID); err != nil {
			return
		}
		conn.Send(protocol.Event{Type: protocol.KindJoined, RoomID: ev.RoomID})

	case protocol.KindLeave:
		c.LeaveRoom(conn, ev.RoomID)
		conn.Send(protocol.Event{Type: protocol.KindLeft, RoomID: ev.RoomID})

	default:
		err := c.disp.Route(ev, conn)
		if err == nil {
			return
		}
		fields := []zap.Field{
			zap.String("conn", conn.ID()),
			zap.String("type", string(ev.Type)),
			zap.Error(err),
		}
		if protocol.IsClientError(err) {
			c.log.Debug("event rejected", fields...)
		} else {
			c.log.Warn("event failed", fields...)
		}
	}
}

func (c *Coordinator) release(conn *Conn) {
	c.reg.LeaveAll(conn)

	c.mu.Lock()
	delete(c.conns, conn.ID())
	n := len(c.conns)
	c.mu.Unlock()

	c.log.Info("client disconnected", zap.String("conn", conn.ID()), zap.Int("connections", n))
}

// Connections reports how many connections are currently accepted.
func (c *Coordinator) Connections() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.conns)
}

// Shutdown closes every live connection.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	conns := make([]*Conn, 0, len(c.conns))
	for _, conn := range c.conns {
		conns = append(conns, conn)
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	for _, conn := range conns {
		wg.Add(1)
		go func(conn *Conn) {
			defer wg.Done()
			conn.Close()
		}(conn)
	}
	wg.Wait()
}
