package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zoravur/tabletop-sync/internal/auth"
	"github.com/zoravur/tabletop-sync/internal/dice"
	"github.com/zoravur/tabletop-sync/internal/protocol"
)

type harness struct {
	coord *Coordinator
	reg   *protocol.Registry
	disp  *protocol.Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)
	reg := protocol.NewRegistry()
	disp := protocol.NewDispatcher(reg, dice.NewSeeded(11), log)
	return &harness{coord: NewCoordinator(reg, disp, log), reg: reg, disp: disp}
}

type participant struct {
	conn    *Conn
	t       *fakeTransport
	stopped chan struct{}
}

func (h *harness) connect(t *testing.T, id auth.Identity) *participant {
	t.Helper()
	ft := newFakeTransport()
	conn := h.coord.Accept(ft, id)
	p := &participant{conn: conn, t: ft, stopped: make(chan struct{})}
	go func() {
		defer close(p.stopped)
		conn.Run(context.Background())
	}()
	t.Cleanup(conn.Close)
	return p
}

func (p *participant) join(t *testing.T, room protocol.RoomID) {
	t.Helper()
	p.t.push(t, protocol.Event{Type: protocol.KindJoin, RoomID: room})
	ack := p.t.next(t)
	require.Equal(t, protocol.KindJoined, ack.Type)
	require.Equal(t, room, ack.RoomID)
}

func (p *participant) waitStopped(t *testing.T) {
	t.Helper()
	select {
	case <-p.stopped:
	case <-time.After(time.Second):
		t.Fatal("connection did not stop")
	}
}

func TestCoordinator_RollReachesRemainingMembers(t *testing.T) {
	h := newHarness(t)
	p1 := h.connect(t, auth.Identity{UserID: 1, Username: "one"})
	p2 := h.connect(t, auth.Identity{UserID: 2, Username: "two"})
	p3 := h.connect(t, auth.Identity{UserID: 3, Username: "three"})
	for _, p := range []*participant{p1, p2, p3} {
		p.join(t, 7)
	}

	p2.conn.Close()
	p2.waitStopped(t)
	assert.Equal(t, StateClosed, p2.conn.State())

	p1.t.push(t, `{"type":"roll","diceType":20,"roomId":7,"userId":1,"username":"one"}`)

	for _, p := range []*participant{p1, p3} {
		ev := p.t.next(t)
		assert.Equal(t, protocol.KindRoll, ev.Type)
		assert.EqualValues(t, 7, ev.RoomID)
		assert.GreaterOrEqual(t, ev.Result, 1)
		assert.LessOrEqual(t, ev.Result, 20)
		assert.EqualValues(t, 1, ev.UserID)
		p.t.quiet(t)
	}
	p2.t.quiet(t)
}

func TestConn_MalformedFrameKeepsConnectionOpen(t *testing.T) {
	h := newHarness(t)
	p := h.connect(t, auth.Identity{UserID: 1})

	p.t.push(t, `{{{ not json`)
	ev := p.t.next(t)
	assert.Equal(t, protocol.KindError, ev.Type)
	assert.Contains(t, ev.Error, "malformed event")

	assert.Equal(t, StateOpen, p.conn.State())
	p.t.push(t, protocol.Event{Type: protocol.KindPing})
	assert.Equal(t, protocol.KindPong, p.t.next(t).Type)
}

func TestConn_UnsupportedEventOnlyAnswersSender(t *testing.T) {
	h := newHarness(t)
	sender := h.connect(t, auth.Identity{UserID: 1})
	peer := h.connect(t, auth.Identity{UserID: 2})
	sender.join(t, 4)
	peer.join(t, 4)

	sender.t.push(t, `{"type":"fireball","roomId":4}`)
	ev := sender.t.next(t)
	assert.Equal(t, protocol.KindError, ev.Type)
	assert.Contains(t, ev.Error, "unsupported event")
	peer.t.quiet(t)
}

func TestConn_InvalidDieRejectedBeforeBroadcast(t *testing.T) {
	h := newHarness(t)
	sender := h.connect(t, auth.Identity{UserID: 1})
	peer := h.connect(t, auth.Identity{UserID: 2})
	sender.join(t, 4)
	peer.join(t, 4)

	sender.t.push(t, protocol.Event{Type: protocol.KindRoll, RoomID: 4, DiceType: 0})
	ev := sender.t.next(t)
	assert.Equal(t, protocol.KindError, ev.Type)
	assert.Contains(t, ev.Error, "invalid die size")
	peer.t.quiet(t)
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	h := newHarness(t)
	p := h.connect(t, auth.Identity{UserID: 1})
	p.join(t, 1)
	p.join(t, 2)
	require.Equal(t, 1, h.coord.Connections())

	p.conn.Close()
	p.conn.Close()
	p.waitStopped(t)
	p.conn.Close()

	assert.Equal(t, StateClosed, p.conn.State())
	assert.Equal(t, 0, h.coord.Connections())
	assert.Empty(t, h.reg.MembersOf(1))
	assert.Empty(t, h.reg.MembersOf(2))

	assert.NotPanics(t, func() { p.conn.Send(protocol.StateUpdate(1, "")) })
	assert.ErrorIs(t, h.coord.JoinRoom(p.conn, 1), ErrConnClosed)
	assert.Empty(t, h.reg.MembersOf(1))
}

func TestConn_TransportFailureLeavesRooms(t *testing.T) {
	h := newHarness(t)
	p := h.connect(t, auth.Identity{UserID: 1})
	p.join(t, 3)

	_ = p.t.Close()
	p.waitStopped(t)

	assert.True(t, p.conn.Closed())
	assert.Empty(t, h.reg.MembersOf(3))
}

func TestConn_ContextCancelCloses(t *testing.T) {
	h := newHarness(t)
	ft := newFakeTransport()
	conn := h.coord.Accept(ft, auth.Identity{UserID: 1})
	require.NoError(t, h.coord.JoinRoom(conn, 5))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		conn.Run(ctx)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Empty(t, h.reg.MembersOf(5))
}

func TestConn_LeaveStopsDelivery(t *testing.T) {
	h := newHarness(t)
	a := h.connect(t, auth.Identity{UserID: 1})
	b := h.connect(t, auth.Identity{UserID: 2})
	a.join(t, 8)
	b.join(t, 8)

	b.t.push(t, protocol.Event{Type: protocol.KindLeave, RoomID: 8})
	assert.Equal(t, protocol.KindLeft, b.t.next(t).Type)

	h.disp.Publish(protocol.StateUpdate(8, "characters"))
	assert.Equal(t, protocol.StateUpdate(8, "characters"), a.t.next(t))
	b.t.quiet(t)
}

func TestConn_OrderPreservedPerObserver(t *testing.T) {
	h := newHarness(t)
	sender := h.connect(t, auth.Identity{UserID: 1})
	watcher := h.connect(t, auth.Identity{UserID: 2})
	sender.join(t, 1)
	watcher.join(t, 1)

	faces := []int{4, 6, 8, 10, 12, 20, 100}
	for _, f := range faces {
		sender.t.push(t, protocol.Event{Type: protocol.KindRoll, RoomID: 1, DiceType: f})
	}
	for _, f := range faces {
		assert.Equal(t, f, watcher.t.next(t).DiceType)
	}
}

func TestConn_SlowConsumerDropsInsteadOfBlocking(t *testing.T) {
	h := newHarness(t)
	ft := newFakeTransport()
	conn := h.coord.Accept(ft, auth.Identity{UserID: 1})

	// never started: nothing drains the queue
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < defaultSendBuffer*3; i++ {
			conn.Send(protocol.StateUpdate(1, ""))
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a full queue")
	}
	conn.Close()
}

func TestCoordinator_Shutdown(t *testing.T) {
	h := newHarness(t)
	ps := []*participant{
		h.connect(t, auth.Identity{UserID: 1}),
		h.connect(t, auth.Identity{UserID: 2}),
	}
	for _, p := range ps {
		p.join(t, 1)
	}

	h.coord.Shutdown()
	for _, p := range ps {
		p.waitStopped(t)
		assert.True(t, p.conn.Closed())
	}
	assert.Equal(t, 0, h.coord.Connections())
	assert.Empty(t, h.reg.MembersOf(1))
}

func TestCoordinator_JoinWithoutRoomIsRejected(t *testing.T) {
	h := newHarness(t)
	p := h.connect(t, auth.Identity{UserID: 1})

	p.t.push(t, `{"type":"join"}`)
	ev := p.t.next(t)
	assert.Equal(t, protocol.KindError, ev.Type)
	assert.Contains(t, ev.Error, "invalid event")
}

func TestCoordinator_LogsRejectionsByCause(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	reg := protocol.NewRegistry()
	broken := dice.RollerFunc(func(int) (int, error) { return 0, errors.New("entropy exhausted") })
	disp := protocol.NewDispatcher(reg, broken, log)
	h := &harness{coord: NewCoordinator(reg, disp, log), reg: reg, disp: disp}

	p := h.connect(t, auth.Identity{UserID: 1, Username: "a"})
	p.join(t, 3)

	p.t.push(t, protocol.Event{Type: "shout", RoomID: 3})
	assert.Equal(t, protocol.KindError, p.t.next(t).Type)

	p.t.push(t, protocol.Event{Type: protocol.KindRoll, RoomID: 3, DiceType: 20})
	assert.Equal(t, protocol.KindError, p.t.next(t).Type)

	// frames are handled in order, so the pong means both were logged
	p.t.push(t, protocol.Event{Type: protocol.KindPing})
	require.Equal(t, protocol.KindPong, p.t.next(t).Type)

	rejected := logs.FilterMessage("event rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, zapcore.DebugLevel, rejected[0].Level)
	assert.Equal(t, "shout", rejected[0].ContextMap()["type"])

	failed := logs.FilterMessage("event failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)
	assert.Equal(t, string(protocol.KindRoll), failed[0].ContextMap()["type"])
}
