package session

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zoravur/tabletop-sync/internal/protocol"
)

var errTransportClosed = errors.New("transport closed")

// fakeTransport stands in for a websocket: the test pushes inbound frames
// and reads back what the connection wrote.
type fakeTransport struct {
	in     chan []byte
	out    chan protocol.Event
	closed chan struct{}
	once   sync.Once

	mu       sync.Mutex
	writeErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:     make(chan []byte, 16),
		out:    make(chan protocol.Event, 64),
		closed: make(chan struct{}),
	}
}

func (f *fakeTransport) ReadMessage() (int, []byte, error) {
	select {
	case data := <-f.in:
		return websocket.TextMessage, data, nil
	case <-f.closed:
		return 0, nil, errTransportClosed
	}
}

func (f *fakeTransport) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	err := f.writeErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	var ev protocol.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	select {
	case f.out <- ev:
	case <-f.closed:
		return errTransportClosed
	}
	return nil
}

func (f *fakeTransport) SetReadLimit(int64)                {}
func (f *fakeTransport) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeTransport) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeTransport) SetPongHandler(func(string) error) {}

func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) push(t *testing.T, v any) {
	t.Helper()
	switch raw := v.(type) {
	case string:
		f.in <- []byte(raw)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		f.in <- data
	}
}

// next waits for the next frame the connection wrote.
func (f *fakeTransport) next(t *testing.T) protocol.Event {
	t.Helper()
	select {
	case ev := <-f.out:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound event")
		return protocol.Event{}
	}
}

// quiet asserts nothing else is written for a short while.
func (f *fakeTransport) quiet(t *testing.T) {
	t.Helper()
	select {
	case ev := <-f.out:
		t.Fatalf("unexpected outbound event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
