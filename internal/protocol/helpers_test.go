package protocol

import (
	"sync"
	"sync/atomic"

	"github.com/zoravur/tabletop-sync/internal/auth"
)

type mockHandle struct {
	id       string
	identity auth.Identity
	closed   atomic.Bool

	mu       sync.Mutex
	received []Event
}

func newMockHandle(id string) *mockHandle {
	return &mockHandle{id: id}
}

func (m *mockHandle) ID() string              { return m.id }
func (m *mockHandle) Identity() auth.Identity { return m.identity }
func (m *mockHandle) Closed() bool            { return m.closed.Load() }

func (m *mockHandle) Send(ev Event) {
	if m.Closed() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, ev)
}

func (m *mockHandle) getReceived() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.received...)
}

// close mirrors what a real connection does: stop accepting sends, then
// leave every room.
func (m *mockHandle) close(reg *Registry) {
	m.closed.Store(true)
	reg.LeaveAll(m)
}

func ids(hs []Handle) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.ID())
	}
	return out
}
