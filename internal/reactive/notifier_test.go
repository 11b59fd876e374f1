package reactive

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoravur/tabletop-sync/internal/protocol"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []protocol.Event
}

func (p *recordingPublisher) Publish(ev protocol.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return 1
}

func (p *recordingPublisher) all() []protocol.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]protocol.Event(nil), p.events...)
}

type staticRooms map[int64]int64

func (s staticRooms) RoomOfCharacter(_ context.Context, id int64) (int64, bool, error) {
	if id < 0 {
		return 0, false, errors.New("boom")
	}
	room, ok := s[id]
	return room, ok, nil
}

func TestNotifier_RoomChanged(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewNotifier(Deps{Publisher: pub}, nil)

	assert.Equal(t, 1, n.RoomChanged(7, ScopeRoom))
	assert.Equal(t, 0, n.RoomChanged(0, ScopeRoom))

	assert.Equal(t, []protocol.Event{protocol.StateUpdate(7, ScopeRoom)}, pub.all())
}

func TestNotifier_ResolvesCharacterRoom(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewNotifier(Deps{Publisher: pub, Rooms: staticRooms{10: 7}}, nil)
	ctx := context.Background()

	require.NoError(t, n.CharacterChanged(ctx, 10))
	require.NoError(t, n.ItemChanged(ctx, 10))
	// character without a room: nothing to signal
	require.NoError(t, n.CharacterChanged(ctx, 11))
	assert.Error(t, n.ItemChanged(ctx, -1))

	assert.Equal(t, []protocol.Event{
		protocol.StateUpdate(7, ScopeCharacters),
		protocol.StateUpdate(7, ScopeItems),
	}, pub.all())
}
