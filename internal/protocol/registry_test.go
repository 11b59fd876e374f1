package protocol

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	h := newMockHandle("h")

	require.True(t, reg.Join(1, h))
	require.True(t, reg.Join(1, h))

	assert.Equal(t, []string{"h"}, ids(reg.MembersOf(1)))
	rooms, members := reg.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, members)
}

func TestRegistry_LeaveTolerance(t *testing.T) {
	reg := NewRegistry()
	h := newMockHandle("h")

	reg.Leave(1, h)
	reg.LeaveAll(h)

	reg.Join(1, h)
	reg.Join(2, h)
	reg.Leave(1, h)
	reg.Leave(1, h)

	assert.Empty(t, reg.MembersOf(1))
	assert.Equal(t, []string{"h"}, ids(reg.MembersOf(2)))
	assert.Equal(t, []RoomID{2}, reg.roomsOf(h))
}

func TestRegistry_LeaveAll(t *testing.T) {
	reg := NewRegistry()
	a, b := newMockHandle("a"), newMockHandle("b")

	for _, room := range []RoomID{1, 2, 3} {
		reg.Join(room, a)
	}
	reg.Join(2, b)

	a.close(reg)

	assert.Empty(t, reg.MembersOf(1))
	assert.Equal(t, []string{"b"}, ids(reg.MembersOf(2)))
	assert.Empty(t, reg.MembersOf(3))
	assert.Empty(t, reg.roomsOf(a))

	rooms, members := reg.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, members)
}

func TestRegistry_ClosedHandleCannotJoin(t *testing.T) {
	reg := NewRegistry()
	h := newMockHandle("h")
	h.close(reg)

	assert.False(t, reg.Join(1, h))
	assert.Empty(t, reg.MembersOf(1))
}

func TestRegistry_SnapshotIsNotLive(t *testing.T) {
	reg := NewRegistry()
	a, b := newMockHandle("a"), newMockHandle("b")
	reg.Join(1, a)

	snap := reg.MembersOf(1)
	reg.Join(1, b)
	reg.Leave(1, a)

	assert.Equal(t, []string{"a"}, ids(snap))
	assert.Equal(t, []string{"b"}, ids(reg.MembersOf(1)))
}

func TestRegistry_RandomSequencesNeverGhost(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for run := 0; run < 50; run++ {
		reg := NewRegistry()
		handles := make([]*mockHandle, 8)
		for i := range handles {
			handles[i] = newMockHandle(fmt.Sprintf("h%d", i))
		}

		for step := 0; step < 300; step++ {
			h := handles[r.IntN(len(handles))]
			room := RoomID(r.IntN(4) + 1)
			switch r.IntN(10) {
			case 0:
				h.close(reg)
			case 1, 2, 3:
				reg.Leave(room, h)
			default:
				reg.Join(room, h)
			}

			for _, c := range handles {
				if !c.Closed() {
					continue
				}
				for room := RoomID(1); room <= 4; room++ {
					require.NotContains(t, ids(reg.MembersOf(room)), c.ID())
				}
			}
		}
	}
}

func TestRegistry_CloseWinsOverConcurrentJoin(t *testing.T) {
	for i := 0; i < 200; i++ {
		reg := NewRegistry()
		h := newMockHandle("victim")

		var wg sync.WaitGroup
		start := make(chan struct{})
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func(room RoomID) {
				defer wg.Done()
				<-start
				for k := 0; k < 20; k++ {
					reg.Join(room, h)
				}
			}(RoomID(g + 1))
		}

		close(start)
		h.close(reg)
		wg.Wait()

		for room := RoomID(1); room <= 4; room++ {
			require.Empty(t, reg.MembersOf(room), "room %d", room)
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			h := newMockHandle(fmt.Sprintf("h%d", g))
			room := RoomID(g%3 + 1)
			for k := 0; k < 100; k++ {
				reg.Join(room, h)
				_ = reg.MembersOf(room)
				reg.Leave(room, h)
			}
			reg.Join(room, h)
		}(g)
	}
	wg.Wait()

	_, members := reg.Stats()
	assert.Equal(t, 16, members)
}
