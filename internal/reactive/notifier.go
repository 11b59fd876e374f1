package reactive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zoravur/tabletop-sync/internal/protocol"
)

// Scopes tell clients which list to re-fetch after a state_update.
const (
	ScopeRoom       = "room"
	ScopeCharacters = "characters"
	ScopeItems      = "items"
)

// Publisher fans an event out to a room.
type Publisher interface {
	Publish(ev protocol.Event) int
}

// RoomResolver finds the room a character currently sits in.
type RoomResolver interface {
	RoomOfCharacter(ctx context.Context, characterID int64) (roomID int64, ok bool, err error)
}

// Deps lets you inject the fan-out and lookup without global singletons.
type Deps struct {
	Publisher Publisher
	Rooms     RoomResolver
}

// Notifier turns store mutations into state_update signals. The signal
// carries no data: clients re-read the store, so push and poll always agree.
type Notifier struct {
	deps Deps
	log  *zap.Logger
}

func NewNotifier(deps Deps, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{deps: deps, log: log}
}

// RoomChanged signals every member of room.
func (n *Notifier) RoomChanged(room protocol.RoomID, scope string) int {
	if room <= 0 {
		return 0
	}
	sent := n.deps.Publisher.Publish(protocol.StateUpdate(room, scope))
	n.log.Debug("state_update published",
		zap.Int64("room", room.Int64()),
		zap.String("scope", scope),
		zap.Int("recipients", sent),
	)
	return sent
}

// CharacterChanged signals the room of a character that still exists.
// Callers that already know the room (e.g. after a delete) should use
// RoomChanged directly.
func (n *Notifier) CharacterChanged(ctx context.Context, characterID int64) error {
	return n.viaCharacter(ctx, characterID, ScopeCharacters)
}

// ItemChanged signals the room of the character owning the item.
func (n *Notifier) ItemChanged(ctx context.Context, characterID int64) error {
	return n.viaCharacter(ctx, characterID, ScopeItems)
}

func (n *Notifier) viaCharacter(ctx context.Context, characterID int64, scope string) error {
	if n.deps.Rooms == nil {
		return nil
	}
	room, ok, err := n.deps.Rooms.RoomOfCharacter(ctx, characterID)
	if err != nil {
		return fmt.Errorf("resolve room of character %d: %w", characterID, err)
	}
	if !ok {
		return nil
	}
	n.RoomChanged(protocol.RoomID(room), scope)
	return nil
}
