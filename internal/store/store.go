//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks

package store

import (
	"context"
	"errors"

	"github.com/zoravur/tabletop-sync/internal/auth"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidReference = errors.New("invalid reference")
)

// Store is the authoritative store for rooms, characters and items. The
// sync core never reads it; only the HTTP handlers and the invalidation
// path do.
type Store interface {
	EnsureUser(ctx context.Context, id auth.Identity) error

	CreateRoom(ctx context.Context, r Room) (Room, error)
	GetRoom(ctx context.Context, id int64) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	RoomExists(ctx context.Context, id int64) (bool, error)

	CreateCharacter(ctx context.Context, c Character) (Character, error)
	GetCharacter(ctx context.Context, id int64) (Character, error)
	ListCharactersByUser(ctx context.Context, userID int64) ([]Character, error)
	ListCharactersByRoom(ctx context.Context, roomID int64) ([]Character, error)
	UpdateCharacter(ctx context.Context, id int64, p CharacterPatch) (Character, error)
	DeleteCharacter(ctx context.Context, id int64) (Character, error)
	RoomOfCharacter(ctx context.Context, characterID int64) (roomID int64, ok bool, err error)

	CreateItem(ctx context.Context, it Item) (Item, error)
	GetItem(ctx context.Context, id int64) (Item, error)
	ListItems(ctx context.Context, characterID int64) ([]Item, error)
	DeleteItem(ctx context.Context, id int64) (Item, error)
}
