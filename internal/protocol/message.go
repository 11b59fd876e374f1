package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

type Kind string

const (
	KindRoll        Kind = "roll"
	KindStateUpdate Kind = "state_update"

	// session control, handled by the coordinator
	KindJoin  Kind = "join"
	KindLeave Kind = "leave"
	KindPing  Kind = "ping"

	// server replies
	KindJoined Kind = "joined"
	KindLeft   Kind = "left"
	KindPong   Kind = "pong"
	KindError  Kind = "error"
)

var (
	ErrMalformedEvent   = errors.New("malformed event")
	ErrUnsupportedEvent = errors.New("unsupported event")
	ErrInvalidEvent     = errors.New("invalid event")
	ErrNotRoomMember    = errors.New("not a member of room")
)

// RoomID identifies a room in the authoritative store.
type RoomID int64

func (r RoomID) Int64() int64 {
	return int64(r)
}

func (r RoomID) String() string {
	return strconv.FormatInt(int64(r), 10)
}

// Event is the single wire shape for every frame in both directions. Which
// fields are meaningful depends on Type.
type Event struct {
	Type     Kind   `json:"type"`
	RoomID   RoomID `json:"roomId,omitempty"`
	DiceType int    `json:"diceType,omitempty"`
	Result   int    `json:"result,omitempty"`
	Critical string `json:"critical,omitempty"`
	UserID   int64  `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Scope    string `json:"scope,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Decode parses one inbound frame. Unknown kinds decode fine; rejecting them
// is the dispatcher's job.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	return ev, nil
}

func Encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// ErrorEvent builds the frame echoed to a sender whose event was rejected.
func ErrorEvent(err error) Event {
	return Event{Type: KindError, Error: err.Error()}
}

// StateUpdate builds a content-free invalidation signal for a room.
func StateUpdate(room RoomID, scope string) Event {
	return Event{Type: KindStateUpdate, RoomID: room, Scope: scope}
}
