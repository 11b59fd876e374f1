package protocol

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/zoravur/tabletop-sync/internal/dice"
)

var validate = validator.New()

type rollPayload struct {
	RoomID   RoomID `validate:"gt=0"`
	UserID   int64  `validate:"gte=0"`
	Username string `validate:"max=64"`
}

type stateUpdatePayload struct {
	RoomID RoomID `validate:"gt=0"`
	Scope  string `validate:"max=64"`
}

// Dispatcher routes room events to every member of the target room.
type Dispatcher struct {
	reg    *Registry
	roller dice.Roller
	log    *zap.Logger

	// RequireMembership rejects events for rooms the sender never joined.
	RequireMembership bool
}

func NewDispatcher(reg *Registry, roller dice.Roller, log *zap.Logger) *Dispatcher {
	if roller == nil {
		roller = dice.Default
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		reg:               reg,
		roller:            roller,
		log:               log,
		RequireMembership: true,
	}
}

// Route validates ev from src and fans it out to its room. A rejected event
// is answered with an error frame to src only and the error is returned.
func (d *Dispatcher) Route(ev Event, src Handle) error {
	out, err := d.prepare(ev, src)
	if err != nil {
		src.Send(ErrorEvent(err))
		return err
	}
	d.fanout(out)
	return nil
}

func (d *Dispatcher) prepare(ev Event, src Handle) (Event, error) {
	switch ev.Type {
	case KindRoll:
		if err := validate.Struct(rollPayload{RoomID: ev.RoomID, UserID: ev.UserID, Username: ev.Username}); err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		if err := d.checkMember(ev.RoomID, src); err != nil {
			return Event{}, err
		}
		if id := src.Identity(); !id.Anonymous() {
			ev.UserID, ev.Username = id.UserID, id.Username
		}
		return d.Roll(ev)

	case KindStateUpdate:
		if err := validate.Struct(stateUpdatePayload{RoomID: ev.RoomID, Scope: ev.Scope}); err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		if err := d.checkMember(ev.RoomID, src); err != nil {
			return Event{}, err
		}
		return StateUpdate(ev.RoomID, ev.Scope), nil
	}
	return Event{}, fmt.Errorf("%w: %q", ErrUnsupportedEvent, ev.Type)
}

// Roll fills in the outcome of a roll request. It is the only place a die is
// thrown, whether the request came over a live connection or over HTTP.
func (d *Dispatcher) Roll(ev Event) (Event, error) {
	result, err := d.roller.Roll(ev.DiceType)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:     KindRoll,
		RoomID:   ev.RoomID,
		DiceType: ev.DiceType,
		Result:   result,
		Critical: dice.Critical(ev.DiceType, result),
		UserID:   ev.UserID,
		Username: ev.Username,
	}, nil
}

func (d *Dispatcher) checkMember(room RoomID, src Handle) error {
	if !d.RequireMembership || d.reg.IsMember(room, src) {
		return nil
	}
	return fmt.Errorf("%w %d", ErrNotRoomMember, room)
}

// Publish fans out a server-originated event and reports how many handles
// it was handed to.
func (d *Dispatcher) Publish(ev Event) int {
	return d.fanout(ev)
}

func (d *Dispatcher) fanout(ev Event) int {
	members := d.reg.MembersOf(ev.RoomID)
	for _, h := range members {
		h.Send(ev)
	}
	d.log.Debug("event broadcast",
		zap.String("type", string(ev.Type)),
		zap.Int64("room", ev.RoomID.Int64()),
		zap.Int("recipients", len(members)),
	)
	return len(members)
}

// IsClientError reports whether err was caused by the event itself rather
// than by the server.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedEvent) ||
		errors.Is(err, ErrUnsupportedEvent) ||
		errors.Is(err, ErrInvalidEvent) ||
		errors.Is(err, ErrNotRoomMember) ||
		errors.Is(err, dice.ErrInvalidDieSize)
}
