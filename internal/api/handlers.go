package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/zoravur/tabletop-sync/internal/auth"
	"github.com/zoravur/tabletop-sync/internal/dice"
	"github.com/zoravur/tabletop-sync/internal/protocol"
	"github.com/zoravur/tabletop-sync/internal/reactive"
	"github.com/zoravur/tabletop-sync/internal/store"
)

var (
	errBadRequest = errors.New("bad request")
	validate      = validator.New()
)

// Notifier is the part of the invalidation path the handlers drive.
type Notifier interface {
	RoomChanged(room protocol.RoomID, scope string) int
	CharacterChanged(ctx context.Context, characterID int64) error
	ItemChanged(ctx context.Context, characterID int64) error
}

// Roller throws dice and broadcasts the outcome; *protocol.Dispatcher.
type Roller interface {
	Roll(ev protocol.Event) (protocol.Event, error)
	Publish(ev protocol.Event) int
}

// Handlers serve the REST surface. Reads are the poll path; every
// successful mutation is followed by a state_update to the affected room.
type Handlers struct {
	Store  store.Store
	Notify Notifier
	Dice   Roller
}

// ---- rooms ----

type createRoomRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Store.ListRooms(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !decode(w, r, &req) {
		return
	}
	id, ok := h.caller(w, r)
	if !ok {
		return
	}

	room, err := h.Store.CreateRoom(r.Context(), store.Room{Name: req.Name, GameMasterID: id.UserID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID")
	if !ok {
		return
	}
	room, err := h.Store.GetRoom(r.Context(), roomID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handlers) listRoomCharacters(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID")
	if !ok {
		return
	}
	exists, err := h.Store.RoomExists(r.Context(), roomID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !exists {
		writeError(w, r, store.ErrNotFound)
		return
	}
	chars, err := h.Store.ListCharactersByRoom(r.Context(), roomID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chars)
}

// ---- characters ----

func (h *Handlers) listCharacters(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	chars, err := h.Store.ListCharactersByUser(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chars)
}

func (h *Handlers) createCharacter(w http.ResponseWriter, r *http.Request) {
	var c store.Character
	if !decode(w, r, &c) {
		return
	}
	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	c.ID = 0
	c.UserID = id.UserID

	created, err := h.Store.CreateCharacter(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if created.RoomID != nil {
		h.Notify.RoomChanged(protocol.RoomID(*created.RoomID), reactive.ScopeCharacters)
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) getCharacter(w http.ResponseWriter, r *http.Request) {
	charID, ok := pathID(w, r, "characterID")
	if !ok {
		return
	}
	c, err := h.Store.GetCharacter(r.Context(), charID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) updateCharacter(w http.ResponseWriter, r *http.Request) {
	charID, ok := pathID(w, r, "characterID")
	if !ok {
		return
	}
	var p store.CharacterPatch
	if !decode(w, r, &p) {
		return
	}
	if _, ok := h.caller(w, r); !ok {
		return
	}

	before, err := h.Store.GetCharacter(r.Context(), charID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// field rules that span the patch and the stored row, e.g. hit points
	// against a maximum that the patch leaves alone
	if err := validate.Struct(p.Apply(before)); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	after, err := h.Store.UpdateCharacter(r.Context(), charID, p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// a character that changed rooms is news to both of them
	if before.RoomID != nil && (after.RoomID == nil || *after.RoomID != *before.RoomID) {
		h.Notify.RoomChanged(protocol.RoomID(*before.RoomID), reactive.ScopeCharacters)
	}
	h.notify(r, h.Notify.CharacterChanged(r.Context(), after.ID))
	writeJSON(w, http.StatusOK, after)
}

func (h *Handlers) deleteCharacter(w http.ResponseWriter, r *http.Request) {
	charID, ok := pathID(w, r, "characterID")
	if !ok {
		return
	}
	if _, ok := h.caller(w, r); !ok {
		return
	}
	gone, err := h.Store.DeleteCharacter(r.Context(), charID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// the row is gone, so the room comes from the deleted copy
	if gone.RoomID != nil {
		h.Notify.RoomChanged(protocol.RoomID(*gone.RoomID), reactive.ScopeCharacters)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- items ----

func (h *Handlers) listItems(w http.ResponseWriter, r *http.Request) {
	charID, ok := pathID(w, r, "characterID")
	if !ok {
		return
	}
	if _, err := h.Store.GetCharacter(r.Context(), charID); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.Store.ListItems(r.Context(), charID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) createItem(w http.ResponseWriter, r *http.Request) {
	charID, ok := pathID(w, r, "characterID")
	if !ok {
		return
	}
	var it store.Item
	if !decode(w, r, &it) {
		return
	}
	if _, ok := h.caller(w, r); !ok {
		return
	}
	it.ID = 0
	it.CharacterID = charID

	created, err := h.Store.CreateItem(r.Context(), it)
	if err != nil {
		if errors.Is(err, store.ErrInvalidReference) {
			err = fmt.Errorf("character %d: %w", charID, store.ErrNotFound)
		}
		writeError(w, r, err)
		return
	}
	h.notify(r, h.Notify.ItemChanged(r.Context(), charID))
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) deleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}
	if _, ok := h.caller(w, r); !ok {
		return
	}
	gone, err := h.Store.DeleteItem(r.Context(), itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.notify(r, h.Notify.ItemChanged(r.Context(), gone.CharacterID))
	w.WriteHeader(http.StatusNoContent)
}

// ---- dice ----

type rollRequest struct {
	RoomID   int64 `json:"roomId" validate:"gt=0"`
	DiceType int   `json:"diceType" validate:"gte=1"`
}

// roll throws a die for a room over HTTP. The outcome reaches live members
// exactly like a websocket roll and is also returned to the caller.
func (h *Handlers) roll(w http.ResponseWriter, r *http.Request) {
	var req rollRequest
	if !decode(w, r, &req) {
		return
	}
	exists, err := h.Store.RoomExists(r.Context(), req.RoomID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !exists {
		writeError(w, r, fmt.Errorf("room %d: %w", req.RoomID, store.ErrNotFound))
		return
	}

	id, _ := auth.FromContext(r.Context())
	out, err := h.Dice.Roll(protocol.Event{
		Type:     protocol.KindRoll,
		RoomID:   protocol.RoomID(req.RoomID),
		DiceType: req.DiceType,
		UserID:   id.UserID,
		Username: id.Username,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	sent := h.Dice.Publish(out)
	Logger(r.Context()).Debug("roll over http",
		zap.Int64("room", req.RoomID),
		zap.Int("result", out.Result),
		zap.Int("recipients", sent),
	)
	writeJSON(w, http.StatusOK, out)
}

// ---- helpers ----

// caller makes sure the authenticated user has a row before it writes
// anything that references it.
func (h *Handlers) caller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, _ := auth.FromContext(r.Context())
	if id.Anonymous() {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return id, false
	}
	if err := h.Store.EnsureUser(r.Context(), id); err != nil {
		writeError(w, r, err)
		return id, false
	}
	return id, true
}

// notify logs a failed invalidation; the write itself already succeeded and
// pollers will catch up.
func (h *Handlers) notify(r *http.Request, err error) {
	if err != nil {
		Logger(r.Context()).Warn("state_update not sent", zap.Error(err))
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid JSON body", errBadRequest))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, fmt.Errorf("%w: invalid %s", errBadRequest, param))
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, dice.ErrInvalidDieSize):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrInvalidReference):
		status = http.StatusUnprocessableEntity
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		Logger(r.Context()).Error("request failed", zap.Error(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
