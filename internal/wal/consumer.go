package wal

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/zoravur/tabletop-sync/internal/protocol"
	"github.com/zoravur/tabletop-sync/internal/reactive"
)

// Change is one row change in a wal2json (format v1) envelope.
type Change struct {
	Kind         string `json:"kind"`
	Schema       string `json:"schema"`
	Table        string `json:"table"`
	ColumnNames  []any  `json:"columnnames"`
	ColumnValues []any  `json:"columnvalues"`
	OldKeys      Keys   `json:"oldkeys"`
}

type Keys struct {
	KeyNames  []any `json:"keynames"`
	KeyValues []any `json:"keyvalues"`
}

type Envelope struct {
	Change []Change `json:"change"`
}

// Invalidator is what the consumer signals; *reactive.Notifier satisfies it.
type Invalidator interface {
	RoomChanged(room protocol.RoomID, scope string) int
	ItemChanged(ctx context.Context, characterID int64) error
}

// Consumer turns committed store changes into room invalidations, so
// writes that bypass the HTTP API still reach live clients.
type Consumer struct {
	Notify Invalidator
	Log    *zap.Logger
}

type signal struct {
	room  protocol.RoomID
	scope string
}

func (c *Consumer) OnMessage(ctx context.Context, line []byte) error {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return fmt.Errorf("decode wal message: %w", err)
	}

	// one transaction may touch the same room many times; signal once
	rooms := map[signal]struct{}{}
	characters := map[int64]struct{}{}

	for _, ch := range env.Change {
		newRow := row(ch.ColumnNames, ch.ColumnValues)
		oldRow := row(ch.OldKeys.KeyNames, ch.OldKeys.KeyValues)

		switch ch.Table {
		case "game_rooms":
			for _, r := range []map[string]any{newRow, oldRow} {
				if id, ok := intCol(r, "id"); ok {
					rooms[signal{protocol.RoomID(id), reactive.ScopeRoom}] = struct{}{}
				}
			}
		case "characters":
			// an update may move a character: both rooms need to know
			for _, r := range []map[string]any{newRow, oldRow} {
				if id, ok := intCol(r, "room_id"); ok {
					rooms[signal{protocol.RoomID(id), reactive.ScopeCharacters}] = struct{}{}
				}
			}
		case "items":
			for _, r := range []map[string]any{newRow, oldRow} {
				if id, ok := intCol(r, "character_id"); ok {
					characters[id] = struct{}{}
				}
			}
		}
	}

	for s := range rooms {
		c.Notify.RoomChanged(s.room, s.scope)
	}
	for id := range characters {
		if err := c.Notify.ItemChanged(ctx, id); err != nil {
			// the character may be gone in the same transaction
			c.log().Debug("item change not routed", zap.Int64("character", id), zap.Error(err))
		}
	}
	return nil
}

func (c *Consumer) log() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func row(names, values []any) map[string]any {
	out := make(map[string]any, len(names))
	for i, n := range names {
		name, ok := n.(string)
		if !ok || i >= len(values) {
			continue
		}
		out[name] = values[i]
	}
	return out
}

func intCol(r map[string]any, col string) (int64, bool) {
	switch v := r[col].(type) {
	case float64:
		return int64(v), v > 0
	case json.Number:
		n, err := v.Int64()
		return n, err == nil && n > 0
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil && n > 0
	}
	return 0, false
}
