package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/zoravur/tabletop-sync/internal/auth"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the schema migrations rooted at their directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrate brings the schema up to date.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(Migrations())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Postgres implements Store on any database/sql Postgres driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const characterCols = `id, user_id, room_id, name, race, class, level, stats, hit_points, max_hit_points`

func (p *Postgres) EnsureUser(ctx context.Context, id auth.Identity) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (id, username, is_game_master) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, is_game_master = EXCLUDED.is_game_master`,
		id.UserID, id.Username, id.GameMaster)
	return translate(err)
}

func (p *Postgres) CreateRoom(ctx context.Context, r Room) (Room, error) {
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO game_rooms (name, game_master_id) VALUES ($1, $2) RETURNING id`,
		r.Name, r.GameMasterID,
	).Scan(&r.ID)
	return r, translate(err)
}

func (p *Postgres) GetRoom(ctx context.Context, id int64) (Room, error) {
	var r Room
	err := p.db.QueryRowContext(ctx,
		`SELECT id, name, game_master_id FROM game_rooms WHERE id = $1`, id,
	).Scan(&r.ID, &r.Name, &r.GameMasterID)
	return r, translate(err)
}

func (p *Postgres) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, game_master_id FROM game_rooms ORDER BY id`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := []Room{}
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.ID, &r.Name, &r.GameMasterID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) RoomExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM game_rooms WHERE id = $1)`, id).Scan(&ok)
	return ok, translate(err)
}

func (p *Postgres) CreateCharacter(ctx context.Context, c Character) (Character, error) {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO characters (user_id, room_id, name, race, class, level, stats, hit_points, max_hit_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING `+characterCols,
		c.UserID, c.RoomID, c.Name, c.Race, c.Class, c.Level, c.Stats, c.HitPoints, c.MaxHitPoints,
	).Scan(characterDest(&c)...)
	return c, translate(err)
}

func (p *Postgres) GetCharacter(ctx context.Context, id int64) (Character, error) {
	var c Character
	err := p.db.QueryRowContext(ctx,
		`SELECT `+characterCols+` FROM characters WHERE id = $1`, id,
	).Scan(characterDest(&c)...)
	return c, translate(err)
}

func (p *Postgres) ListCharactersByUser(ctx context.Context, userID int64) ([]Character, error) {
	return p.listCharacters(ctx, `SELECT `+characterCols+` FROM characters WHERE user_id = $1 ORDER BY id`, userID)
}

func (p *Postgres) ListCharactersByRoom(ctx context.Context, roomID int64) ([]Character, error) {
	return p.listCharacters(ctx, `SELECT `+characterCols+` FROM characters WHERE room_id = $1 ORDER BY id`, roomID)
}

func (p *Postgres) listCharacters(ctx context.Context, query string, arg int64) ([]Character, error) {
	rows, err := p.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := []Character{}
	for rows.Next() {
		var c Character
		if err := rows.Scan(characterDest(&c)...); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCharacter applies the non-nil fields of patch in one statement.
func (p *Postgres) UpdateCharacter(ctx context.Context, id int64, patch CharacterPatch) (Character, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	switch {
	case patch.ClearRoom:
		add("room_id", nil)
	case patch.RoomID != nil:
		add("room_id", *patch.RoomID)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Level != nil {
		add("level", *patch.Level)
	}
	if patch.Stats != nil {
		add("stats", *patch.Stats)
	}
	if patch.HitPoints != nil {
		add("hit_points", *patch.HitPoints)
	}
	if patch.MaxHitPoints != nil {
		add("max_hit_points", *patch.MaxHitPoints)
	}
	if len(sets) == 0 {
		return p.GetCharacter(ctx, id)
	}

	args = append(args, id)
	stmt := fmt.Sprintf(`UPDATE characters SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), characterCols)

	var c Character
	err := p.db.QueryRowContext(ctx, stmt, args...).Scan(characterDest(&c)...)
	return c, translate(err)
}

// DeleteCharacter returns the deleted row so callers know which room to
// notify.
func (p *Postgres) DeleteCharacter(ctx context.Context, id int64) (Character, error) {
	var c Character
	err := p.db.QueryRowContext(ctx,
		`DELETE FROM characters WHERE id = $1 RETURNING `+characterCols, id,
	).Scan(characterDest(&c)...)
	return c, translate(err)
}

func (p *Postgres) RoomOfCharacter(ctx context.Context, characterID int64) (int64, bool, error) {
	var room sql.NullInt64
	err := p.db.QueryRowContext(ctx, `SELECT room_id FROM characters WHERE id = $1`, characterID).Scan(&room)
	if err != nil {
		return 0, false, translate(err)
	}
	return room.Int64, room.Valid, nil
}

func (p *Postgres) CreateItem(ctx context.Context, it Item) (Item, error) {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO items (character_id, name, description, quantity)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		it.CharacterID, it.Name, it.Description, it.Quantity,
	).Scan(&it.ID)
	return it, translate(err)
}

func (p *Postgres) GetItem(ctx context.Context, id int64) (Item, error) {
	var it Item
	err := p.db.QueryRowContext(ctx,
		`SELECT id, character_id, name, description, quantity FROM items WHERE id = $1`, id,
	).Scan(&it.ID, &it.CharacterID, &it.Name, &it.Description, &it.Quantity)
	return it, translate(err)
}

func (p *Postgres) ListItems(ctx context.Context, characterID int64) ([]Item, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, character_id, name, description, quantity FROM items WHERE character_id = $1 ORDER BY id`,
		characterID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CharacterID, &it.Name, &it.Description, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteItem(ctx context.Context, id int64) (Item, error) {
	var it Item
	err := p.db.QueryRowContext(ctx,
		`DELETE FROM items WHERE id = $1 RETURNING id, character_id, name, description, quantity`, id,
	).Scan(&it.ID, &it.CharacterID, &it.Name, &it.Description, &it.Quantity)
	return it, translate(err)
}

func characterDest(c *Character) []any {
	return []any{&c.ID, &c.UserID, &c.RoomID, &c.Name, &c.Race, &c.Class, &c.Level, &c.Stats, &c.HitPoints, &c.MaxHitPoints}
}

// translate maps driver errors onto the package's sentinel errors. Both the
// lib/pq and pgx drivers are in use, so both error types are checked.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var code string
	var pqErr *pq.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	case errors.As(err, &pgErr):
		code = pgErr.Code
	}
	switch code {
	case "23505":
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case "23503":
		return fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return err
}
