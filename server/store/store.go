package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"poker-room/server/engine"
)

//go:embed schema.sql
var schema embed.FS

var (
	ErrNotFound        = errors.New("store: not found")
	ErrVersionConflict = errors.New("store: version conflict")
	ErrDuplicateKey    = errors.New("store: duplicate key")
)

const uniqueViolation = "23505"

type DB struct{ *pgxpool.Pool }

func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close(ctx context.Context)      { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

/* -----------------------------
   Games: one JSON document per table
------------------------------*/

// Load fetches the game stored under code.
func (db *DB) Load(ctx context.Context, code string) (*engine.Game, error) {
	var (
		doc     []byte
		version int64
	)
	err := db.QueryRow(ctx, `SELECT doc, version FROM games WHERE code = $1`, code).Scan(&doc, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var g engine.Game
	if err := json.Unmarshal(doc, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", code, err)
	}
	g.Version = version
	return &g, nil
}

// Save writes g if the stored version still equals expected. On success
// g.Version is the new version.
func (db *DB) Save(ctx context.Context, g *engine.Game, expected int64) error {
	g.Version = expected + 1
	doc, err := json.Marshal(g)
	if err != nil {
		g.Version = expected
		return err
	}
	tag, err := db.Exec(ctx, `
        UPDATE games
           SET doc = $2::jsonb,
               version = $3,
               updated_at = now()
         WHERE code = $1 AND version = $4
    `, g.Code, string(doc), g.Version, expected)
	if err != nil {
		g.Version = expected
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	g.Version = expected
	var one int
	err = db.QueryRow(ctx, `SELECT 1 FROM games WHERE code = $1`, g.Code).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

// Create inserts a new game at version 1.
func (db *DB) Create(ctx context.Context, g *engine.Game) error {
	g.Version = 1
	doc, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
        INSERT INTO games(id, code, version, doc)
        VALUES ($1, $2, $3, $4::jsonb)
    `, g.ID, g.Code, g.Version, string(doc))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// Codes lists every stored game code, newest first.
func (db *DB) Codes(ctx context.Context) ([]string, error) {
	rows, err := db.Query(ctx, `SELECT code FROM games ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

/* -----------------------------
   Balances
------------------------------*/

// GetOrCreateBalance returns the user's chips, seeding initial on first use.
func (db *DB) GetOrCreateBalance(ctx context.Context, userID string, initial int) (int, error) {
	var chips int
	err := db.QueryRow(ctx, `
        INSERT INTO balances(user_id, chips)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE
          SET user_id = EXCLUDED.user_id
        RETURNING chips
    `, userID, initial).Scan(&chips)
	return chips, err
}

func (db *DB) SetBalance(ctx context.Context, userID string, chips int) error {
	_, err := db.Exec(ctx, `
        INSERT INTO balances(user_id, chips)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE
          SET chips = EXCLUDED.chips,
              updated_at = now()
    `, userID, chips)
	return err
}
