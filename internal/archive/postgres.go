package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const schema = `CREATE TABLE IF NOT EXISTS arbiter_games (
    game_id     TEXT PRIMARY KEY,
    white_name  TEXT NOT NULL,
    black_name  TEXT NOT NULL,
    winner      TEXT NOT NULL,
    moves_uci   JSONB NOT NULL,
    moves_san   JSONB NOT NULL,
    pgn         TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    ended_at    TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL
)`

type Postgres struct {
	db *sql.DB
}

// NewPostgres opens and pings the database and creates the table if needed.
func NewPostgres(databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// SaveResult upserts by game id.
func (p *Postgres) SaveResult(ctx context.Context, r *Result) error {
	if err := validate(r); err != nil {
		return err
	}
	uci, err := encodeMoves(r.MovesUCI)
	if err != nil {
		return fmt.Errorf("marshal moves_uci: %w", err)
	}
	san, err := encodeMoves(r.MovesSAN)
	if err != nil {
		return fmt.Errorf("marshal moves_san: %w", err)
	}

	const q = `INSERT INTO arbiter_games (
        game_id, white_name, black_name, winner,
        moves_uci, moves_san, pgn, started_at, ended_at, duration_ms
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
      ON CONFLICT (game_id) DO UPDATE SET
        white_name=EXCLUDED.white_name,
        black_name=EXCLUDED.black_name,
        winner=EXCLUDED.winner,
        moves_uci=EXCLUDED.moves_uci,
        moves_san=EXCLUDED.moves_san,
        pgn=EXCLUDED.pgn,
        started_at=EXCLUDED.started_at,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err = p.db.ExecContext(ctx, q,
		r.GameID, r.White, r.Black, r.Winner,
		uci, san, r.PGN,
		r.StartedAt, r.EndedAt, r.Duration().Milliseconds(),
	)
	return err
}

const selectCols = `game_id, white_name, black_name, winner, moves_uci, moves_san, pgn, started_at, ended_at`

func (p *Postgres) Get(ctx context.Context, gameID string) (*Result, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+selectCols+` FROM arbiter_games WHERE game_id = $1`, gameID)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// Recent lists results, newest first.
func (p *Postgres) Recent(ctx context.Context, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.db.QueryContext(ctx, `SELECT `+selectCols+` FROM arbiter_games ORDER BY ended_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(s scanner) (*Result, error) {
	var (
		r        Result
		uci, san []byte
	)
	if err := s.Scan(&r.GameID, &r.White, &r.Black, &r.Winner, &uci, &san, &r.PGN, &r.StartedAt, &r.EndedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(uci, &r.MovesUCI); err != nil {
		return nil, fmt.Errorf("decode moves_uci: %w", err)
	}
	if err := json.Unmarshal(san, &r.MovesSAN); err != nil {
		return nil, fmt.Errorf("decode moves_san: %w", err)
	}
	return &r, nil
}

// encodeMoves renders a JSONB array; nil becomes [].
func encodeMoves(moves []string) (string, error) {
	if moves == nil {
		moves = []string{}
	}
	b, err := json.Marshal(moves)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
