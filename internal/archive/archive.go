// Package archive stores finished games.
package archive

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidResult = errors.New("invalid archive result")

// Result is a finished game. Winner is "white" or "black".
type Result struct {
	GameID    string
	White     string
	Black     string
	Winner    string
	MovesUCI  []string
	MovesSAN  []string
	PGN       string
	StartedAt time.Time
	EndedAt   time.Time
}

// Duration is the wall time between the first and last save of the game.
func (r *Result) Duration() time.Duration {
	d := r.EndedAt.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Repository persists Results. Get returns nil, nil for unknown ids.
type Repository interface {
	SaveResult(ctx context.Context, r *Result) error
	Get(ctx context.Context, gameID string) (*Result, error)
	Recent(ctx context.Context, limit int) ([]*Result, error)
	Close() error
}

func validate(r *Result) error {
	if r == nil || r.GameID == "" {
		return ErrInvalidResult
	}
	switch r.Winner {
	case "white", "black":
		return nil
	default:
		return ErrInvalidResult
	}
}
