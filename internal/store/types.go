package store

import (
	"time"

	"github.com/park285/cheese-arbiter/internal/game"
)

// Game is the persisted state of a live game.
type Game struct {
	ID        string        `json:"id"`
	White     string        `json:"white"`
	Black     string        `json:"black"`
	Snapshot  game.Snapshot `json:"snapshot"`
	// StartFEN is set only for games created from a custom position.
	StartFEN  string        `json:"start_fen,omitempty"`
	FEN       string        `json:"fen"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Session rebuilds the rules session from the snapshot.
func (g *Game) Session() (*game.Session, error) {
	return game.Restore(g.Snapshot)
}

// Finished reports whether the stored status is terminal.
func (g *Game) Finished() bool { return g.Snapshot.Status.IsTerminal() }
