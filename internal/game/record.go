package game

import (
	"fmt"

	"github.com/park285/cheese-arbiter/internal/notation"
	"github.com/park285/cheese-arbiter/internal/rules"
)

// MoveRecord is one accepted move. The log is append-only.
type MoveRecord struct {
	Mover     rules.Color
	From      rules.Position
	To        rules.Position
	Piece     rules.Kind
	Captured  *rules.Piece
	Promotion rules.Kind
}

// Move returns the coordinate move this record describes.
func (r MoveRecord) Move() rules.Move {
	return rules.Move{From: r.From, To: r.To, Promotion: r.Promotion}
}

// UCI renders the record as "e2e4" / "a7a8q".
func (r MoveRecord) UCI() string { return notation.FormatUCI(r.Move()) }

func (r MoveRecord) String() string {
	s := fmt.Sprintf("%s %s %s-%s", r.Mover, r.Piece, r.From, r.To)
	if r.Captured != nil {
		s += fmt.Sprintf(" captures %s %s", r.Captured.Color, r.Captured.Kind)
	}
	if r.Promotion != rules.NoKind {
		s += " promotes to " + r.Promotion.String()
	}
	return s
}
