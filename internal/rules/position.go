package rules

import (
	"fmt"
	"strings"
)

// Size is the board dimension.
const Size = 8

// Position addresses a square. Row 0 is rank 8, column 0 is file "a".
type Position struct {
	Row int
	Col int
}

// Pos is shorthand for Position{Row: row, Col: col}.
func Pos(row, col int) Position { return Position{Row: row, Col: col} }

// Valid reports whether both coordinates are on the board.
func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

// Algebraic renders the square as file+rank, e.g. "e2".
func (p Position) Algebraic() string {
	if !p.Valid() {
		return "??"
	}
	return fmt.Sprintf("%c%d", 'a'+p.Col, Size-p.Row)
}

func (p Position) String() string { return p.Algebraic() }

// ParseSquare parses "e2"-style coordinates (file letter case-insensitive).
func ParseSquare(s string) (Position, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) != 2 || v[0] < 'a' || v[0] > 'h' || v[1] < '1' || v[1] > '8' {
		return Position{}, fmt.Errorf("invalid square %q", s)
	}
	return Position{Row: Size - int(v[1]-'0'), Col: int(v[0] - 'a')}, nil
}

// MustSquare is ParseSquare for literals known to be valid.
func MustSquare(s string) Position {
	p, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Move is a coordinate move with an optional promotion kind.
type Move struct {
	From      Position
	To        Position
	Promotion Kind
}

func (m Move) String() string {
	s := m.From.Algebraic() + "-" + m.To.Algebraic()
	if m.Promotion != NoKind {
		s += m.Promotion.Letter()
	}
	return s
}

// Castling is a textual castling intent.
type Castling uint8

const (
	NoCastling Castling = iota
	Kingside
	Queenside
)

func (c Castling) String() string {
	switch c {
	case Kingside:
		return "kingside"
	case Queenside:
		return "queenside"
	default:
		return "none"
	}
}
