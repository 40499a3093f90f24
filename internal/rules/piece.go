package rules

import "strings"

// Color identifies a side.
type Color uint8

const (
	White Color = iota + 1
	Black
)

// Opposite returns the other side.
func (c Color) Opposite() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return c
	}
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// ParseColor accepts "white"/"w" and "black"/"b".
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	default:
		return 0, false
	}
}

// Kind is a piece type. The zero value means "no kind" and doubles as
// "no promotion requested" in Move.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Rook
	Knight
	Bishop
	Queen
	King
)

var kindNames = [...]string{
	NoKind: "none",
	Pawn:   "pawn",
	Rook:   "rook",
	Knight: "knight",
	Bishop: "bishop",
	Queen:  "queen",
	King:   "king",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "none"
}

// Letter returns the upper-case English letter for the kind (P for pawns).
func (k Kind) Letter() string {
	switch k {
	case Pawn:
		return "P"
	case Rook:
		return "R"
	case Knight:
		return "N"
	case Bishop:
		return "B"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return ""
	}
}

// KindFromLetter maps Q/R/N/B/K/P (any case) to a Kind.
func KindFromLetter(r rune) Kind {
	switch r {
	case 'p', 'P':
		return Pawn
	case 'r', 'R':
		return Rook
	case 'n', 'N':
		return Knight
	case 'b', 'B':
		return Bishop
	case 'q', 'Q':
		return Queen
	case 'k', 'K':
		return King
	default:
		return NoKind
	}
}

// ParseKind accepts the lower-case kind name.
func ParseKind(s string) Kind {
	v := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if k != int(NoKind) && name == v {
			return Kind(k)
		}
	}
	return NoKind
}

// IsPromotionTarget reports whether a pawn may become this kind.
func (k Kind) IsPromotionTarget() bool {
	return k == Queen || k == Rook || k == Bishop || k == Knight
}

// Piece is an immutable kind/color pair.
type Piece struct {
	Kind  Kind
	Color Color
}

// String renders "Pw", "Kb" and so on.
func (p Piece) String() string {
	if p.Kind == NoKind {
		return "__"
	}
	side := "w"
	if p.Color == Black {
		side = "b"
	}
	return p.Kind.Letter() + side
}
