package rules

// Board is an 8x8 grid of optional pieces. An empty square holds the zero
// Piece. It is a plain container: nothing here validates chess rules.
type Board struct {
	squares [Size][Size]Piece
}

// NewBoard returns an empty board.
func NewBoard() *Board { return &Board{} }

// StandardBoard returns the opening setup, Black on rows 0-1.
func StandardBoard() *Board {
	b := &Board{}
	back := [Size]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for col := 0; col < Size; col++ {
		b.squares[0][col] = Piece{Kind: back[col], Color: Black}
		b.squares[1][col] = Piece{Kind: Pawn, Color: Black}
		b.squares[6][col] = Piece{Kind: Pawn, Color: White}
		b.squares[7][col] = Piece{Kind: back[col], Color: White}
	}
	return b
}

// PieceAt returns the occupant of pos. ok is false for empty or off-board squares.
func (b *Board) PieceAt(pos Position) (Piece, bool) {
	if b == nil || !pos.Valid() {
		return Piece{}, false
	}
	p := b.squares[pos.Row][pos.Col]
	return p, p.Kind != NoKind
}

// Occupied reports whether pos holds a piece.
func (b *Board) Occupied(pos Position) bool {
	_, ok := b.PieceAt(pos)
	return ok
}

// SetPiece writes p to pos, overwriting any occupant. Writing the zero
// Piece clears the square. Off-board positions are ignored.
func (b *Board) SetPiece(pos Position, p Piece) {
	if b == nil || !pos.Valid() {
		return
	}
	b.squares[pos.Row][pos.Col] = p
}

// Clear empties pos.
func (b *Board) Clear(pos Position) { b.SetPiece(pos, Piece{}) }

// Clone returns an independent copy.
func (b *Board) Clone() *Board {
	if b == nil {
		return NewBoard()
	}
	c := *b
	return &c
}

// Equal compares occupancy square by square.
func (b *Board) Equal(o *Board) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.squares == o.squares
}

// Placed is an occupied square.
type Placed struct {
	Pos   Position
	Piece Piece
}

// Pieces lists the pieces of color in row-major order.
func (b *Board) Pieces(color Color) []Placed {
	var out []Placed
	b.each(func(pos Position, p Piece) {
		if p.Color == color {
			out = append(out, Placed{Pos: pos, Piece: p})
		}
	})
	return out
}

// All lists every occupied square in row-major order.
func (b *Board) All() []Placed {
	var out []Placed
	b.each(func(pos Position, p Piece) {
		out = append(out, Placed{Pos: pos, Piece: p})
	})
	return out
}

func (b *Board) each(fn func(Position, Piece)) {
	if b == nil {
		return
	}
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if p := b.squares[row][col]; p.Kind != NoKind {
				fn(Position{Row: row, Col: col}, p)
			}
		}
	}
}
