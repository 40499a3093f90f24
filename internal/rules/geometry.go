package rules

// IsPseudoLegal reports whether piece may travel from -> to on board by its
// movement geometry alone. It ignores whose turn it is, whether the
// destination holds a friendly piece, and whether the move exposes the
// mover's own king.
func IsPseudoLegal(piece Piece, from, to Position, board *Board) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	dr := to.Row - from.Row
	dc := to.Col - from.Col
	adr, adc := abs(dr), abs(dc)

	switch piece.Kind {
	case Pawn:
		return pawnMove(piece.Color, from, to, board)
	case Rook:
		return (dr == 0 || dc == 0) && PathClear(from, to, board)
	case Knight:
		return (adr == 2 && adc == 1) || (adr == 1 && adc == 2)
	case Bishop:
		return adr == adc && PathClear(from, to, board)
	case Queen:
		return (dr == 0 || dc == 0 || adr == adc) && PathClear(from, to, board)
	case King:
		return adr <= 1 && adc <= 1
	default:
		return false
	}
}

// pawnDirection is the row delta of a forward step: White climbs toward
// row 0, Black toward row 7.
func pawnDirection(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

func pawnStartRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

// PromotionRow is the far rank for color's pawns.
func PromotionRow(c Color) int {
	if c == White {
		return 0
	}
	return Size - 1
}

func pawnMove(color Color, from, to Position, board *Board) bool {
	dir := pawnDirection(color)
	dr := to.Row - from.Row
	dc := to.Col - from.Col

	switch {
	case dc == 0 && dr == dir:
		return !board.Occupied(to)
	case dc == 0 && dr == 2*dir:
		if from.Row != pawnStartRow(color) {
			return false
		}
		mid := Position{Row: from.Row + dir, Col: from.Col}
		return !board.Occupied(mid) && !board.Occupied(to)
	case abs(dc) == 1 && dr == dir:
		// en passant is not supported: a diagonal step needs a victim
		target, ok := board.PieceAt(to)
		return ok && target.Color != color
	default:
		return false
	}
}

// PathClear reports whether every square strictly between from and to is
// empty. Adjacent squares are trivially clear; pairs that are not on a
// shared row, column or diagonal are never clear.
func PathClear(from, to Position, board *Board) bool {
	dr := to.Row - from.Row
	dc := to.Col - from.Col
	if !(dr == 0 || dc == 0 || abs(dr) == abs(dc)) || (dr == 0 && dc == 0) {
		return false
	}
	stepR, stepC := sign(dr), sign(dc)
	r, c := from.Row+stepR, from.Col+stepC
	for r != to.Row || c != to.Col {
		if board.Occupied(Position{Row: r, Col: c}) {
			return false
		}
		r += stepR
		c += stepC
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
