package rules

// FindKing locates color's king. ok is false when the king is gone, which
// callers treat as the game-ending signal.
func FindKing(color Color, board *Board) (Position, bool) {
	for _, pl := range board.Pieces(color) {
		if pl.Piece.Kind == King {
			return pl.Pos, true
		}
	}
	return Position{}, false
}

// Attackers lists the opposing pieces that have a pseudo-legal move onto
// color's king. It is empty when the king is absent.
func Attackers(color Color, board *Board) []Position {
	king, ok := FindKing(color, board)
	if !ok {
		return nil
	}
	var out []Position
	for _, pl := range board.Pieces(color.Opposite()) {
		if IsPseudoLegal(pl.Piece, pl.Pos, king, board) {
			out = append(out, pl.Pos)
		}
	}
	return out
}

// IsInCheck reports whether color's king is attacked. A missing king is
// not in check; the session handles absence separately.
func IsInCheck(color Color, board *Board) bool {
	king, ok := FindKing(color, board)
	if !ok {
		return false
	}
	for _, pl := range board.Pieces(color.Opposite()) {
		if IsPseudoLegal(pl.Piece, pl.Pos, king, board) {
			return true
		}
	}
	return false
}

// WouldExposeOwnKing plays piece from -> to on a clone of board and
// reports whether piece's side is then in check. A pawn reaching its far
// rank is simulated as a queen. board is never modified.
func WouldExposeOwnKing(piece Piece, from, to Position, board *Board) bool {
	sim := board.Clone()
	sim.Clear(from)
	landed := piece
	if piece.Kind == Pawn && to.Row == PromotionRow(piece.Color) {
		landed = Piece{Kind: Queen, Color: piece.Color}
	}
	sim.SetPiece(to, landed)
	return IsInCheck(piece.Color, sim)
}
