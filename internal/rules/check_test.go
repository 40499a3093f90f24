package rules

import "testing"

func TestFindKing(t *testing.T) {
	start := StandardBoard()
	if pos, ok := FindKing(White, start); !ok || pos != MustSquare("e1") {
		t.Fatalf("white king = %v,%v; want e1", pos, ok)
	}
	if pos, ok := FindKing(Black, start); !ok || pos != MustSquare("e8") {
		t.Fatalf("black king = %v,%v; want e8", pos, ok)
	}
	if _, ok := FindKing(White, NewBoard()); ok {
		t.Fatalf("found a king on an empty board")
	}
}

func TestIsInCheck(t *testing.T) {
	wk := Piece{Kind: King, Color: White}
	tests := []struct {
		name  string
		board *Board
		color Color
		want  bool
	}{
		{"opening", StandardBoard(), White, false},
		{"rook on open file", boardWith(map[string]Piece{"e1": wk, "e8": {Kind: Rook, Color: Black}}), White, true},
		{"rook blocked", boardWith(map[string]Piece{"e1": wk, "e2": {Kind: Pawn, Color: White}, "e8": {Kind: Rook, Color: Black}}), White, false},
		{"friendly rook", boardWith(map[string]Piece{"e1": wk, "e8": {Kind: Rook, Color: White}}), White, false},
		{"pawn diagonal", boardWith(map[string]Piece{"e4": wk, "d5": {Kind: Pawn, Color: Black}}), White, true},
		{"pawn straight ahead", boardWith(map[string]Piece{"e4": wk, "e5": {Kind: Pawn, Color: Black}}), White, false},
		{"pawn behind", boardWith(map[string]Piece{"e4": wk, "d3": {Kind: Pawn, Color: Black}}), White, false},
		{"knight", boardWith(map[string]Piece{"e4": wk, "f6": {Kind: Knight, Color: Black}}), White, true},
		{"adjacent king", boardWith(map[string]Piece{"e4": wk, "e5": {Kind: King, Color: Black}}), White, true},
		{"king missing", boardWith(map[string]Piece{"e8": {Kind: Rook, Color: Black}}), White, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInCheck(tt.color, tt.board); got != tt.want {
				t.Fatalf("IsInCheck = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAttackers(t *testing.T) {
	b := boardWith(map[string]Piece{
		"e1": {Kind: King, Color: White},
		"e8": {Kind: Rook, Color: Black},
		"d3": {Kind: Knight, Color: Black},
		"a1": {Kind: Rook, Color: Black},
		"b1": {Kind: Bishop, Color: White},
	})
	got := Attackers(White, b)
	if len(got) != 2 {
		t.Fatalf("attackers = %v, want 2", got)
	}
	if got[0] != MustSquare("e8") || got[1] != MustSquare("d3") {
		t.Fatalf("attackers = %v, want [e8 d3]", got)
	}
}

func TestWouldExposeOwnKing(t *testing.T) {
	b := boardWith(map[string]Piece{
		"e1": {Kind: King, Color: White},
		"e2": {Kind: Bishop, Color: White},
		"e8": {Kind: Rook, Color: Black},
	})
	before := b.Clone()

	bishop := Piece{Kind: Bishop, Color: White}
	if !WouldExposeOwnKing(bishop, MustSquare("e2"), MustSquare("d3"), b) {
		t.Fatalf("pinned bishop move should expose the king")
	}
	king := Piece{Kind: King, Color: White}
	if WouldExposeOwnKing(king, MustSquare("e1"), MustSquare("d1"), b) {
		t.Fatalf("king step to d1 should be safe")
	}
	if !WouldExposeOwnKing(king, MustSquare("e1"), MustSquare("f2"), boardWith(map[string]Piece{
		"e1": {Kind: King, Color: White},
		"f8": {Kind: Rook, Color: Black},
	})) {
		t.Fatalf("king stepping onto an attacked file should be exposed")
	}
	if !b.Equal(before) {
		t.Fatalf("simulation mutated the source board")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := StandardBoard()
	c := b.Clone()
	c.Clear(MustSquare("e2"))
	if !b.Occupied(MustSquare("e2")) {
		t.Fatalf("clearing the clone cleared the original")
	}
	if b.Equal(c) {
		t.Fatalf("boards should differ after clone mutation")
	}
}
