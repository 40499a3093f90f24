// Package render draws boards and move logs as text and PNG.
package render

import (
	"fmt"
	"strings"

	"github.com/park285/cheese-arbiter/internal/game"
	"github.com/park285/cheese-arbiter/internal/rules"
)

// FilesFooter is the last line of Text.
const FilesFooter = "   a  b  c  d  e  f  g  h"

// Text renders the board rank 8 first, one rank per line:
//
//	8 Rb Nb Bb Qb Kb Bb Nb Rb
//	...
//	   a  b  c  d  e  f  g  h
func Text(board *rules.Board) string {
	var b strings.Builder
	for row := 0; row < rules.Size; row++ {
		fmt.Fprintf(&b, "%d", rules.Size-row)
		for col := 0; col < rules.Size; col++ {
			p, _ := board.PieceAt(rules.Pos(row, col))
			b.WriteByte(' ')
			b.WriteString(p.String())
		}
		b.WriteByte('\n')
	}
	b.WriteString(FilesFooter)
	b.WriteByte('\n')
	return b.String()
}

// MoveList renders one numbered line per record, oldest first.
func MoveList(log []game.MoveRecord) string {
	var b strings.Builder
	for i, r := range log {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	return b.String()
}
