// Package notation parses coordinate move text such as "e2-e4", "e7xe8=Q"
// or "o-o" into structured intents.
package notation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/park285/cheese-arbiter/internal/rules"
)

var coordPattern = regexp.MustCompile(`^([a-h][1-8])[-x]?([a-h][1-8])(=?[qrnb])?$`)

// ParseError is returned for text that is neither a coordinate move nor a
// castling token.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string { return "invalid notation" }

// Parsed is exactly one of a coordinate move or a castling intent.
type Parsed struct {
	Move     rules.Move
	Castling rules.Castling
}

// IsCastling reports whether the text named a castling side.
func (p Parsed) IsCastling() bool { return p.Castling != rules.NoCastling }

// Parse normalizes text (whitespace removed, case folded) and recognizes
// castling tokens before coordinate moves.
func Parse(text string) (Parsed, error) {
	v := strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text))

	switch v {
	case "o-o", "0-0":
		return Parsed{Castling: rules.Kingside}, nil
	case "o-o-o", "0-0-0":
		return Parsed{Castling: rules.Queenside}, nil
	}

	m := coordPattern.FindStringSubmatch(v)
	if m == nil {
		return Parsed{}, &ParseError{Input: text}
	}
	from, err := rules.ParseSquare(m[1])
	if err != nil {
		return Parsed{}, &ParseError{Input: text}
	}
	to, err := rules.ParseSquare(m[2])
	if err != nil {
		return Parsed{}, &ParseError{Input: text}
	}
	mv := rules.Move{From: from, To: to}
	if promo := strings.TrimPrefix(m[3], "="); promo != "" {
		mv.Promotion = rules.KindFromLetter(rune(promo[0]))
	}
	return Parsed{Move: mv}, nil
}

// FormatUCI renders a move as long algebraic without separators, e.g.
// "e2e4" or "e7e8q".
func FormatUCI(m rules.Move) string {
	s := m.From.Algebraic() + m.To.Algebraic()
	if m.Promotion.IsPromotionTarget() {
		s += strings.ToLower(m.Promotion.Letter())
	}
	return s
}

// ParseUCI is the inverse of FormatUCI.
func ParseUCI(s string) (rules.Move, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) != 4 && len(v) != 5 {
		return rules.Move{}, &ParseError{Input: s}
	}
	from, err := rules.ParseSquare(v[0:2])
	if err != nil {
		return rules.Move{}, &ParseError{Input: s}
	}
	to, err := rules.ParseSquare(v[2:4])
	if err != nil {
		return rules.Move{}, &ParseError{Input: s}
	}
	mv := rules.Move{From: from, To: to}
	if len(v) == 5 {
		mv.Promotion = rules.KindFromLetter(rune(v[4]))
		if !mv.Promotion.IsPromotionTarget() {
			return rules.Move{}, &ParseError{Input: s}
		}
	}
	return mv, nil
}
