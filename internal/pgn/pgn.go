// Package pgn converts a session move log into PGN with SAN movetext,
// replaying it through corentings/chess.
package pgn

import (
	"fmt"
	"strings"
	"sync"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"

	"github.com/park285/cheese-arbiter/internal/game"
	"github.com/park285/cheese-arbiter/internal/rules"
)

type Meta struct {
	Event  string
	Site   string
	White  string
	Black  string
	Date   time.Time
	Status game.Status
	// StartFEN is the initial position when the game did not start from
	// the standard opening.
	StartFEN string
}

// Document is the exported game. Complete is false when the library
// rejected a move; the remaining moves then appear in coordinate form.
type Document struct {
	SAN      []string
	PGN      string
	FEN      string
	Result   string
	ECOCode  string
	ECOTitle string
	Complete bool
}

var (
	bookOnce sync.Once
	book     *opening.BookECO
)

func ecoBook() *opening.BookECO {
	bookOnce.Do(func() { book = opening.NewBookECO() })
	return book
}

// Export replays log from meta.StartFEN, or from the standard opening
// when it is empty.
func Export(meta Meta, log []game.MoveRecord) *Document {
	doc := &Document{Result: ResultToken(meta.Status), Complete: true}
	g := nchess.NewGame()
	if meta.StartFEN != "" {
		opt, err := nchess.FEN(meta.StartFEN)
		if err != nil {
			doc.Complete = false
			tokens := make([]string, 0, len(log))
			for _, rec := range log {
				tokens = append(tokens, rec.Move().String())
			}
			doc.PGN = build(meta, doc, tokens)
			return doc
		}
		g = nchess.NewGame(opt)
	}
	uci := nchess.UCINotation{}

	tokens := make([]string, 0, len(log))
	for i, rec := range log {
		pos := g.Position()
		mv, err := uci.Decode(pos, rec.UCI())
		if err != nil {
			doc.Complete = false
			for _, rest := range log[i:] {
				tokens = append(tokens, rest.Move().String())
			}
			break
		}
		san := nchess.AlgebraicNotation{}.Encode(pos, mv)
		if err := g.Move(mv, nil); err != nil {
			doc.Complete = false
			for _, rest := range log[i:] {
				tokens = append(tokens, rest.Move().String())
			}
			break
		}
		doc.SAN = append(doc.SAN, san)
		tokens = append(tokens, san)
	}

	if doc.Complete {
		doc.FEN = g.FEN()
		if b := ecoBook(); b != nil && len(log) > 0 && meta.StartFEN == "" {
			if eco := b.Find(g.Moves()); eco != nil {
				doc.ECOCode, doc.ECOTitle = eco.Code(), eco.Title()
			}
		}
	}
	doc.PGN = build(meta, doc, tokens)
	return doc
}

// ResultToken maps a status to the PGN result tag.
func ResultToken(s game.Status) string {
	switch s {
	case game.StatusWhiteWins:
		return "1-0"
	case game.StatusBlackWins:
		return "0-1"
	default:
		return "*"
	}
}

func build(meta Meta, doc *Document, tokens []string) string {
	date := meta.Date
	if date.IsZero() {
		date = time.Now()
	}
	event := strings.TrimSpace(meta.Event)
	if event == "" {
		event = "Casual game"
	}
	site := strings.TrimSpace(meta.Site)
	if site == "" {
		site = "cheese-arbiter"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[Event \"%s\"]\n", sanitize(event))
	fmt.Fprintf(&b, "[Site \"%s\"]\n", sanitize(site))
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitize(meta.White))
	fmt.Fprintf(&b, "[Black \"%s\"]\n", sanitize(meta.Black))
	if meta.StartFEN != "" {
		b.WriteString("[SetUp \"1\"]\n")
		fmt.Fprintf(&b, "[FEN \"%s\"]\n", sanitize(meta.StartFEN))
	}
	if doc.ECOCode != "" {
		fmt.Fprintf(&b, "[ECO \"%s\"]\n", doc.ECOCode)
		fmt.Fprintf(&b, "[Opening \"%s\"]\n", sanitize(doc.ECOTitle))
	}
	fmt.Fprintf(&b, "[Result \"%s\"]\n\n", doc.Result)

	// black to move first: "1... e5 2. d4 ..."
	start := 0
	if blackToMove(meta.StartFEN) && len(tokens) > 0 {
		fmt.Fprintf(&b, "1... %s ", tokens[0])
		start = 1
	}
	for i := start; i < len(tokens); i += 2 {
		fmt.Fprintf(&b, "%d. %s ", (i-start)/2+1+start, tokens[i])
		if i+1 < len(tokens) {
			b.WriteString(tokens[i+1])
			b.WriteByte(' ')
		}
	}
	b.WriteString(doc.Result)
	return b.String()
}

func blackToMove(fen string) bool {
	fields := strings.Fields(fen)
	return len(fields) > 1 && fields[1] == "b"
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}

// FEN renders a position in Forsyth-Edwards notation. Castling rights are
// always "-" and there is never an en passant square.
func FEN(board *rules.Board, turn rules.Color, plies int) string {
	var b strings.Builder
	for row := 0; row < rules.Size; row++ {
		empty := 0
		for col := 0; col < rules.Size; col++ {
			p, ok := board.PieceAt(rules.Pos(row, col))
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				fmt.Fprintf(&b, "%d", empty)
				empty = 0
			}
			l := p.Kind.Letter()
			if p.Color == rules.Black {
				l = strings.ToLower(l)
			}
			b.WriteString(l)
		}
		if empty > 0 {
			fmt.Fprintf(&b, "%d", empty)
		}
		if row < rules.Size-1 {
			b.WriteByte('/')
		}
	}
	side := "w"
	if turn == rules.Black {
		side = "b"
	}
	fmt.Fprintf(&b, " %s - - 0 %d", side, plies/2+1)
	return b.String()
}
