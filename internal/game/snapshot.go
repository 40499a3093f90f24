package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/park285/cheese-arbiter/internal/rules"
)

var ErrBadSnapshot = errors.New("invalid session snapshot")

// Snapshot is the JSON form of a Session. Rows hold eight characters each,
// rank 8 first: upper case for White, lower case for Black, '.' for empty.
type Snapshot struct {
	Rows     []string            `json:"rows"`
	Turn     string              `json:"turn"`
	Status   Status              `json:"status"`
	Log      []RecordSnapshot    `json:"log"`
	Captured map[string][]string `json:"captured,omitempty"`
}

// RecordSnapshot is the JSON form of a MoveRecord.
type RecordSnapshot struct {
	Mover     string `json:"mover"`
	From      string `json:"from"`
	To        string `json:"to"`
	Piece     string `json:"piece"`
	Captured  string `json:"captured,omitempty"`
	Promotion string `json:"promotion,omitempty"`
}

// Snapshot captures the full session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Rows:     EncodeRows(s.board),
		Turn:     s.turn.String(),
		Status:   s.status,
		Log:      make([]RecordSnapshot, 0, len(s.log)),
		Captured: map[string][]string{},
	}
	for _, r := range s.log {
		rs := RecordSnapshot{
			Mover: r.Mover.String(),
			From:  r.From.Algebraic(),
			To:    r.To.Algebraic(),
			Piece: r.Piece.String(),
		}
		if r.Captured != nil {
			rs.Captured = pieceLetter(*r.Captured)
		}
		if r.Promotion != rules.NoKind {
			rs.Promotion = r.Promotion.String()
		}
		snap.Log = append(snap.Log, rs)
	}
	for color, list := range s.captured {
		for _, p := range list {
			snap.Captured[color.String()] = append(snap.Captured[color.String()], pieceLetter(p))
		}
	}
	return snap
}

// Restore rebuilds a Session from a Snapshot.
func Restore(snap Snapshot) (*Session, error) {
	board, err := DecodeRows(snap.Rows)
	if err != nil {
		return nil, err
	}
	turn, ok := rules.ParseColor(snap.Turn)
	if !ok {
		return nil, fmt.Errorf("%w: turn %q", ErrBadSnapshot, snap.Turn)
	}
	s := &Session{board: board, turn: turn, captured: map[rules.Color][]rules.Piece{}}

	for i, rs := range snap.Log {
		rec, err := restoreRecord(rs)
		if err != nil {
			return nil, fmt.Errorf("%w: log[%d]: %v", ErrBadSnapshot, i, err)
		}
		s.log = append(s.log, rec)
	}
	for name, letters := range snap.Captured {
		color, ok := rules.ParseColor(name)
		if !ok {
			return nil, fmt.Errorf("%w: captured side %q", ErrBadSnapshot, name)
		}
		for _, l := range letters {
			p, ok := letterPiece(l)
			if !ok {
				return nil, fmt.Errorf("%w: captured piece %q", ErrBadSnapshot, l)
			}
			s.captured[color] = append(s.captured[color], p)
		}
	}

	switch snap.Status {
	case StatusInProgress, StatusCheck, StatusWhiteWins, StatusBlackWins:
		s.status = snap.Status
	case "":
		s.status = evaluate(board, turn.Opposite())
	default:
		return nil, fmt.Errorf("%w: status %q", ErrBadSnapshot, snap.Status)
	}
	return s, nil
}

func restoreRecord(rs RecordSnapshot) (MoveRecord, error) {
	mover, ok := rules.ParseColor(rs.Mover)
	if !ok {
		return MoveRecord{}, fmt.Errorf("mover %q", rs.Mover)
	}
	from, err := rules.ParseSquare(rs.From)
	if err != nil {
		return MoveRecord{}, err
	}
	to, err := rules.ParseSquare(rs.To)
	if err != nil {
		return MoveRecord{}, err
	}
	kind := rules.ParseKind(rs.Piece)
	if kind == rules.NoKind {
		return MoveRecord{}, fmt.Errorf("piece %q", rs.Piece)
	}
	rec := MoveRecord{Mover: mover, From: from, To: to, Piece: kind}
	if rs.Captured != "" {
		p, ok := letterPiece(rs.Captured)
		if !ok {
			return MoveRecord{}, fmt.Errorf("captured %q", rs.Captured)
		}
		rec.Captured = &p
	}
	if rs.Promotion != "" {
		rec.Promotion = rules.ParseKind(rs.Promotion)
		if !rec.Promotion.IsPromotionTarget() {
			return MoveRecord{}, fmt.Errorf("promotion %q", rs.Promotion)
		}
	}
	return rec, nil
}

// EncodeRows renders the board as eight rank strings, rank 8 first.
func EncodeRows(b *rules.Board) []string {
	rows := make([]string, rules.Size)
	for r := 0; r < rules.Size; r++ {
		var sb strings.Builder
		for c := 0; c < rules.Size; c++ {
			p, ok := b.PieceAt(rules.Pos(r, c))
			if !ok {
				sb.WriteByte('.')
				continue
			}
			sb.WriteString(pieceLetter(p))
		}
		rows[r] = sb.String()
	}
	return rows
}

// DecodeRows is the inverse of EncodeRows.
func DecodeRows(rows []string) (*rules.Board, error) {
	if len(rows) != rules.Size {
		return nil, fmt.Errorf("%w: want %d rows, got %d", ErrBadSnapshot, rules.Size, len(rows))
	}
	b := rules.NewBoard()
	for r, row := range rows {
		if len(row) != rules.Size {
			return nil, fmt.Errorf("%w: row %d has %d squares", ErrBadSnapshot, r, len(row))
		}
		for c := 0; c < rules.Size; c++ {
			if row[c] == '.' {
				continue
			}
			p, ok := letterPiece(row[c : c+1])
			if !ok {
				return nil, fmt.Errorf("%w: square %s holds %q", ErrBadSnapshot, rules.Pos(r, c), row[c])
			}
			b.SetPiece(rules.Pos(r, c), p)
		}
	}
	return b, nil
}

func pieceLetter(p rules.Piece) string {
	l := p.Kind.Letter()
	if p.Color == rules.Black {
		return strings.ToLower(l)
	}
	return l
}

func letterPiece(s string) (rules.Piece, bool) {
	if len(s) != 1 {
		return rules.Piece{}, false
	}
	kind := rules.KindFromLetter(rune(s[0]))
	if kind == rules.NoKind {
		return rules.Piece{}, false
	}
	color := rules.White
	if s[0] >= 'a' && s[0] <= 'z' {
		color = rules.Black
	}
	return rules.Piece{Kind: kind, Color: color}, true
}
