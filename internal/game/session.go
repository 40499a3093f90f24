// Package game runs a single chess game: it validates each submitted move
// against the rules package, applies it and tracks turn, captures, the
// move log and the game status.
package game

import (
	"errors"
	"fmt"

	"github.com/park285/cheese-arbiter/internal/notation"
	"github.com/park285/cheese-arbiter/internal/rules"
)

// Session is not safe for concurrent use.
type Session struct {
	board    *rules.Board
	turn     rules.Color
	log      []MoveRecord
	captured map[rules.Color][]rules.Piece
	status   Status
}

// NewSession starts from the standard opening with White to move.
func NewSession() *Session {
	return NewSessionFromBoard(rules.StandardBoard(), rules.White)
}

// NewSessionFromBoard starts from an arbitrary setup. The board is copied.
// Status is derived immediately, so a setup with a missing king is already
// over.
func NewSessionFromBoard(board *rules.Board, turn rules.Color) *Session {
	if turn != rules.Black {
		turn = rules.White
	}
	s := &Session{
		board:    board.Clone(),
		turn:     turn,
		captured: map[rules.Color][]rules.Piece{},
	}
	s.status = evaluate(s.board, turn.Opposite())
	return s
}

func (s *Session) Board() *rules.Board { return s.board.Clone() }
func (s *Session) Turn() rules.Color   { return s.turn }
func (s *Session) Status() Status      { return s.status }

// Log returns a copy of the move history, oldest first.
func (s *Session) Log() []MoveRecord {
	out := make([]MoveRecord, len(s.log))
	copy(out, s.log)
	return out
}

// Captured returns the pieces taken by color.
func (s *Session) Captured(color rules.Color) []rules.Piece {
	src := s.captured[color]
	out := make([]rules.Piece, len(src))
	copy(out, src)
	return out
}

// LastMove returns the most recent record, if any.
func (s *Session) LastMove() (MoveRecord, bool) {
	if len(s.log) == 0 {
		return MoveRecord{}, false
	}
	return s.log[len(s.log)-1], true
}

// Play validates and applies raw. On failure the session is unchanged and
// the error is a *MoveError.
func (s *Session) Play(raw string) (MoveRecord, error) {
	if s.status.IsTerminal() {
		return MoveRecord{}, ErrGameOver
	}

	parsed, err := notation.Parse(raw)
	if err != nil {
		return MoveRecord{}, &MoveError{Kind: KindParseError, Message: err.Error()}
	}
	if parsed.IsCastling() {
		return MoveRecord{}, moveErr(KindCastlingUnsupported, "%s castling is not supported", parsed.Castling)
	}
	mv := parsed.Move

	piece, ok := s.board.PieceAt(mv.From)
	if !ok {
		return MoveRecord{}, moveErr(KindNoPieceAtSource, "no piece at %s", mv.From)
	}
	if piece.Color != s.turn {
		return MoveRecord{}, moveErr(KindWrongTurn, "it is %s's turn", s.turn)
	}
	if target, ok := s.board.PieceAt(mv.To); ok && target.Color == piece.Color {
		return MoveRecord{}, moveErr(KindFriendlyCapture, "cannot capture own %s at %s", target.Kind, mv.To)
	}
	if !rules.IsPseudoLegal(piece, mv.From, mv.To, s.board) {
		return MoveRecord{}, moveErr(KindIllegalGeometry, "%s cannot move %s-%s", piece.Kind, mv.From, mv.To)
	}
	if rules.WouldExposeOwnKing(piece, mv.From, mv.To, s.board) {
		return MoveRecord{}, ErrSelfCheck
	}

	next := s.board.Clone()
	rec := MoveRecord{Mover: s.turn, From: mv.From, To: mv.To, Piece: piece.Kind}
	if victim, ok := next.PieceAt(mv.To); ok {
		v := victim
		rec.Captured = &v
	}
	landed := piece
	if piece.Kind == rules.Pawn && mv.To.Row == rules.PromotionRow(piece.Color) {
		promo := mv.Promotion
		if !promo.IsPromotionTarget() {
			promo = rules.Queen
		}
		landed = rules.Piece{Kind: promo, Color: piece.Color}
		rec.Promotion = promo
	}
	next.SetPiece(mv.To, landed)
	next.Clear(mv.From)

	log := append(s.log[:len(s.log):len(s.log)], rec)
	status := evaluate(next, s.turn)
	// the capture list is the only write that can fail; it goes before
	// any other field changes
	if rec.Captured != nil {
		s.captured[s.turn] = append(s.captured[s.turn], *rec.Captured)
	}
	s.log = log
	s.status = status
	s.turn = s.turn.Opposite()
	s.board = next
	return rec, nil
}

// Result is the tagged outcome of Accept. OK selects which fields are set.
type Result struct {
	OK      bool
	Board   *rules.Board
	Status  Status
	Record  MoveRecord
	Kind    ErrorKind
	Message string
}

// Err returns the failure as a *MoveError, or nil on success.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &MoveError{Kind: r.Kind, Message: r.Message}
}

// Accept is Play for callers that want a value instead of an error. It
// never panics: a panic inside Play is reported as an internal error and
// the session is restored to its prior state.
func (s *Session) Accept(raw string) (res Result) {
	saved := s.clone()
	defer func() {
		if r := recover(); r != nil {
			*s = *saved
			res = Result{Kind: KindInternalError, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	rec, err := s.Play(raw)
	if err != nil {
		var me *MoveError
		if errors.As(err, &me) {
			return Result{Kind: me.Kind, Message: me.Error()}
		}
		return Result{Kind: KindInternalError, Message: err.Error()}
	}
	return Result{
		OK:      true,
		Board:   s.board.Clone(),
		Status:  s.status,
		Record:  rec,
		Message: acceptedMessage(s.status),
	}
}

func acceptedMessage(st Status) string {
	switch st {
	case StatusCheck:
		return "move accepted: check"
	case StatusWhiteWins, StatusBlackWins:
		return "move accepted: " + string(st)
	default:
		return "move accepted"
	}
}

func (s *Session) clone() *Session {
	c := &Session{
		board:    s.board.Clone(),
		turn:     s.turn,
		log:      append([]MoveRecord(nil), s.log...),
		captured: make(map[rules.Color][]rules.Piece, len(s.captured)),
		status:   s.status,
	}
	for k, v := range s.captured {
		c.captured[k] = append([]rules.Piece(nil), v...)
	}
	return c
}
