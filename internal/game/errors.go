package game

import "fmt"

// ErrorKind classifies a rejected move.
type ErrorKind string

const (
	KindGameOver            ErrorKind = "game_over"
	KindParseError          ErrorKind = "parse_error"
	KindCastlingUnsupported ErrorKind = "castling_unsupported"
	KindNoPieceAtSource     ErrorKind = "no_piece_at_source"
	KindWrongTurn           ErrorKind = "wrong_turn"
	KindFriendlyCapture     ErrorKind = "friendly_capture"
	KindIllegalGeometry     ErrorKind = "illegal_geometry"
	KindSelfCheck           ErrorKind = "self_check"
	KindInternalError       ErrorKind = "internal_error"
)

// MoveError is the failure returned by Session.Play. Two MoveErrors match
// under errors.Is when their kinds agree, so callers can compare against
// the Err* sentinels regardless of message.
type MoveError struct {
	Kind    ErrorKind
	Message string
}

func (e *MoveError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *MoveError) Is(target error) bool {
	t, ok := target.(*MoveError)
	return ok && t.Kind == e.Kind
}

var (
	ErrGameOver            = &MoveError{Kind: KindGameOver, Message: "game is already over"}
	ErrParse               = &MoveError{Kind: KindParseError, Message: "invalid notation"}
	ErrCastlingUnsupported = &MoveError{Kind: KindCastlingUnsupported, Message: "castling is not supported"}
	ErrNoPieceAtSource     = &MoveError{Kind: KindNoPieceAtSource, Message: "no piece at source square"}
	ErrWrongTurn           = &MoveError{Kind: KindWrongTurn, Message: "not your turn"}
	ErrFriendlyCapture     = &MoveError{Kind: KindFriendlyCapture, Message: "cannot capture own piece"}
	ErrIllegalGeometry     = &MoveError{Kind: KindIllegalGeometry, Message: "illegal move for this piece"}
	ErrSelfCheck           = &MoveError{Kind: KindSelfCheck, Message: "move would leave king in check"}
	ErrInternal            = &MoveError{Kind: KindInternalError, Message: "internal error"}
)

func moveErr(kind ErrorKind, format string, args ...any) *MoveError {
	return &MoveError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
