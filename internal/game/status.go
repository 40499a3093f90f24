package game

import "github.com/park285/cheese-arbiter/internal/rules"

// Status represents a session lifecycle state.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCheck      Status = "check"
	StatusWhiteWins  Status = "white_wins"
	StatusBlackWins  Status = "black_wins"
)

// IsTerminal reports whether no further moves are accepted.
func (s Status) IsTerminal() bool {
	return s == StatusWhiteWins || s == StatusBlackWins
}

// Winner returns the winning side for terminal statuses.
func (s Status) Winner() (rules.Color, bool) {
	switch s {
	case StatusWhiteWins:
		return rules.White, true
	case StatusBlackWins:
		return rules.Black, true
	default:
		return 0, false
	}
}

func winsFor(c rules.Color) Status {
	if c == rules.White {
		return StatusWhiteWins
	}
	return StatusBlackWins
}

// evaluate derives the status after mover has just played. A missing king
// ends the game in favour of the other side; otherwise the side now to
// move is examined for check.
func evaluate(board *rules.Board, mover rules.Color) Status {
	opponent := mover.Opposite()
	if _, ok := rules.FindKing(opponent, board); !ok {
		return winsFor(mover)
	}
	if _, ok := rules.FindKing(mover, board); !ok {
		return winsFor(opponent)
	}
	if rules.IsInCheck(opponent, board) {
		return StatusCheck
	}
	return StatusInProgress
}
