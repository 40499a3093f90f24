package gamedto

import "time"

type MoveRecord struct {
	Ply       int    `json:"ply"`
	Mover     string `json:"mover"`
	Piece     string `json:"piece"`
	From      string `json:"from"`
	To        string `json:"to"`
	Captured  string `json:"captured,omitempty"`
	Promotion string `json:"promotion,omitempty"`
}

// GameView is the public state of a game.
type GameView struct {
	ID        string              `json:"id"`
	White     string              `json:"white"`
	Black     string              `json:"black"`
	FEN       string              `json:"fen"`
	Rows      []string            `json:"rows"`
	Turn      string              `json:"turn"`
	Status    string              `json:"status"`
	StatusMsg string              `json:"status_message,omitempty"`
	CheckedBy []string            `json:"checked_by,omitempty"`
	Log       []MoveRecord        `json:"log"`
	Captured  map[string][]string `json:"captured,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// CreateGameRequest starts from the standard opening unless Rows is set.
// Rows hold eight 8-character ranks, rank 8 first: upper case for White,
// lower case for Black, '.' for empty. Turn defaults to white.
type CreateGameRequest struct {
	White string   `json:"white"`
	Black string   `json:"black"`
	Rows  []string `json:"rows,omitempty"`
	Turn  string   `json:"turn,omitempty"`
}

type MoveRequest struct {
	Move string `json:"move"`
}

// MoveResponse reports one move attempt. Kind is set only when OK is false.
type MoveResponse struct {
	OK      bool      `json:"ok"`
	Kind    string    `json:"kind,omitempty"`
	Message string    `json:"message"`
	Game    *GameView `json:"game,omitempty"`
}

// ArchivedGame is a finished game from the archive.
type ArchivedGame struct {
	GameID    string    `json:"game_id"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Result    string    `json:"result"`
	MovesUCI  []string  `json:"moves_uci"`
	MovesSAN  []string  `json:"moves_san,omitempty"`
	PGN       string    `json:"pgn"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

type HistoryResponse struct {
	Games []ArchivedGame `json:"games"`
}
