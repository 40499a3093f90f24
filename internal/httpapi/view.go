package httpapi

import (
	"github.com/park285/cheese-arbiter/internal/archive"
	"github.com/park285/cheese-arbiter/internal/game"
	"github.com/park285/cheese-arbiter/internal/msgcat"
	"github.com/park285/cheese-arbiter/internal/notation"
	"github.com/park285/cheese-arbiter/internal/rules"
	"github.com/park285/cheese-arbiter/internal/store"
	"github.com/park285/cheese-arbiter/pkg/gamedto"
)

// msgVars carries every field the message templates may reference.
type msgVars struct {
	Input    string
	From     string
	To       string
	Turn     string
	Status   string
	Mover    string
	Move     string
	Captured string
}

func titleColor(c rules.Color) string {
	switch c {
	case rules.White:
		return "White"
	case rules.Black:
		return "Black"
	default:
		return ""
	}
}

func gameView(g *store.Game, sess *game.Session, cat *msgcat.Catalog) *gamedto.GameView {
	v := &gamedto.GameView{
		ID:        g.ID,
		White:     g.White,
		Black:     g.Black,
		FEN:       g.FEN,
		Rows:      g.Snapshot.Rows,
		Turn:      sess.Turn().String(),
		Status:    string(sess.Status()),
		Log:       make([]gamedto.MoveRecord, 0, len(g.Snapshot.Log)),
		Captured:  map[string][]string{},
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
	v.StatusMsg = cat.RenderOr("status."+string(sess.Status()), msgVars{Turn: titleColor(sess.Turn())}, v.Status)
	if sess.Status() == game.StatusCheck {
		for _, p := range rules.Attackers(sess.Turn(), sess.Board()) {
			v.CheckedBy = append(v.CheckedBy, p.Algebraic())
		}
	}
	for i, r := range sess.Log() {
		rec := gamedto.MoveRecord{
			Ply:   i + 1,
			Mover: r.Mover.String(),
			Piece: r.Piece.String(),
			From:  r.From.Algebraic(),
			To:    r.To.Algebraic(),
		}
		if r.Captured != nil {
			rec.Captured = r.Captured.Kind.String()
		}
		if r.Promotion != rules.NoKind {
			rec.Promotion = r.Promotion.String()
		}
		v.Log = append(v.Log, rec)
	}
	for _, c := range []rules.Color{rules.White, rules.Black} {
		for _, p := range sess.Captured(c) {
			v.Captured[c.String()] = append(v.Captured[c.String()], p.Kind.String())
		}
	}
	return v
}

// rejectionMessage renders the catalog text for a failed move.
func rejectionMessage(cat *msgcat.Catalog, res game.Result, raw string, sess *game.Session) string {
	vars := msgVars{Input: raw, Turn: titleColor(sess.Turn()), Status: string(sess.Status())}
	if parsed, err := notation.Parse(raw); err == nil && !parsed.IsCastling() {
		vars.From = parsed.Move.From.Algebraic()
		vars.To = parsed.Move.To.Algebraic()
	}
	return cat.RenderOr("errors."+string(res.Kind), vars, res.Message)
}

func acceptedMessage(cat *msgcat.Catalog, res game.Result) string {
	rec := res.Record
	vars := msgVars{Mover: titleColor(rec.Mover), Move: rec.Move().String()}
	if rec.Captured != nil {
		vars.Captured = rec.Captured.Kind.String()
		return cat.RenderOr("move.captured", vars, res.Message)
	}
	return cat.RenderOr("move.accepted", vars, res.Message)
}

func archivedView(r *archive.Result) gamedto.ArchivedGame {
	return gamedto.ArchivedGame{
		GameID:    r.GameID,
		White:     r.White,
		Black:     r.Black,
		Result:    r.Winner,
		MovesUCI:  r.MovesUCI,
		MovesSAN:  r.MovesSAN,
		PGN:       r.PGN,
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
	}
}
