// Package httpapi exposes the game store over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/cheese-arbiter/internal/archive"
	"github.com/park285/cheese-arbiter/internal/game"
	"github.com/park285/cheese-arbiter/internal/msgcat"
	"github.com/park285/cheese-arbiter/internal/pgn"
	"github.com/park285/cheese-arbiter/internal/render"
	"github.com/park285/cheese-arbiter/internal/rules"
	"github.com/park285/cheese-arbiter/internal/store"
	"github.com/park285/cheese-arbiter/pkg/gamedto"
)

const requestTimeout = 10 * time.Second

type Server struct {
	games    *store.Manager
	archive  archive.Repository
	catalog  *msgcat.Catalog
	renderer render.BoardRenderer
	logger   *zap.Logger

	recentLimit int
	srv         *fasthttp.Server
}

type Option func(*Server)

func WithArchive(r archive.Repository) Option { return func(s *Server) { s.archive = r } }
func WithCatalog(c *msgcat.Catalog) Option    { return func(s *Server) { s.catalog = c } }
func WithRenderer(r render.BoardRenderer) Option {
	return func(s *Server) { s.renderer = r }
}
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
func WithRecentLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

func New(games *store.Manager, opts ...Option) *Server {
	s := &Server{
		games:       games,
		renderer:    render.NewPNGRenderer(64),
		logger:      zap.NewNop(),
		recentLimit: 20,
	}
	for _, o := range opts {
		o(s)
	}
	if s.catalog == nil {
		s.catalog = msgcat.MustDefault()
	}
	s.srv = &fasthttp.Server{
		Handler:      s.Handler(),
		Name:         "cheese-arbiter",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error { return s.srv.ListenAndServe(addr) }
func (s *Server) Serve(ln net.Listener) error       { return s.srv.Serve(ln) }

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.ShutdownWithContext(ctx) }

// Handler routes requests. Paths:
//
//	GET  /healthz
//	GET  /games
//	POST /games              (optional rows/turn for a custom start)
//	GET  /games/{id}
//	POST /games/{id}/moves
//	GET  /games/{id}/board.txt
//	GET  /games/{id}/board.png
//	GET  /games/{id}/pgn
//	GET  /archive
//	GET  /archive/{id}
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(rc *fasthttp.RequestCtx) {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		s.route(ctx, rc)

		s.logger.Debug("http_request",
			zap.ByteString("method", rc.Method()),
			zap.ByteString("path", rc.Path()),
			zap.Int("status", rc.Response.StatusCode()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) route(ctx context.Context, rc *fasthttp.RequestCtx) {
	parts := strings.Split(strings.Trim(string(rc.Path()), "/"), "/")
	method := string(rc.Method())

	switch {
	case len(parts) == 1 && parts[0] == "healthz":
		s.health(ctx, rc)
	case parts[0] == "games" && len(parts) == 1:
		switch method {
		case fasthttp.MethodGet:
			s.listGames(ctx, rc)
		case fasthttp.MethodPost:
			s.createGame(ctx, rc)
		default:
			methodNotAllowed(rc)
		}
	case parts[0] == "games" && len(parts) == 2:
		onlyGet(rc, func() { s.getGame(ctx, rc, parts[1]) })
	case parts[0] == "games" && len(parts) == 3:
		id := parts[1]
		switch parts[2] {
		case "moves":
			if method != fasthttp.MethodPost {
				methodNotAllowed(rc)
				return
			}
			s.playMove(ctx, rc, id)
		case "board.txt":
			onlyGet(rc, func() { s.boardText(ctx, rc, id) })
		case "board.png":
			onlyGet(rc, func() { s.boardPNG(ctx, rc, id) })
		case "pgn":
			onlyGet(rc, func() { s.exportPGN(ctx, rc, id) })
		default:
			notFound(rc, "unknown route")
		}
	case parts[0] == "archive" && len(parts) == 1:
		onlyGet(rc, func() { s.history(ctx, rc) })
	case parts[0] == "archive" && len(parts) == 2:
		onlyGet(rc, func() { s.archived(ctx, rc, parts[1]) })
	default:
		notFound(rc, "unknown route")
	}
}

func (s *Server) health(ctx context.Context, rc *fasthttp.RequestCtx) {
	if err := s.games.Ping(ctx); err != nil {
		writeError(rc, fasthttp.StatusServiceUnavailable, gamedto.Error{Code: gamedto.CodeInternal, Message: "store unavailable", Retryable: true})
		return
	}
	rc.SetContentType("text/plain; charset=utf-8")
	rc.SetBodyString("ok")
}

func (s *Server) listGames(ctx context.Context, rc *fasthttp.RequestCtx) {
	limit := queryInt(rc, "limit", s.recentLimit)
	games, err := s.games.Active(ctx, limit)
	if err != nil {
		s.internal(rc, "list games", err)
		return
	}
	out := make([]*gamedto.GameView, 0, len(games))
	for _, g := range games {
		sess, err := g.Session()
		if err != nil {
			continue
		}
		out = append(out, gameView(g, sess, s.catalog))
	}
	writeJSON(rc, fasthttp.StatusOK, out)
}

func (s *Server) createGame(ctx context.Context, rc *fasthttp.RequestCtx) {
	var req gamedto.CreateGameRequest
	if err := json.Unmarshal(rc.PostBody(), &req); err != nil {
		writeError(rc, fasthttp.StatusBadRequest, gamedto.Error{Code: gamedto.CodeBadRequest, Message: "invalid JSON body"})
		return
	}
	var (
		g   *store.Game
		err error
	)
	if len(req.Rows) > 0 {
		g, err = s.games.CreateFromPosition(ctx, req.White, req.Black, req.Rows, req.Turn)
	} else {
		g, err = s.games.Create(ctx, req.White, req.Black)
	}
	if errors.Is(err, store.ErrInvalidPlayerName) || errors.Is(err, store.ErrInvalidPosition) {
		writeError(rc, fasthttp.StatusBadRequest, gamedto.Error{Code: gamedto.CodeBadRequest, Message: err.Error()})
		return
	}
	if err != nil {
		s.internal(rc, "create game", err)
		return
	}
	sess, err := g.Session()
	if err != nil {
		s.internal(rc, "restore game", err)
		return
	}
	writeJSON(rc, fasthttp.StatusCreated, gameView(g, sess, s.catalog))
}

// load writes the error response itself and returns ok=false on failure.
func (s *Server) load(ctx context.Context, rc *fasthttp.RequestCtx, id string) (*store.Game, *game.Session, bool) {
	g, err := s.games.Load(ctx, id)
	if err != nil {
		s.internal(rc, "load game", err)
		return nil, nil, false
	}
	if g == nil {
		notFound(rc, "game not found")
		return nil, nil, false
	}
	sess, err := g.Session()
	if err != nil {
		s.internal(rc, "restore game", err)
		return nil, nil, false
	}
	return g, sess, true
}

func (s *Server) getGame(ctx context.Context, rc *fasthttp.RequestCtx, id string) {
	g, sess, ok := s.load(ctx, rc, id)
	if !ok {
		return
	}
	writeJSON(rc, fasthttp.StatusOK, gameView(g, sess, s.catalog))
}

func (s *Server) playMove(ctx context.Context, rc *fasthttp.RequestCtx, id string) {
	var req gamedto.MoveRequest
	if err := json.Unmarshal(rc.PostBody(), &req); err != nil {
		writeError(rc, fasthttp.StatusBadRequest, gamedto.Error{Code: gamedto.CodeBadRequest, Message: "invalid JSON body"})
		return
	}
	g, res, err := s.games.Play(ctx, id, req.Move)
	switch {
	case errors.Is(err, store.ErrGameNotFound):
		notFound(rc, "game not found")
		return
	case errors.Is(err, store.ErrConcurrentUpdate):
		writeError(rc, fasthttp.StatusConflict, gamedto.Error{Code: gamedto.CodeConcurrentUpdate, Message: err.Error(), Retryable: true})
		return
	case err != nil:
		s.internal(rc, "play move", err)
		return
	}
	sess, err := g.Session()
	if err != nil {
		s.internal(rc, "restore game", err)
		return
	}

	resp := gamedto.MoveResponse{OK: res.OK, Game: gameView(g, sess, s.catalog)}
	status := fasthttp.StatusOK
	if res.OK {
		resp.Message = acceptedMessage(s.catalog, res)
	} else {
		resp.Kind = string(res.Kind)
		resp.Message = rejectionMessage(s.catalog, res, req.Move, sess)
		status = fasthttp.StatusUnprocessableEntity
		if res.Kind == game.KindInternalError {
			status = fasthttp.StatusInternalServerError
		}
	}
	writeJSON(rc, status, resp)
}

func (s *Server) boardText(ctx context.Context, rc *fasthttp.RequestCtx, id string) {
	_, sess, ok := s.load(ctx, rc, id)
	if !ok {
		return
	}
	rc.SetContentType("text/plain; charset=utf-8")
	rc.SetBodyString(render.Text(sess.Board()) + "\n" + render.MoveList(sess.Log()))
}

func (s *Server) boardPNG(ctx context.Context, rc *fasthttp.RequestCtx, id string) {
	g, sess, ok := s.load(ctx, rc, id)
	if !ok {
		return
	}
	opts := render.Options{
		Header:  g.White + " vs " + g.Black,
		Caption: s.catalog.RenderOr("status."+string(sess.Status()), msgVars{Turn: titleColor(sess.Turn())}, string(sess.Status())),
	}
	if last, ok := sess.LastMove(); ok {
		opts.Highlight = &render.Highlight{From: last.From, To: last.To}
	}
	if sess.Status() == game.StatusCheck {
		if king, ok := rules.FindKing(sess.Turn(), sess.Board()); ok {
			opts.Checked = &king
		}
	}
	data, err := s.renderer.RenderPNG(ctx, sess.Board(), opts)
	if err != nil {
		s.internal(rc, "render png", err)
		return
	}
	rc.SetContentType("image/png")
	rc.SetBody(data)
}

func (s *Server) exportPGN(ctx context.Context, rc *fasthttp.RequestCtx, id string) {
	g, sess, ok := s.load(ctx, rc, id)
	if !ok {
		return
	}
	doc := pgn.Export(pgn.Meta{
		White:    g.White,
		Black:    g.Black,
		Date:     g.CreatedAt,
		Status:   sess.Status(),
		StartFEN: g.StartFEN,
	}, sess.Log())
	rc.SetContentType("application/x-chess-pgn")
	rc.SetBodyString(doc.PGN)
}

func (s *Server) history(ctx context.Context, rc *fasthttp.RequestCtx) {
	if s.archive == nil {
		writeJSON(rc, fasthttp.StatusOK, gamedto.HistoryResponse{Games: []gamedto.ArchivedGame{}})
		return
	}
	list, err := s.archive.Recent(ctx, queryInt(rc, "limit", s.recentLimit))
	if err != nil {
		s.internal(rc, "archive recent", err)
		return
	}
	out := gamedto.HistoryResponse{Games: make([]gamedto.ArchivedGame, 0, len(list))}
	for _, r := range list {
		out.Games = append(out.Games, archivedView(r))
	}
	writeJSON(rc, fasthttp.StatusOK, out)
}

func (s *Server) archived(ctx context.Context, rc *fasthttp.RequestCtx, id string) {
	if s.archive == nil {
		notFound(rc, "archive disabled")
		return
	}
	r, err := s.archive.Get(ctx, id)
	if err != nil {
		s.internal(rc, "archive get", err)
		return
	}
	if r == nil {
		notFound(rc, "game not archived")
		return
	}
	writeJSON(rc, fasthttp.StatusOK, archivedView(r))
}

func (s *Server) internal(rc *fasthttp.RequestCtx, op string, err error) {
	s.logger.Error("http_internal_error", zap.String("op", op), zap.Error(err))
	writeError(rc, fasthttp.StatusInternalServerError, gamedto.Error{Code: gamedto.CodeInternal, Message: "internal error"})
}

func onlyGet(rc *fasthttp.RequestCtx, fn func()) {
	if !rc.IsGet() {
		methodNotAllowed(rc)
		return
	}
	fn()
}

func methodNotAllowed(rc *fasthttp.RequestCtx) {
	writeError(rc, fasthttp.StatusMethodNotAllowed, gamedto.Error{Code: gamedto.CodeMethodNotAllowed, Message: "method not allowed"})
}

func notFound(rc *fasthttp.RequestCtx, msg string) {
	writeError(rc, fasthttp.StatusNotFound, gamedto.Error{Code: gamedto.CodeNotFound, Message: msg})
}

func writeError(rc *fasthttp.RequestCtx, status int, e gamedto.Error) {
	writeJSON(rc, status, e)
}

func writeJSON(rc *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		rc.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	rc.SetStatusCode(status)
	rc.SetContentType("application/json")
	rc.SetBody(body)
}

func queryInt(rc *fasthttp.RequestCtx, key string, def int) int {
	v := string(rc.QueryArgs().Peek(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
