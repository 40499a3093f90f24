package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/cheese-arbiter/internal/archive"
	"github.com/park285/cheese-arbiter/internal/store"
	"github.com/park285/cheese-arbiter/pkg/arbiterclient"
)

type fixture struct {
	client  *arbiterclient.Client
	archive *archive.Memory
	ln      *fasthttputil.InmemoryListener
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })

	games, err := store.NewManager(fmt.Sprintf("redis://%s/0", mr.Addr()), store.WithTTL(time.Hour))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = games.Close() })
	arch := archive.NewMemory()
	games.AttachArchive(arch)

	srv := New(games, WithArchive(arch), WithRecentLimit(5))
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	client := arbiterclient.NewClient("http://arbiter",
		arbiterclient.WithRetry(1),
		arbiterclient.WithDialer(func(string) (net.Conn, error) { return ln.Dial() }),
	)
	return &fixture{client: client, archive: arch, ln: ln}
}

// raw issues a request without the typed client.
func (f *fixture) raw(t *testing.T, method, path, body string) *fasthttp.Response {
	t.Helper()
	hc := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return f.ln.Dial() }}
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.Header.SetMethod(method)
	req.SetRequestURI("http://arbiter" + path)
	if body != "" {
		req.SetBodyString(body)
	}
	resp := &fasthttp.Response{}
	if err := hc.DoTimeout(req, resp, time.Second); err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestCreateAndPlay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.client.CreateGame(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if g.Turn != "white" || g.Status != "in_progress" || len(g.Rows) != 8 {
		t.Fatalf("unexpected new game: %+v", g)
	}
	if g.StatusMsg != "Game in progress. White to move." {
		t.Fatalf("status message = %q", g.StatusMsg)
	}

	res, err := f.client.Move(ctx, g.ID, "e2-e4")
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !res.OK || res.Message != "White played e2-e4." || res.Game.Turn != "black" {
		t.Fatalf("unexpected response: %+v", res)
	}

	if res, err = f.client.Move(ctx, g.ID, "e7-e5"); err != nil || !res.OK {
		t.Fatalf("e7-e5: %+v %v", res, err)
	}

	res, err = f.client.Move(ctx, g.ID, "e4-e5")
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if res.OK || res.Kind != "illegal_geometry" {
		t.Fatalf("expected illegal_geometry, got %+v", res)
	}
	if res.Message != "That piece cannot move from e4 to e5." {
		t.Fatalf("message = %q", res.Message)
	}
	if res.Game.Turn != "white" || len(res.Game.Log) != 2 {
		t.Fatalf("rejected move changed state: %+v", res.Game)
	}

	text, err := f.client.BoardText(ctx, g.ID)
	if err != nil {
		t.Fatalf("BoardText: %v", err)
	}
	if !strings.Contains(text, "4 __ __ __ __ Pw __ __ __") || !strings.Contains(text, "2. black pawn e7-e5") {
		t.Fatalf("board text:\n%s", text)
	}
}

func TestRejectionMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.client.CreateGame(ctx, "a", "b")
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	cases := []struct {
		move, kind, msg string
	}{
		{"zz", "parse_error", `Could not read "zz". Use coordinates such as e2-e4 or e7-e8=Q.`},
		{"O-O", "castling_unsupported", "Castling is not supported."},
		{"e3-e4", "no_piece_at_source", "There is no piece on e3."},
		{"e7-e5", "wrong_turn", "It is White to move."},
		{"a1-a2", "friendly_capture", "a2 is occupied by your own piece."},
	}
	for _, tc := range cases {
		res, err := f.client.Move(ctx, g.ID, tc.move)
		if err != nil {
			t.Fatalf("%s: %v", tc.move, err)
		}
		if res.OK || res.Kind != tc.kind || res.Message != tc.msg {
			t.Fatalf("%s: got kind=%q msg=%q", tc.move, res.Kind, res.Message)
		}
	}
}

func TestCheckReportsAttackers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.client.CreateGame(ctx, "a", "b")
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	for _, mv := range []string{"e2-e4", "f7-f6", "d1-h5"} {
		res, err := f.client.Move(ctx, g.ID, mv)
		if err != nil || !res.OK {
			t.Fatalf("%s: %+v %v", mv, res, err)
		}
	}
	view, err := f.client.Game(ctx, g.ID)
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if view.Status != "check" || view.StatusMsg != "Check! Black to move." {
		t.Fatalf("unexpected status: %q %q", view.Status, view.StatusMsg)
	}
	if len(view.CheckedBy) != 1 || view.CheckedBy[0] != "h5" {
		t.Fatalf("checked_by = %v", view.CheckedBy)
	}

	png, err := f.client.BoardPNG(ctx, g.ID)
	if err != nil {
		t.Fatalf("BoardPNG: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatal("board.png is not a PNG")
	}

	doc, err := f.client.PGN(ctx, g.ID)
	if err != nil {
		t.Fatalf("PGN: %v", err)
	}
	if !strings.Contains(doc, `[White "a"]`) || !strings.Contains(doc, "Qh5+") {
		t.Fatalf("pgn:\n%s", doc)
	}
}

func TestActiveGamesAndNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := f.client.CreateGame(ctx, "w", "b"); err != nil {
			t.Fatalf("CreateGame: %v", err)
		}
	}
	list, err := f.client.ActiveGames(ctx, 10)
	if err != nil || len(list) != 2 {
		t.Fatalf("ActiveGames: %d %v", len(list), err)
	}

	_, err = f.client.Game(ctx, "missing")
	if !arbiterclient.IsNotFound(err) {
		t.Fatalf("expected 404, got %v", err)
	}
	if _, err := f.client.Move(ctx, "missing", "e2-e4"); !arbiterclient.IsNotFound(err) {
		t.Fatalf("expected 404 on move, got %v", err)
	}
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t)

	if resp := f.raw(t, fasthttp.MethodPost, "/games", "{"); resp.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("bad json: %d", resp.StatusCode())
	}
	if resp := f.raw(t, fasthttp.MethodPost, "/games", `{"white":" ","black":"b"}`); resp.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("blank name: %d", resp.StatusCode())
	}
	if resp := f.raw(t, fasthttp.MethodDelete, "/games", ""); resp.StatusCode() != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("delete: %d", resp.StatusCode())
	}
	if resp := f.raw(t, fasthttp.MethodGet, "/games/x/moves", ""); resp.StatusCode() != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("get moves: %d", resp.StatusCode())
	}
	if resp := f.raw(t, fasthttp.MethodGet, "/nowhere", ""); resp.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("unknown route: %d", resp.StatusCode())
	}
	if resp := f.raw(t, fasthttp.MethodGet, "/healthz", ""); resp.StatusCode() != fasthttp.StatusOK || string(resp.Body()) != "ok" {
		t.Fatalf("healthz: %d %q", resp.StatusCode(), resp.Body())
	}
}

func TestArchiveEndpoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	end := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := f.archive.SaveResult(ctx, &archive.Result{
		GameID: "g1", White: "a", Black: "b", Winner: "white",
		MovesUCI: []string{"e2e4"}, PGN: "1. e4 1-0",
		StartedAt: end.Add(-time.Minute), EndedAt: end,
	}); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	list, err := f.client.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(list) != 1 || list[0].GameID != "g1" || list[0].Result != "white" {
		t.Fatalf("history = %+v", list)
	}
	if resp := f.raw(t, fasthttp.MethodGet, "/archive/g1", ""); resp.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("archive get: %d", resp.StatusCode())
	}
	if resp := f.raw(t, fasthttp.MethodGet, "/archive/none", ""); resp.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("archive missing: %d", resp.StatusCode())
	}
}

func TestKingCaptureIsArchived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rows := []string{
		"....k...",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....R...",
		"K.......",
	}
	g, err := f.client.CreateFromPosition(ctx, "alice", "bob", rows, "white")
	if err != nil {
		t.Fatalf("CreateFromPosition: %v", err)
	}
	if g.Status != "in_progress" || g.Turn != "white" || g.Rows[6] != "....R..." {
		t.Fatalf("unexpected start: %+v", g)
	}
	if g.FEN != "4k3/8/8/8/8/8/4R3/K7 w - - 0 1" {
		t.Fatalf("FEN = %q", g.FEN)
	}

	res, err := f.client.Move(ctx, g.ID, "e2xe8")
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !res.OK || res.Game.Status != "white_wins" || res.Message != "White played e2-e8 and captured a king." {
		t.Fatalf("unexpected response: %+v", res)
	}

	res, err = f.client.Move(ctx, g.ID, "a1-a2")
	if err != nil || res.OK || res.Kind != "game_over" {
		t.Fatalf("move after finish: %+v %v", res, err)
	}

	active, err := f.client.ActiveGames(ctx, 10)
	if err != nil || len(active) != 0 {
		t.Fatalf("finished game still active: %d %v", len(active), err)
	}

	arch, err := f.client.ArchivedGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("ArchivedGame: %v", err)
	}
	if arch.Result != "white" || arch.White != "alice" || len(arch.MovesUCI) != 1 || arch.MovesUCI[0] != "e2e8" {
		t.Fatalf("archived = %+v", arch)
	}
	if !strings.Contains(arch.PGN, `[FEN "4k3/8/8/8/8/8/4R3/K7 w - - 0 1"]`) || !strings.Contains(arch.PGN, "1-0") {
		t.Fatalf("archived pgn:\n%s", arch.PGN)
	}
}

func TestCreateFromBadPosition(t *testing.T) {
	f := newFixture(t)
	cases := []string{
		`{"white":"a","black":"b","rows":["........"]}`,
		`{"white":"a","black":"b","rows":["........","........","........","........","........","........","........","K......."]}`,
		`{"white":"a","black":"b","turn":"red","rows":["....k...","........","........","........","........","........","........","K......."]}`,
	}
	for _, body := range cases {
		resp := f.raw(t, fasthttp.MethodPost, "/games", body)
		if resp.StatusCode() != fasthttp.StatusBadRequest {
			t.Fatalf("%s: status %d", body, resp.StatusCode())
		}
	}
}
