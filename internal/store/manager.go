// Package store keeps live games in Redis. Every move runs under WATCH on
// the game key so two writers cannot both apply a move to the same state.
package store

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-arbiter/internal/archive"
	"github.com/park285/cheese-arbiter/internal/game"
	"github.com/park285/cheese-arbiter/internal/pgn"
	"github.com/park285/cheese-arbiter/internal/rules"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrConcurrentUpdate  = errors.New("game was updated concurrently")
	ErrNotInitialized    = errors.New("store manager not initialized")
	ErrInvalidPlayerName = errors.New("player names are required")
	ErrInvalidPosition   = errors.New("invalid start position")
)

const (
	keyPrefix   = "arbiter:game:"
	activeIndex = "arbiter:index:active"
)

type Manager struct {
	rdb     *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	archive archive.Repository
	now     func() time.Time

	// 테스트 훅: WATCH 안에서 쓰기 직전에 호출
	beforeCommit func(ctx context.Context, id string)
}

type Option func(*Manager)

func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager connects to redisURL (redis:// or rediss://) and pings it.
func NewManager(redisURL string, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for game store")
	}
	ropts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewManagerWithClient(rdb, opts...), nil
}

func NewManagerWithClient(rdb *redis.Client, opts ...Option) *Manager {
	m := &Manager{rdb: rdb, ttl: 24 * time.Hour, logger: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// AttachArchive wires a repository for finished games.
func (m *Manager) AttachArchive(r archive.Repository) {
	if m != nil {
		m.archive = r
	}
}

// Ping은 Redis 연결 확인.
func (m *Manager) Ping(ctx context.Context) error {
	if m == nil || m.rdb == nil {
		return ErrNotInitialized
	}
	return m.rdb.Ping(ctx).Err()
}

// Create stores a new game from the standard opening.
func (m *Manager) Create(ctx context.Context, white, black string) (*Game, error) {
	return m.create(ctx, white, black, game.NewSession(), "")
}

// CreateFromPosition stores a new game that starts from rows (EncodeRows
// form) with turn to move; an empty turn means white. Both kings must be
// on the board.
func (m *Manager) CreateFromPosition(ctx context.Context, white, black string, rows []string, turn string) (*Game, error) {
	board, err := game.DecodeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	side := rules.White
	if strings.TrimSpace(turn) != "" {
		c, ok := rules.ParseColor(turn)
		if !ok {
			return nil, fmt.Errorf("%w: turn %q", ErrInvalidPosition, turn)
		}
		side = c
	}
	for _, c := range []rules.Color{rules.White, rules.Black} {
		if _, ok := rules.FindKing(c, board); !ok {
			return nil, fmt.Errorf("%w: %s king missing", ErrInvalidPosition, c)
		}
	}
	return m.create(ctx, white, black, game.NewSessionFromBoard(board, side), pgn.FEN(board, side, 0))
}

// create는 세션을 저장하고 활성 인덱스에 등록. startFEN은 표준 시작이면 빈 값.
func (m *Manager) create(ctx context.Context, white, black string, sess *game.Session, startFEN string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	white, black = strings.TrimSpace(white), strings.TrimSpace(black)
	if white == "" || black == "" {
		return nil, ErrInvalidPlayerName
	}
	now := m.now()
	g := &Game{
		ID:        uuid.NewString(),
		White:     white,
		Black:     black,
		Snapshot:  sess.Snapshot(),
		StartFEN:  startFEN,
		FEN:       pgn.FEN(sess.Board(), sess.Turn(), 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	pipe := m.rdb.TxPipeline()
	pipe.Set(ctx, gameKey(g.ID), raw, m.ttl)
	pipe.ZAdd(ctx, activeIndex, redis.Z{Score: float64(now.UnixMilli()), Member: g.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	m.logger.Info("game_create",
		zap.String("game_id", g.ID),
		zap.String("white", g.White),
		zap.String("black", g.Black),
		zap.Bool("custom_start", startFEN != ""),
	)
	return g, nil
}

// Load returns the game or nil, nil when it does not exist or expired.
func (m *Manager) Load(ctx context.Context, id string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	raw, err := m.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &g, nil
}

// Active lists unfinished games, most recently updated first. Expired
// entries are pruned from the index as they are found.
func (m *Manager) Active(ctx context.Context, limit int) ([]*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 {
		limit = 20
	}
	ids, err := m.rdb.ZRevRange(ctx, activeIndex, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	var out []*Game
	for _, id := range ids {
		g, err := m.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if g == nil || g.Finished() {
			_ = m.rdb.ZRem(ctx, activeIndex, id).Err()
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

// Play applies raw to the stored game. Rule violations come back in the
// Result with a nil error and leave Redis untouched. The returned Game is
// the state after the attempt.
func (m *Manager) Play(ctx context.Context, id, raw string) (*Game, game.Result, error) {
	if m == nil || m.rdb == nil {
		return nil, game.Result{}, ErrNotInitialized
	}
	key := gameKey(id)
	var (
		out *Game
		res game.Result
	)

	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrGameNotFound
		}
		if err != nil {
			return err
		}
		var cur Game
		if err := json.Unmarshal(data, &cur); err != nil {
			return fmt.Errorf("decode game %s: %w", id, err)
		}
		sess, err := cur.Session()
		if err != nil {
			return err
		}

		res = sess.Accept(raw)
		if !res.OK {
			out = &cur
			return nil
		}

		cur.Snapshot = sess.Snapshot()
		cur.FEN = pgn.FEN(sess.Board(), sess.Turn(), len(cur.Snapshot.Log))
		cur.UpdatedAt = m.now()
		next, err := json.Marshal(&cur)
		if err != nil {
			return err
		}
		if m.beforeCommit != nil {
			m.beforeCommit(ctx, id)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, m.ttl)
			if cur.Finished() {
				pipe.ZRem(ctx, activeIndex, cur.ID)
			} else {
				pipe.ZAdd(ctx, activeIndex, redis.Z{Score: float64(cur.UpdatedAt.UnixMilli()), Member: cur.ID})
			}
			return nil
		})
		if err != nil {
			return err
		}
		out = &cur
		return nil
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			m.logger.Warn("game_move_conflict", zap.String("game_id", id), zap.String("move", raw))
			return nil, game.Result{}, ErrConcurrentUpdate
		}
		return nil, game.Result{}, err
	}

	if !res.OK {
		m.logger.Info("game_move_rejected",
			zap.String("game_id", id),
			zap.String("move", raw),
			zap.String("kind", string(res.Kind)),
		)
		return out, res, nil
	}
	m.logger.Info("game_move",
		zap.String("game_id", id),
		zap.String("move", res.Record.UCI()),
		zap.String("status", string(res.Status)),
	)
	if out.Finished() {
		_ = m.persistFinal(ctx, out)
	}
	return out, res, nil
}

// persistFinal은 종료된 게임을 아카이브에 저장 (연결된 경우만).
func (m *Manager) persistFinal(ctx context.Context, g *Game) error {
	if m.archive == nil || g == nil || !g.Finished() {
		return nil
	}
	r, err := ArchiveResult(g)
	if err != nil {
		return err
	}
	if err := m.archive.SaveResult(ctx, r); err != nil {
		m.logger.Error("archive_persist_error", zap.String("game_id", g.ID), zap.Error(err))
		return err
	}
	m.logger.Info("archive_persist", zap.String("game_id", g.ID), zap.String("winner", r.Winner))
	return nil
}

// ArchiveResult converts a finished game into an archive row.
func ArchiveResult(g *Game) (*archive.Result, error) {
	sess, err := g.Session()
	if err != nil {
		return nil, err
	}
	winner, ok := sess.Status().Winner()
	if !ok {
		return nil, archive.ErrInvalidResult
	}
	log := sess.Log()
	doc := pgn.Export(pgn.Meta{
		White:    g.White,
		Black:    g.Black,
		Date:     g.UpdatedAt,
		Status:   sess.Status(),
		StartFEN: g.StartFEN,
	}, log)

	uci := make([]string, 0, len(log))
	for _, r := range log {
		uci = append(uci, r.UCI())
	}
	return &archive.Result{
		GameID:    g.ID,
		White:     g.White,
		Black:     g.Black,
		Winner:    winner.String(),
		MovesUCI:  uci,
		MovesSAN:  doc.SAN,
		PGN:       doc.PGN,
		StartedAt: g.CreatedAt,
		EndedAt:   g.UpdatedAt,
	}, nil
}

// Put writes g as is and keeps the active index in step with its status.
func (m *Manager) Put(ctx context.Context, g *Game) error {
	if m == nil || m.rdb == nil {
		return ErrNotInitialized
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	pipe := m.rdb.TxPipeline()
	pipe.Set(ctx, gameKey(g.ID), raw, m.ttl)
	if g.Finished() {
		pipe.ZRem(ctx, activeIndex, g.ID)
	} else {
		pipe.ZAdd(ctx, activeIndex, redis.Z{Score: float64(g.UpdatedAt.UnixMilli()), Member: g.ID})
	}
	_, err = pipe.Exec(ctx)
	return err
}

func gameKey(id string) string { return keyPrefix + strings.TrimSpace(id) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{Addr: u.Host, Username: u.User.Username(), Password: pass, DB: db}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
