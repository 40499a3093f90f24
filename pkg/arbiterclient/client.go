// Package arbiterclient talks to the arbiter HTTP API.
package arbiterclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/cheese-arbiter/pkg/gamedto"
)

// APIError is a non-2xx response. Body holds the decoded error payload
// when the server sent one.
type APIError struct {
	Status int
	Body   gamedto.Error
	Raw    string
}

func (e *APIError) Error() string {
	if e.Body.Code != "" {
		return fmt.Sprintf("arbiter api error: status=%d code=%s message=%s", e.Status, e.Body.Code, e.Body.Message)
	}
	return fmt.Sprintf("arbiter api error: status=%d body=%s", e.Status, e.Raw)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == fasthttp.StatusNotFound
}

type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDialer replaces the TCP dialer, e.g. with an in-memory listener.
func WithDialer(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) CreateGame(ctx context.Context, white, black string) (*gamedto.GameView, error) {
	var out gamedto.GameView
	req := gamedto.CreateGameRequest{White: white, Black: black}
	if _, err := c.doJSON(ctx, fasthttp.MethodPost, "/games", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateFromPosition starts a game from rows with turn to move.
func (c *Client) CreateFromPosition(ctx context.Context, white, black string, rows []string, turn string) (*gamedto.GameView, error) {
	var out gamedto.GameView
	req := gamedto.CreateGameRequest{White: white, Black: black, Rows: rows, Turn: turn}
	if _, err := c.doJSON(ctx, fasthttp.MethodPost, "/games", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ArchivedGame(ctx context.Context, id string) (*gamedto.ArchivedGame, error) {
	var out gamedto.ArchivedGame
	if _, err := c.doJSON(ctx, fasthttp.MethodGet, "/archive/"+id, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Game(ctx context.Context, id string) (*gamedto.GameView, error) {
	var out gamedto.GameView
	if _, err := c.doJSON(ctx, fasthttp.MethodGet, "/games/"+id, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ActiveGames(ctx context.Context, limit int) ([]gamedto.GameView, error) {
	var out []gamedto.GameView
	if _, err := c.doJSON(ctx, fasthttp.MethodGet, "/games?limit="+strconv.Itoa(limit), nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// Move submits one move. A rule rejection is not an error: it comes back
// with OK false and Kind set.
func (c *Client) Move(ctx context.Context, id, move string) (*gamedto.MoveResponse, error) {
	var out gamedto.MoveResponse
	_, err := c.doJSON(ctx, fasthttp.MethodPost, "/games/"+id+"/moves", gamedto.MoveRequest{Move: move}, &out, true)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BoardText(ctx context.Context, id string) (string, error) {
	body, err := c.doRaw(ctx, "/games/"+id+"/board.txt")
	return string(body), err
}

func (c *Client) BoardPNG(ctx context.Context, id string) ([]byte, error) {
	return c.doRaw(ctx, "/games/"+id+"/board.png")
}

func (c *Client) PGN(ctx context.Context, id string) (string, error) {
	body, err := c.doRaw(ctx, "/games/"+id+"/pgn")
	return string(body), err
}

func (c *Client) History(ctx context.Context, limit int) ([]gamedto.ArchivedGame, error) {
	var out gamedto.HistoryResponse
	if _, err := c.doJSON(ctx, fasthttp.MethodGet, "/archive?limit="+strconv.Itoa(limit), nil, &out, true); err != nil {
		return nil, err
	}
	return out.Games, nil
}

func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRaw(ctx, "/healthz")
	return err
}

func (c *Client) doRaw(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	_, err := c.do(ctx, fasthttp.MethodGet, path, nil, true, func(resp *fasthttp.Response) error {
		body = append([]byte(nil), resp.Body()...)
		return nil
	})
	return body, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) (int, error) {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
	}
	return c.do(ctx, method, path, payload, retry, func(resp *fasthttp.Response) error {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, retry bool, onOK func(*fasthttp.Response) error) (int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			if attempt == attempts {
				return 0, fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return 0, lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if accepted(status) {
			return status, onOK(resp)
		}
		apiErr := &APIError{Status: status, Raw: truncate(string(resp.Body()), 512)}
		_ = json.Unmarshal(resp.Body(), &apiErr.Body)
		if attempt == attempts || !shouldRetryStatus(status) {
			return status, apiErr
		}
		lastErr = apiErr
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return status, lastErr
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return 0, lastErr
}

// accepted covers 2xx plus 422, which carries a move rejection body.
func accepted(status int) bool {
	return (status >= 200 && status < 300) || status == fasthttp.StatusUnprocessableEntity
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

// shouldRetryStatus includes 409: a concurrent update left the game untouched.
func shouldRetryStatus(code int) bool {
	switch code {
	case 409, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
