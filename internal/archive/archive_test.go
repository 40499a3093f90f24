package archive

import (
	"context"
	"errors"
	"testing"
	"time"
)

func result(id string, ended time.Time) *Result {
	return &Result{
		GameID:    id,
		White:     "alice",
		Black:     "bob",
		Winner:    "white",
		MovesUCI:  []string{"e2e4"},
		StartedAt: ended.Add(-time.Minute),
		EndedAt:   ended,
	}
}

func TestMemorySaveGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	r := result("g1", time.Now())
	if err := m.SaveResult(ctx, r); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	r.MovesUCI[0] = "mutated"

	got, err := m.Get(ctx, "g1")
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	if got.MovesUCI[0] != "e2e4" {
		t.Fatalf("stored result aliased caller slice")
	}
	if got.Duration() != time.Minute {
		t.Fatalf("duration = %v", got.Duration())
	}

	missing, err := m.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing game: %v %v", missing, err)
	}
}

func TestMemoryUpsertAndRecent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := m.SaveResult(ctx, result(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveResult: %v", err)
		}
	}
	upd := result("a", base.Add(5*time.Hour))
	upd.Winner = "black"
	if err := m.SaveResult(ctx, upd); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	list, err := m.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(list) != 2 || list[0].GameID != "a" || list[1].GameID != "c" {
		t.Fatalf("recent order = %v, %v", list[0].GameID, list[1].GameID)
	}
	if list[0].Winner != "black" {
		t.Fatalf("upsert not applied")
	}
}

func TestValidate(t *testing.T) {
	m := NewMemory()
	if err := m.SaveResult(context.Background(), &Result{GameID: "x", Winner: "draw"}); !errors.Is(err, ErrInvalidResult) {
		t.Fatalf("err = %v", err)
	}
	if err := m.SaveResult(context.Background(), nil); !errors.Is(err, ErrInvalidResult) {
		t.Fatalf("nil result err = %v", err)
	}
}

func TestNewPostgresRequiresURL(t *testing.T) {
	if _, err := NewPostgres("  "); err == nil {
		t.Fatalf("expected error for empty DATABASE_URL")
	}
}

func TestEncodeMoves(t *testing.T) {
	got, err := encodeMoves(nil)
	if err != nil || got != "[]" {
		t.Fatalf("encodeMoves(nil) = %q, %v", got, err)
	}
	got, err = encodeMoves([]string{"e2e4", "e7e5"})
	if err != nil || got != `["e2e4","e7e5"]` {
		t.Fatalf("encodeMoves = %q, %v", got, err)
	}
}

var (
	_ Repository = (*Memory)(nil)
	_ Repository = (*Postgres)(nil)
)
