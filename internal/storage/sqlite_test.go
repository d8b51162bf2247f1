package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"bookclub_bot/internal/model"
)

var ignoreEntryID = cmpopts.IgnoreFields(model.ProgressEntry{}, "ID")

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetPut(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "json object", key: "current_book", value: `{"title":"Dune","progress":40}`},
		{name: "json array", key: "questions", value: `[{"id":"1","text":"Why?"}]`},
		{name: "empty list", key: "books", value: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Put(ctx, tt.key, []byte(tt.value)); err != nil {
				t.Fatalf("put: %v", err)
			}
			got, err := s.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if diff := cmp.Diff(tt.value, string(got)); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if err := s.Put(ctx, "current_book", []byte("first")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "current_book", []byte("second")); err != nil {
		t.Fatalf("put again: %v", err)
	}
	got, err := s.Get(ctx, "current_book")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff("second", string(got)); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestDB(t)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	for _, k := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, k, []byte(k)); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	if err := s.Delete(ctx, "a", "c", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx); err != nil {
		t.Fatalf("delete nothing: %v", err)
	}

	for _, k := range []string{"a", "c"} {
		if _, err := s.Get(ctx, k); !errors.Is(err, ErrNotFound) {
			t.Errorf("get %s: err = %v, want ErrNotFound", k, err)
		}
	}
	if _, err := s.Get(ctx, "b"); err != nil {
		t.Errorf("get b: %v", err)
	}
}

func TestProgressLog(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	base := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

	for i, p := range []int{10, 35, 60} {
		if _, err := s.RecordProgress(ctx, "Dune", p, base.Add(time.Duration(i)*24*time.Hour)); err != nil {
			t.Fatalf("record %d: %v", p, err)
		}
	}
	if _, err := s.RecordProgress(ctx, "Emma", 5, base); err != nil {
		t.Fatalf("record other title: %v", err)
	}

	got, err := s.ListProgress(ctx, "Dune", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []model.ProgressEntry{
		{Title: "Dune", Percent: 60, RecordedAt: base.Add(48 * time.Hour)},
		{Title: "Dune", Percent: 35, RecordedAt: base.Add(24 * time.Hour)},
	}
	if diff := cmp.Diff(want, got, ignoreEntryID); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	all, err := s.ListProgress(ctx, "Dune", 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("entries = %d, want 3", len(all))
	}
}

func TestRecordProgressRejectsOutOfRange(t *testing.T) {
	s := newTestDB(t)
	if _, err := s.RecordProgress(context.Background(), "Dune", 101, time.Now()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if err := s.Put(ctx, "books", []byte("[]")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.RecordProgress(ctx, "Dune", 20, time.Now()); err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if _, err := s.Get(ctx, "books"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after clear: err = %v, want ErrNotFound", err)
	}
	entries, err := s.ListProgress(ctx, "Dune", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %d after clear, want 0", len(entries))
	}
}
