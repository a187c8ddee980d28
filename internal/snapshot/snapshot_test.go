package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"weekcal/internal/model"
	"weekcal/internal/storage"
	"weekcal/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(context.Background(), store.NewSlotRepository(storage.NewMemorySlot(), time.UTC))
}

func TestWriteIfChanged(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	path := filepath.Join(t.TempDir(), "calendar.ics")

	r, err := New(s, Options{Schedule: "0 * * * *", Path: path, Name: "Mine", Location: time.UTC})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r.Start()
	defer r.Stop()

	// Fresh runners always write once.
	wrote, err := r.WriteIfChanged(ctx)
	if err != nil || !wrote {
		t.Fatalf("first WriteIfChanged() = %v, %v; want true, nil", wrote, err)
	}
	if wrote, _ := r.WriteIfChanged(ctx); wrote {
		t.Error("second WriteIfChanged() wrote without changes")
	}

	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	if _, err := s.Create(ctx, model.Draft{Title: "Standup", Start: start, End: start.Add(30 * time.Minute)}); err != nil {
		t.Fatal(err)
	}

	wrote, err = r.WriteIfChanged(ctx)
	if err != nil || !wrote {
		t.Fatalf("WriteIfChanged() after create = %v, %v; want true, nil", wrote, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "SUMMARY:Standup") {
		t.Errorf("snapshot missing event:\n%s", data)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	s := newStore(t)
	if _, err := New(s, Options{Schedule: "0 * * * *"}); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := New(s, Options{Schedule: "every hour", Path: filepath.Join(t.TempDir(), "x.ics")}); err == nil {
		t.Error("expected error for bad schedule")
	}
}
