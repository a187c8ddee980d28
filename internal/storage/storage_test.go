package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "events.json")

	s, err := NewFileSlot(path)
	if err != nil {
		t.Fatalf("NewFileSlot() error = %v", err)
	}

	if _, err := s.Load(ctx); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Load() on missing file error = %v, want ErrEmpty", err)
	}

	if err := s.Save(ctx, []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, []byte(`[]`)); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("Load() = %q, want the last saved value", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file perms = %o, want 600", perm)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the slot file", len(entries))
	}
}

func TestFileSlotEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	s, _ := NewFileSlot(path)
	if _, err := s.Load(context.Background()); !errors.Is(err, ErrEmpty) {
		t.Errorf("Load() on empty file error = %v, want ErrEmpty", err)
	}
}

func TestMemorySlot(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySlot()
	if _, err := s.Load(ctx); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Load() error = %v, want ErrEmpty", err)
	}

	buf := []byte("abc")
	if err := s.Save(ctx, buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'x'

	got, _ := s.Load(ctx)
	if string(got) != "abc" {
		t.Errorf("Load() = %q, slot must not alias the caller's buffer", got)
	}
	if s.Saves() != 1 {
		t.Errorf("Saves() = %d, want 1", s.Saves())
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		opts    Options
		wantErr bool
	}{
		{Options{Driver: "file", Path: filepath.Join(t.TempDir(), "e.json")}, false},
		{Options{Path: filepath.Join(t.TempDir(), "e.json")}, false},
		{Options{Driver: "file"}, true},
		{Options{Driver: "memory"}, false},
		{Options{Driver: "redis", RedisAddr: "127.0.0.1:6379"}, false},
		{Options{Driver: "redis"}, true},
		{Options{Driver: "sqlite"}, true},
	}
	for _, tt := range tests {
		_, err := Open(tt.opts)
		if (err != nil) != tt.wantErr {
			t.Errorf("Open(%+v) error = %v, wantErr %v", tt.opts, err, tt.wantErr)
		}
	}
}
