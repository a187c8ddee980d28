package storage

import (
	"context"
	"sync"
)

// MemorySlot is an in-process slot. Saves counts successful writes.
type MemorySlot struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

// NewMemorySlotWith returns a slot preloaded with data.
func NewMemorySlotWith(data []byte) *MemorySlot {
	return &MemorySlot{data: append([]byte(nil), data...)}
}

func (s *MemorySlot) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return nil, ErrEmpty
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemorySlot) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (s *MemorySlot) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
