package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
	"weekcal/internal/storage"
)

// Repository is the persistence collaborator of the Store.
//
// LoadEvents never fails the caller: absent or unreadable data yields an
// empty collection. The events it returns have unique ids.
type Repository interface {
	LoadEvents(ctx context.Context) []model.Event
	SaveEvents(ctx context.Context, events []model.Event) error
}

// SlotRepository stores the collection as a JSON array in a storage.Slot.
type SlotRepository struct {
	slot storage.Slot
	loc  *time.Location
}

// NewSlotRepository wraps slot. loc is used for zone-less timestamps and
// for the location of loaded times; nil means time.Local.
func NewSlotRepository(slot storage.Slot, loc *time.Location) *SlotRepository {
	if loc == nil {
		loc = time.Local
	}
	return &SlotRepository{slot: slot, loc: loc}
}

func (r *SlotRepository) LoadEvents(ctx context.Context) []model.Event {
	data, err := r.slot.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrEmpty) {
			appLog.Info("no persisted events; starting empty")
		} else {
			appLog.Warn("persisted events unreadable; starting empty", "err", err)
		}
		return []model.Event{}
	}

	events, err := DecodeEvents(data, r.loc)
	if err != nil {
		appLog.Warn("persisted events corrupt; starting empty", "err", err, "bytes", len(data))
		return []model.Event{}
	}

	appLog.Info("loaded persisted events", "count", len(events))
	return events
}

func (r *SlotRepository) SaveEvents(ctx context.Context, events []model.Event) error {
	data, err := EncodeEvents(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	if err := r.slot.Save(ctx, data); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	return nil
}
