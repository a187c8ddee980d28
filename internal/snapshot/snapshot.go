// Package snapshot periodically exports the event collection to an .ics
// file on a cron schedule, skipping runs when nothing changed.
package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"weekcal/internal/ics"
	appLog "weekcal/internal/log"
	"weekcal/internal/model"
	"weekcal/internal/storage"
	"weekcal/internal/store"
)

// Source is what the snapshot reads from and watches.
type Source interface {
	List() []model.Event
	Subscribe(fn func(store.Change)) (unsubscribe func())
}

// Options configures a Runner.
type Options struct {
	// Schedule is a standard 5-field cron expression.
	Schedule string
	// Path is the .ics file to write.
	Path string
	// Name is the calendar name written into the file.
	Name string
	// Location is the zone the schedule is evaluated in.
	Location *time.Location
}

// Runner owns the cron scheduler for snapshots.
type Runner struct {
	src  Source
	slot *storage.FileSlot
	name string
	cron *cron.Cron

	mu          sync.Mutex
	dirty       bool
	unsubscribe func()
	now         func() time.Time
}

// New validates opts and prepares a Runner. Call Start to schedule it.
func New(src Source, opts Options) (*Runner, error) {
	slot, err := storage.NewFileSlot(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	r := &Runner{
		src:   src,
		slot:  slot,
		name:  opts.Name,
		cron:  cron.New(cron.WithLocation(loc)),
		dirty: true,
		now:   time.Now,
	}
	if _, err := r.cron.AddFunc(opts.Schedule, r.tick); err != nil {
		return nil, fmt.Errorf("snapshot: schedule %q: %w", opts.Schedule, err)
	}
	return r, nil
}

// Start begins watching the store and runs the schedule in the background.
func (r *Runner) Start() {
	r.unsubscribe = r.src.Subscribe(func(store.Change) {
		r.mu.Lock()
		r.dirty = true
		r.mu.Unlock()
	})
	r.cron.Start()
	appLog.Info("snapshot scheduler started", "path", r.slot.Path(), "entries", len(r.cron.Entries()))
}

// Stop halts the scheduler and waits for a running snapshot to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

func (r *Runner) tick() {
	if _, err := r.WriteIfChanged(context.Background()); err != nil {
		appLog.Error("snapshot failed", err, "path", r.slot.Path())
	}
}

// WriteIfChanged writes a snapshot if the store changed since the last
// successful write. It reports whether a file was written.
func (r *Runner) WriteIfChanged(ctx context.Context) (bool, error) {
	r.mu.Lock()
	dirty := r.dirty
	r.dirty = false
	r.mu.Unlock()

	if !dirty {
		appLog.Debug("snapshot skipped; no changes")
		return false, nil
	}
	if err := r.Write(ctx); err != nil {
		r.mu.Lock()
		r.dirty = true
		r.mu.Unlock()
		return false, err
	}
	return true, nil
}

// Write exports the current collection unconditionally.
func (r *Runner) Write(ctx context.Context) error {
	events := r.src.List()
	body := ics.Export(r.name, events, r.now())
	if err := r.slot.Save(ctx, []byte(body)); err != nil {
		return err
	}
	appLog.Info("snapshot written", "path", r.slot.Path(), "event_count", len(events))
	return nil
}
