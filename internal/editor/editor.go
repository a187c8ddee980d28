// Package editor is the create-versus-edit state machine behind the event
// dialog. It decides what the form is prefilled with and whether a submit
// becomes a create or an update on the store.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

var (
	ErrAlreadyOpen       = errors.New("editor: already open")
	ErrNotOpen           = errors.New("editor: not open")
	ErrDeleteUnavailable = errors.New("editor: delete is only available when editing")
	ErrEventGone         = errors.New("editor: event no longer exists")
)

// DefaultSlot is the length of the slot offered when creating.
const DefaultSlot = time.Hour

// EventStore is the part of the store the editor drives.
type EventStore interface {
	Create(ctx context.Context, d model.Draft) (model.Event, error)
	Update(ctx context.Context, e model.Event) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Mode is the editor state.
type Mode int

const (
	Closed Mode = iota
	Creating
	Editing
)

func (m Mode) String() string {
	switch m {
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	default:
		return "closed"
	}
}

// State is a snapshot of the editor. Day is set while Creating, Event
// while Editing.
type State struct {
	Mode  Mode
	Day   time.Time
	Event model.Event
	Form  Form
}

// Editor is safe for concurrent use.
type Editor struct {
	store EventStore
	loc   *time.Location

	mu    sync.Mutex
	state State
}

// New returns a closed editor. loc interprets zone-less form timestamps;
// nil means time.Local.
func New(store EventStore, loc *time.Location) *Editor {
	if loc == nil {
		loc = time.Local
	}
	return &Editor{store: store, loc: loc}
}

// State returns the current snapshot.
func (ed *Editor) State() State {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.state
}

// OpenDay starts creating an event on day. The form offers a one-hour
// slot starting at day's own wall-clock time (midnight for grid days).
func (ed *Editor) OpenDay(day time.Time) (Form, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.state.Mode != Closed {
		return Form{}, ErrAlreadyOpen
	}

	start := day.In(ed.loc)
	f := Form{
		Start: prefill(start),
		End:   prefill(start.Add(DefaultSlot)),
	}
	ed.state = State{Mode: Creating, Day: start, Form: f}
	return f, nil
}

// OpenEvent starts editing e with its current values.
func (ed *Editor) OpenEvent(e model.Event) (Form, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.state.Mode != Closed {
		return Form{}, ErrAlreadyOpen
	}

	f := Form{
		Title:       e.Title,
		Start:       prefill(e.Start.In(ed.loc)),
		End:         prefill(e.End.In(ed.loc)),
		Description: e.Description,
	}
	ed.state = State{Mode: Editing, Event: e, Form: f}
	return f, nil
}

// Submit validates f and turns it into a create (Creating) or a full
// replace of the edited event (Editing), then closes.
//
// Invalid input returns a *FormError and the editor stays open. Store
// errors are returned after closing, since the in-memory change happened.
func (ed *Editor) Submit(ctx context.Context, f Form) (model.Event, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()

	if ed.state.Mode == Closed {
		return model.Event{}, ErrNotOpen
	}

	p, err := parse(f, ed.loc)
	if err != nil {
		ed.state.Form = f
		return model.Event{}, err
	}

	switch ed.state.Mode {
	case Creating:
		e, err := ed.store.Create(ctx, model.Draft{
			Title:       p.title,
			Description: p.description,
			Start:       p.start,
			End:         p.end,
		})
		ed.close()
		if err == nil {
			appLog.Info("event created", "id", e.ID, "title", e.Title)
		}
		return e, err

	default:
		e := model.Event{
			ID:          ed.state.Event.ID,
			Title:       p.title,
			Description: p.description,
			Start:       p.start,
			End:         p.end,
			Color:       ed.state.Event.Color,
		}
		found, err := ed.store.Update(ctx, e)
		ed.close()
		if err != nil {
			return e, err
		}
		if !found {
			return model.Event{}, ErrEventGone
		}
		appLog.Info("event updated", "id", e.ID, "title", e.Title)
		return e, nil
	}
}

// Delete removes the event being edited and closes.
func (ed *Editor) Delete(ctx context.Context) error {
	ed.mu.Lock()
	defer ed.mu.Unlock()

	switch ed.state.Mode {
	case Closed:
		return ErrNotOpen
	case Creating:
		return ErrDeleteUnavailable
	}

	id := ed.state.Event.ID
	_, err := ed.store.Delete(ctx, id)
	ed.close()
	if err == nil {
		appLog.Info("event deleted", "id", id)
	}
	return err
}

// Cancel discards the form and closes. Closed editors stay closed.
func (ed *Editor) Cancel() {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.close()
}

func (ed *Editor) close() {
	ed.state = State{Mode: Closed}
}
