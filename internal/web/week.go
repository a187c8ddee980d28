package web

import (
	"net/http"
	"strings"
	"time"

	"weekcal/internal/calendar"
	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

// eventDTO is the JSON view of an event.
type eventDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Color       string    `json:"color,omitempty"`
}

func toDTO(e model.Event, loc *time.Location) eventDTO {
	return eventDTO{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Start:       e.Start.In(loc),
		End:         e.End.In(loc),
		Color:       e.Color,
	}
}

func toDTOs(events []model.Event, loc *time.Location) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toDTO(e, loc))
	}
	return out
}

type dayDTO struct {
	Date    string     `json:"date"`
	Weekday string     `json:"weekday"`
	Today   bool       `json:"today"`
	Events  []eventDTO `json:"events"`
}

// weekResponse is the JSON response shape for /api/week.
type weekResponse struct {
	Label    string   `json:"label"`
	Start    string   `json:"start"`
	Prev     string   `json:"prev"`
	Next     string   `json:"next"`
	Timezone string   `json:"timezone"`
	Days     []dayDTO `json:"days"`
}

// handleWeek returns the seven day buckets of the window containing date.
//
// GET /api/week?date=YYYY-MM-DD
//   - date: any day in the wanted week (default today)
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	now := s.now().In(s.loc)
	anchor := now
	if q := strings.TrimSpace(r.URL.Query().Get("date")); q != "" {
		d, err := model.ParseDay(q, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		anchor = d
	}

	days := s.week.Days(anchor)
	key := days[0].Format(model.DayLayout)

	// The label follows the anchor's month and the today flag follows the
	// clock, so both are part of the key.
	label := calendar.Label(anchor)
	today := calendar.StartOfDay(now).Format(model.DayLayout)
	cacheKey := key + "/" + today + "/" + label

	s.weekMu.RLock()
	resp, ok := s.weekCache[cacheKey]
	gen := s.weekGen
	s.weekMu.RUnlock()
	if ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	appLog.Debug("api week request", "week_start", key)

	buckets := s.store.BucketByDay(days)
	resp = weekResponse{
		Label:    label,
		Start:    key,
		Prev:     calendar.PrevWeek(days[0]).Format(model.DayLayout),
		Next:     calendar.NextWeek(days[0]).Format(model.DayLayout),
		Timezone: s.loc.String(),
		Days:     make([]dayDTO, 0, len(buckets)),
	}
	for _, b := range buckets {
		resp.Days = append(resp.Days, dayDTO{
			Date:    b.Day.Format(model.DayLayout),
			Weekday: b.Day.Weekday().String(),
			Today:   calendar.SameDay(now, b.Day),
			Events:  toDTOs(b.Events, s.loc),
		})
	}

	s.weekMu.Lock()
	if s.weekGen == gen {
		s.weekCache[cacheKey] = resp
	}
	s.weekMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) invalidateWeeks() {
	s.weekMu.Lock()
	s.weekGen++
	clear(s.weekCache)
	s.weekMu.Unlock()
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toDTOs(s.store.List(), s.loc))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, toDTO(e, s.loc))
}

type moveRequest struct {
	Day string `json:"day"`
}

// handleMoveEvent drops an event onto another day, keeping its time of
// day and duration.
func (s *Server) handleMoveEvent(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	day, err := model.ParseDay(req.Day, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}

	id := r.PathValue("id")
	e, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	moved := calendar.Move(e, day)
	found, err := s.store.Update(r.Context(), moved)
	if err != nil {
		appLog.Error("move event: persist failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to save events")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	appLog.Info("event moved", "id", id, "day", req.Day)
	writeJSON(w, http.StatusOK, toDTO(moved, s.loc))
}
