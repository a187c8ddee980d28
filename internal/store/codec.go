package store

import (
	"encoding/json"
	"fmt"
	"time"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

// record is the at-rest shape of one event inside the persisted JSON array.
type record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Color       string `json:"color,omitempty"`
}

// EncodeEvents serializes the whole collection as a plain JSON array.
func EncodeEvents(events []model.Event) ([]byte, error) {
	recs := make([]record, 0, len(events))
	for _, e := range events {
		recs = append(recs, record{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			StartDate:   e.Start.Format(time.RFC3339),
			EndDate:     e.End.Format(time.RFC3339),
			Color:       e.Color,
		})
	}
	return json.Marshal(recs)
}

// DecodeEvents parses a persisted array. Zone-less timestamps are read as
// wall-clock time in loc. Any malformed record fails the whole decode;
// records repeating an earlier id are dropped and the first one is kept.
func DecodeEvents(data []byte, loc *time.Location) ([]model.Event, error) {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))
	for i, r := range recs {
		if r.ID == "" {
			return nil, fmt.Errorf("record %d: missing id", i)
		}
		if _, dup := seen[r.ID]; dup {
			appLog.Warn("dropping duplicate persisted event", "record", i, "id", r.ID)
			continue
		}
		seen[r.ID] = struct{}{}

		start, err := model.ParseTimestamp(r.StartDate, loc)
		if err != nil {
			return nil, fmt.Errorf("record %d: startDate: %w", i, err)
		}
		end, err := model.ParseTimestamp(r.EndDate, loc)
		if err != nil {
			return nil, fmt.Errorf("record %d: endDate: %w", i, err)
		}

		events = append(events, model.Event{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Start:       start,
			End:         end,
			Color:       r.Color,
		})
	}
	return events, nil
}
