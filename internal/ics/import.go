package ics

import (
	"context"
	"fmt"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

// Creator is the store operation an import drives.
type Creator interface {
	Create(ctx context.Context, d model.Draft) (model.Event, error)
}

// Import parses body and creates one event per usable VEVENT. Imported
// events get fresh ids; source UIDs are not reused. It stops at the first
// store error and returns what was created so far.
func Import(ctx context.Context, c Creator, body []byte, opts ParseOptions) ([]model.Event, error) {
	parsed, err := Parse(body, opts)
	if err != nil {
		return nil, err
	}

	created := make([]model.Event, 0, len(parsed))
	for _, p := range parsed {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		e, err := c.Create(ctx, p.Draft)
		if err != nil {
			return created, fmt.Errorf("import %q: %w", p.UID, err)
		}
		created = append(created, e)
	}
	appLog.Info("ics import completed", "created", len(created))
	return created, nil
}
