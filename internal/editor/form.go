package editor

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"weekcal/internal/model"
)

var (
	ErrInvalidForm = errors.New("editor: invalid form")

	validate = newValidator()
)

// Form holds the raw strings collected by the input widgets. Timestamps
// use model.FormLayout; RFC 3339 is accepted too.
type Form struct {
	Title       string `json:"title" validate:"required"`
	Start       string `json:"start" validate:"required"`
	End         string `json:"end" validate:"required"`
	Description string `json:"description"`
}

// FormError lists the offending fields of a rejected submission.
// It unwraps to ErrInvalidForm.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return fmt.Sprintf("%s (%s)", ErrInvalidForm, strings.Join(parts, ", "))
}

func (e *FormError) Unwrap() error { return ErrInvalidForm }

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// prefill renders an instant the way a datetime-local input shows it.
func prefill(t time.Time) string {
	return t.Format(model.FormLayout)
}

// parsed is a validated form.
type parsed struct {
	title       string
	description string
	start       time.Time
	end         time.Time
}

// parse validates f. Titles are trimmed, so whitespace-only titles count
// as empty. End must be strictly after start.
func parse(f Form, loc *time.Location) (parsed, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Start = strings.TrimSpace(f.Start)
	f.End = strings.TrimSpace(f.End)

	fields := map[string]string{}
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return parsed{}, err
		}
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	}

	var out parsed
	out.title = f.Title
	out.description = f.Description

	if _, bad := fields["start"]; !bad {
		t, err := model.ParseTimestamp(f.Start, loc)
		if err != nil {
			fields["start"] = "format"
		}
		out.start = t
	}
	if _, bad := fields["end"]; !bad {
		t, err := model.ParseTimestamp(f.End, loc)
		if err != nil {
			fields["end"] = "format"
		}
		out.end = t
	}
	if len(fields) == 0 && !out.end.After(out.start) {
		fields["end"] = "after_start"
	}

	if len(fields) > 0 {
		return parsed{}, &FormError{Fields: fields}
	}
	return out, nil
}
