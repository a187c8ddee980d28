package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"weekcal/internal/config"
	"weekcal/internal/editor"
	"weekcal/internal/ics"
	"weekcal/internal/model"
	"weekcal/internal/storage"
	"weekcal/internal/store"
)

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *store.Store) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	st := store.New(context.Background(), store.NewSlotRepository(storage.NewMemorySlot(), time.UTC))
	srv := NewServer(cfg, st, editor.New(st, time.UTC), time.UTC)
	srv.now = func() time.Time { return time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(srv.Close)
	return srv, st
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthBypassesAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "me", Password: "secret"}
	srv, _ := newTestServer(t, cfg)
	h := srv.Handler()

	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("GET /health = %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodGet, "/api/events", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/events without credentials = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.SetBasicAuth("me", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/events with credentials = %d, want 200", rec.Code)
	}
}

func TestEditorCreateAndWeek(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()

	// Prime the cache with the empty week.
	before := decode[weekResponse](t, do(t, h, http.MethodGet, "/api/week", ""))
	if before.Start != "2024-06-02" || len(before.Days) != 7 || len(before.Days[1].Events) != 0 {
		t.Fatalf("empty week = %+v", before)
	}
	if !before.Days[3].Today || before.Label != "June 2024" {
		t.Errorf("today/label = %v %q", before.Days[3].Today, before.Label)
	}

	rec := do(t, h, http.MethodPost, "/api/editor/day", `{"day":"2024-06-03"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("open day = %d %s", rec.Code, rec.Body.String())
	}
	state := decode[editorStateDTO](t, rec)
	if state.Mode != "creating" || state.Day != "2024-06-03" || state.Form.Start != "2024-06-03T00:00" {
		t.Errorf("editor state = %+v", state)
	}

	rec = do(t, h, http.MethodPost, "/api/editor/submit", `{"title":"Standup","start":"2024-06-03T09:00","end":"2024-06-03T09:30"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit = %d %s", rec.Code, rec.Body.String())
	}
	created := decode[eventDTO](t, rec)

	after := decode[weekResponse](t, do(t, h, http.MethodGet, "/api/week?date=2024-06-05", ""))
	monday := after.Days[1]
	if monday.Weekday != "Monday" || len(monday.Events) != 1 || monday.Events[0].ID != created.ID {
		t.Errorf("monday after create = %+v", monday)
	}

	if st := decode[editorStateDTO](t, do(t, h, http.MethodGet, "/api/editor", "")); st.Mode != "closed" {
		t.Errorf("editor mode after submit = %q", st.Mode)
	}
}

func TestMoveEvent(t *testing.T) {
	srv, st := newTestServer(t, nil)
	h := srv.Handler()

	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	e, err := st.Create(context.Background(), model.Draft{Title: "Standup", Start: start, End: start.Add(30 * time.Minute)})
	if err != nil {
		t.Fatal(err)
	}

	rec := do(t, h, http.MethodPost, "/api/events/"+e.ID+"/move", `{"day":"2024-06-07"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("move = %d %s", rec.Code, rec.Body.String())
	}
	got, _ := st.Get(e.ID)
	if want := time.Date(2024, 6, 7, 9, 0, 0, 0, time.UTC); !got.Start.Equal(want) || got.Duration() != 30*time.Minute {
		t.Errorf("moved event = %v..%v", got.Start, got.End)
	}

	if rec := do(t, h, http.MethodPost, "/api/events/missing/move", `{"day":"2024-06-07"}`); rec.Code != http.StatusNotFound {
		t.Errorf("move unknown = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/events/"+e.ID+"/move", `{"day":"friday"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("move bad day = %d, want 400", rec.Code)
	}
}

func TestEditorErrors(t *testing.T) {
	srv, st := newTestServer(t, nil)
	h := srv.Handler()

	if rec := do(t, h, http.MethodPost, "/api/editor/delete", ""); rec.Code != http.StatusConflict {
		t.Errorf("delete while closed = %d, want 409", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/editor/event", `{"id":"missing"}`); rec.Code != http.StatusNotFound {
		t.Errorf("open unknown event = %d, want 404", rec.Code)
	}

	do(t, h, http.MethodPost, "/api/editor/day", `{"day":"2024-06-03"}`)
	if rec := do(t, h, http.MethodPost, "/api/editor/day", `{"day":"2024-06-04"}`); rec.Code != http.StatusConflict {
		t.Errorf("second open = %d, want 409", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/editor/delete", ""); rec.Code != http.StatusConflict {
		t.Errorf("delete while creating = %d, want 409", rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/api/editor/submit", `{"title":"","start":"2024-06-03T09:00","end":"2024-06-03T08:00"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid submit = %d, want 400", rec.Code)
	}
	fe := decode[formErrorResponse](t, rec)
	if _, ok := fe.Fields["title"]; !ok {
		t.Errorf("fields = %v, want title", fe.Fields)
	}
	if st.Len() != 0 {
		t.Error("invalid submit created an event")
	}

	if rec := do(t, h, http.MethodPost, "/api/editor/cancel", ""); decode[editorStateDTO](t, rec).Mode != "closed" {
		t.Error("cancel did not close the editor")
	}
	if rec := do(t, h, http.MethodPost, "/api/editor/day", `{not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON = %d, want 400", rec.Code)
	}
}

func TestEditorDeleteThroughAPI(t *testing.T) {
	srv, st := newTestServer(t, nil)
	h := srv.Handler()

	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	e, _ := st.Create(context.Background(), model.Draft{Title: "Standup", Start: start, End: start.Add(time.Hour)})

	state := decode[editorStateDTO](t, do(t, h, http.MethodPost, "/api/editor/event", `{"id":"`+e.ID+`"}`))
	if state.Mode != "editing" || state.Event == nil || state.Event.ID != e.ID || state.Form.Title != "Standup" {
		t.Fatalf("editor state = %+v", state)
	}
	if rec := do(t, h, http.MethodPost, "/api/editor/delete", ""); rec.Code != http.StatusOK {
		t.Fatalf("delete = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodGet, "/api/events/"+e.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted event = %d, want 404", rec.Code)
	}
}

func TestWeekBadDate(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	if rec := do(t, srv.Handler(), http.MethodGet, "/api/week?date=06/05/2024", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("GET /api/week bad date = %d, want 400", rec.Code)
	}
}

func TestImportExport(t *testing.T) {
	srv, st := newTestServer(t, nil)
	h := srv.Handler()

	start := time.Date(2024, 6, 4, 14, 0, 0, 0, time.UTC)
	body := ics.Export("", []model.Event{{ID: "x", Title: "Review", Start: start, End: start.Add(time.Hour)}}, start)

	rec := do(t, h, http.MethodPost, "/api/import", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("import = %d %s", rec.Code, rec.Body.String())
	}
	if resp := decode[importResponse](t, rec); resp.Imported != 1 || st.Len() != 1 {
		t.Errorf("import response = %+v, store len %d", resp, st.Len())
	}

	rec = do(t, h, http.MethodGet, "/api/export.ics", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar") {
		t.Fatalf("export = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "SUMMARY:Review") {
		t.Errorf("export body missing event:\n%s", rec.Body.String())
	}

	if rec := do(t, h, http.MethodPost, "/api/import", "   "); rec.Code != http.StatusBadRequest {
		t.Errorf("empty import = %d, want 400", rec.Code)
	}
}
