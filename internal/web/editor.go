package web

import (
	"errors"
	"net/http"

	"weekcal/internal/editor"
	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

type editorStateDTO struct {
	Mode  string      `json:"mode"`
	Day   string      `json:"day,omitempty"`
	Event *eventDTO   `json:"event,omitempty"`
	Form  editor.Form `json:"form"`
}

func (s *Server) editorState() editorStateDTO {
	st := s.editor.State()
	out := editorStateDTO{Mode: st.Mode.String(), Form: st.Form}
	switch st.Mode {
	case editor.Creating:
		out.Day = st.Day.Format(model.DayLayout)
	case editor.Editing:
		e := toDTO(st.Event, s.loc)
		out.Event = &e
	}
	return out
}

func (s *Server) handleEditorState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.editorState())
}

type openDayRequest struct {
	Day string `json:"day"`
}

func (s *Server) handleEditorOpenDay(w http.ResponseWriter, r *http.Request) {
	var req openDayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	day, err := model.ParseDay(req.Day, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}
	if _, err := s.editor.OpenDay(day); err != nil {
		s.writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.editorState())
}

type openEventRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleEditorOpenEvent(w http.ResponseWriter, r *http.Request) {
	var req openEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, ok := s.store.Get(req.ID)
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	if _, err := s.editor.OpenEvent(e); err != nil {
		s.writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.editorState())
}

type formErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (s *Server) handleEditorSubmit(w http.ResponseWriter, r *http.Request) {
	var f editor.Form
	if !decodeJSON(w, r, &f) {
		return
	}
	e, err := s.editor.Submit(r.Context(), f)
	if err != nil {
		s.writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(e, s.loc))
}

func (s *Server) handleEditorDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.Delete(r.Context()); err != nil {
		s.writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.editorState())
}

func (s *Server) handleEditorCancel(w http.ResponseWriter, _ *http.Request) {
	s.editor.Cancel()
	writeJSON(w, http.StatusOK, s.editorState())
}

// writeEditorError maps editor and store errors to status codes.
func (s *Server) writeEditorError(w http.ResponseWriter, err error) {
	var fe *editor.FormError
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadRequest, formErrorResponse{Error: editor.ErrInvalidForm.Error(), Fields: fe.Fields})
	case errors.Is(err, editor.ErrAlreadyOpen),
		errors.Is(err, editor.ErrNotOpen),
		errors.Is(err, editor.ErrDeleteUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, editor.ErrEventGone):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		appLog.Error("editor: store operation failed", err)
		writeError(w, http.StatusInternalServerError, "failed to save events")
	}
}
