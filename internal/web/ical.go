package web

import (
	"errors"
	"io"
	"net/http"

	"weekcal/internal/ics"
	appLog "weekcal/internal/log"
)

const exportName = "weekcal"

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	body := ics.Export(exportName, s.store.List(), s.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="weekcal.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

type importResponse struct {
	Imported int        `json:"imported"`
	Events   []eventDTO `json:"events"`
}

// handleImport creates one event per VEVENT in the ICS request body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	created, err := ics.Import(r.Context(), s.store, body, ics.ParseOptions{Location: s.loc})
	switch {
	case errors.Is(err, ics.ErrEmptyBody), errors.Is(err, ics.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		appLog.Error("import failed", err, "created", len(created))
		writeError(w, http.StatusInternalServerError, "failed to save events")
		return
	}

	writeJSON(w, http.StatusOK, importResponse{Imported: len(created), Events: toDTOs(created, s.loc)})
}
