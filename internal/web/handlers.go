package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/logging"
)

// runView is the JSON form of a run status.
type runView struct {
	core.RunStatus
	Percent int `json:"percent"`
}

func newRunView(st core.RunStatus) runView {
	return runView{RunStatus: st, Percent: st.Percent()}
}

// handleStartImport accepts a multipart upload and starts an import run.
//
// Form fields:
//
//	file   - the TSV export (required)
//	format - format tag such as "title.basics"; when empty the file name decides
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	// Leave room for multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)

	mr, err := r.MultipartReader()
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}

	up, err := readUpload(mr, s.cfg.Import.SpoolDir, maxSize)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.Is(err, errFileTooLarge) || errors.As(err, &tooBig) {
			respondError(w, r, errFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	// A query parameter counts as the form field when the form has none.
	if up.format == "" {
		up.format = r.URL.Query().Get("format")
	}

	runID, err := s.service.StartImport(r.Context(), up.format, up.fileName, up.file, up.size)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	logging.FromContext(r.Context()).Info("import accepted",
		"run_id", runID,
		"file", up.fileName,
		"bytes", up.size,
	)

	st, err := s.service.Status(runID)
	if err != nil {
		// Retention elapsed between start and lookup; the id is still valid.
		writeJSONStatus(w, http.StatusAccepted, map[string]string{"run_id": runID})
		return
	}
	w.Header().Set("Location", "/api/imports/"+runID)
	writeJSONStatus(w, http.StatusAccepted, newRunView(st))
}

// handleListImports returns tracked runs, newest first, and the slot usage.
func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	runs := s.service.List()
	views := make([]runView, len(runs))
	for i, st := range runs {
		views[i] = newRunView(st)
	}
	writeJSON(w, map[string]any{
		"runs":    views,
		"limiter": s.service.LimiterStatus(),
	})
}

// handleGetImport returns one run's status.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.Status(chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, newRunView(st))
}

// handleListFormats returns the accepted formats in dependency order.
func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, core.Formats())
}

// handleHealth reports whether the store answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
