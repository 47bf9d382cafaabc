package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"examprep-quiz/internal/app"
	"examprep-quiz/internal/domain"
)

var errUnsupported = errors.New("unsupported message type")

func errInvalidPayload(kind string) error {
	return fmt.Errorf("invalid %s payload", kind)
}

// ResultsHandler serves the results of a session over plain HTTP.
type ResultsHandler struct {
	service        *app.QuizService
	exportFileName string
}

func NewResultsHandler(service *app.QuizService, exportFileName string) *ResultsHandler {
	return &ResultsHandler{service: service, exportFileName: exportFileName}
}

// ServeResults handles GET /sessions/{id}/results.
func (h *ResultsHandler) ServeResults(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if !sessionIDRe.MatchString(sessionID) {
		http.Error(w, errBadSessionID.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.service.Open(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}
	defer h.service.Close(r.Context(), sessionID)

	results, err := h.service.Results(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// ServeExport handles GET /sessions/{id}/export as a file download.
func (h *ResultsHandler) ServeExport(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if !sessionIDRe.MatchString(sessionID) {
		http.Error(w, errBadSessionID.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.service.Open(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}
	defer h.service.Close(r.Context(), sessionID)

	doc, err := h.service.Export(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.exportFileName))
	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrQuestionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}
