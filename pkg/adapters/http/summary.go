package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// GetSummary handles GET /api/summaries/{frequency}.
// A missing artifact is a 404 with an explanatory message. With
// Accept: text/markdown the raw digest is returned.
func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	freq, err := domain.ParseFrequency(chi.URLParam(r, "frequency"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	a, err := s.Engine.Artifact(r.Context(), freq)
	if errors.Is(err, domain.ErrArtifactNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "No " + strings.ToLower(freq.Label()) + " summary has been generated yet. Run the AI News use case first.",
		})
		return
	}
	if err != nil {
		s.logger.Error("load summary", "frequency", freq, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: err.Error()})
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/markdown") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(a.Content))
		return
	}
	writeJSON(w, http.StatusOK, a)
}
