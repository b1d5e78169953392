// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"

	"github.com/danielhkuo/election-tally/middleware"
	"github.com/danielhkuo/election-tally/models"
	"github.com/danielhkuo/election-tally/session"
)

// ResultsHandler serves the public, read-only views behind a share slug
type ResultsHandler struct {
	sessions *session.Registry
}

func NewResultsHandler(sessions *session.Registry) *ResultsHandler {
	return &ResultsHandler{sessions: sessions}
}

func (h *ResultsHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return nil, false
	}

	s, err := h.sessions.BySlug(r.Context(), shareSlug)
	if err != nil {
		writeError(w, err, "")
		return nil, false
	}
	return s, true
}

// GetSummary handles GET /elections/{slug}
// Returns seats per candidate, the current leader and the election status
func (h *ResultsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, s.Summary())
}

// GetResults handles GET /elections/{slug}/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		Summary: s.Summary(),
		Results: s.Results(),
	})
}

// GetStateResult handles GET /elections/{slug}/results/{state}
func (h *ResultsHandler) GetStateResult(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	stateName := r.PathValue("state")
	result, found := s.ResultFor(stateName)
	if !found {
		middleware.ErrorWithCode(w, http.StatusNotFound, "state_not_found",
			fmt.Sprintf("No result for %s yet", stateName))
		return
	}
	middleware.JSONResponse(w, http.StatusOK, result)
}
