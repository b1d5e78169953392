// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/danielhkuo/election-tally/auth"
	"github.com/danielhkuo/election-tally/cliparse"
	"github.com/danielhkuo/election-tally/form"
	"github.com/danielhkuo/election-tally/ledger"
	"github.com/danielhkuo/election-tally/middleware"
	"github.com/danielhkuo/election-tally/models"
	"github.com/danielhkuo/election-tally/session"
)

var validate = validator.New()

type ElectionHandler struct {
	ledger   *ledger.Ledger
	sessions *session.Registry
	cfg      cliparse.Config
}

func NewElectionHandler(l *ledger.Ledger, sessions *session.Registry, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{ledger: l, sessions: sessions, cfg: cfg}
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.CandidateA = strings.TrimSpace(req.CandidateA)
	req.CandidateB = strings.TrimSpace(req.CandidateB)
	if err := validate.Struct(req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, describeRequest(err))
		return
	}

	electionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate election ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	adminKey := auth.GenerateAdminKey(electionID, h.cfg.AdminKeySalt)
	shareSlug := auth.GenerateShareSlug(electionID, h.cfg.SlugSalt)

	err = h.ledger.CreateElection(r.Context(), models.Election{
		ID:         electionID,
		Title:      req.Title,
		CandidateA: req.CandidateA,
		CandidateB: req.CandidateB,
		ShareSlug:  shareSlug,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", electionID, "share_slug", shareSlug)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: electionID,
		AdminKey:   adminKey,
		ShareSlug:  shareSlug,
		ShareURL:   strings.TrimRight(h.cfg.BaseURL, "/") + "/elections/" + shareSlug,
	})
}

// authorize checks the admin key for the election in the path and returns
// its ID. On failure the response has been written.
func (h *ElectionHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return "", false
	}

	adminKey := r.Header.Get(auth.AdminKeyHeader)
	if err := auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", false
	}
	return electionID, true
}

// GetElectionAdmin handles GET /elections/{id}/admin
func (h *ElectionHandler) GetElectionAdmin(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	s, err := h.sessions.Get(r.Context(), electionID)
	if err != nil {
		writeError(w, err, "")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionAdminResponse{
		Election: s.Election(),
		Summary:  s.Summary(),
	})
}

// SubmitStateResult handles POST /elections/{id}/results.
// The body may be JSON or a url-encoded form with the same field names.
func (h *ElectionHandler) SubmitStateResult(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	f, err := readStateForm(r)
	if err != nil {
		slog.Warn("unreadable state result body", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in := form.ParseStateForm(f)

	s, err := h.sessions.Get(r.Context(), electionID)
	if err != nil {
		writeError(w, err, in.StateName)
		return
	}

	submittedBy := auth.HashIP(middleware.ClientIP(r, h.cfg.TrustProxy), h.cfg.AdminKeySalt)
	sub, err := s.Submit(r.Context(), in, submittedBy)
	if err != nil {
		writeError(w, err, in.StateName)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitStateResultResponse{
		Result:  sub.Result,
		Receipt: sub.Receipt,
		Summary: sub.Summary,
		Message: sub.Message,
	})
}

func readStateForm(r *http.Request) (form.StateForm, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var f form.StateForm
		if err := middleware.ParseJSONBody(r, &f); err != nil {
			return form.StateForm{}, fmt.Errorf("invalid JSON: %w", err)
		}
		return f, nil
	}

	if err := r.ParseForm(); err != nil {
		return form.StateForm{}, fmt.Errorf("invalid form: %w", err)
	}
	return form.FromValues(r.PostForm), nil
}

// EndElection handles POST /elections/{id}/end
func (h *ElectionHandler) EndElection(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	s, err := h.sessions.Get(r.Context(), electionID)
	if err != nil {
		writeError(w, err, "")
		return
	}

	ending, err := s.End(r.Context())
	if err != nil {
		writeError(w, err, "")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.EndElectionResponse{
		Receipt: ending.Receipt,
		Summary: ending.Summary,
		Message: ending.Message,
	})
}

// describeRequest turns the first validation failure into a client message
func describeRequest(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}

	fe := verrs[0]
	field := map[string]string{
		"Title":      "title",
		"CandidateA": "candidate_a",
		"CandidateB": "candidate_b",
	}[fe.Field()]

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "nefield":
		return "candidate_a and candidate_b must differ"
	default:
		return "invalid " + field
	}
}
