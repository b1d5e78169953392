// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/election-tally/ledger"
	"github.com/danielhkuo/election-tally/middleware"
	"github.com/danielhkuo/election-tally/session"
	"github.com/danielhkuo/election-tally/tally"
)

// statusFor maps a tally or ledger error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrElectionNotFound):
		return http.StatusNotFound
	case tally.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, tally.ErrElectionEnded),
		errors.Is(err, tally.ErrDuplicateState),
		errors.Is(err, tally.ErrAlreadyEnded):
		return http.StatusConflict
	case errors.Is(err, session.ErrRegistryClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as a JSON error body. stateName is used in the
// duplicate message and may be empty.
func writeError(w http.ResponseWriter, err error, stateName string) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		slog.Error("request failed", "error", err)
		middleware.ErrorResponse(w, status, "Internal error")
	case http.StatusServiceUnavailable:
		middleware.ErrorResponse(w, status, "Server is shutting down")
	case http.StatusNotFound:
		middleware.ErrorWithCode(w, status, "election_not_found", session.FailureMessage(stateName, err))
	default:
		middleware.ErrorWithCode(w, status, tally.Code(err), session.FailureMessage(stateName, err))
	}
}
