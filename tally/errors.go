// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import "errors"

var (
	ErrElectionEnded    = errors.New("election has ended")
	ErrDuplicateState   = errors.New("state result already submitted")
	ErrMissingField     = errors.New("all fields required")
	ErrTiedVote         = errors.New("there cannot be a tie")
	ErrInvalidSeatCount = errors.New("seats must be a positive integer")
	ErrAlreadyEnded     = errors.New("election already ended")
)

// Code returns a stable identifier for a tally error, or "" if err is not one.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrElectionEnded):
		return "election_ended"
	case errors.Is(err, ErrDuplicateState):
		return "duplicate_state"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrTiedVote):
		return "tied_vote"
	case errors.Is(err, ErrInvalidSeatCount):
		return "invalid_seat_count"
	case errors.Is(err, ErrAlreadyEnded):
		return "already_ended"
	default:
		return ""
	}
}

// IsValidation reports whether err was caused by the submitted values
// themselves rather than by the election's state.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrTiedVote) ||
		errors.Is(err, ErrInvalidSeatCount)
}
