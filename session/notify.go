// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/election-tally/ledger"
	"github.com/danielhkuo/election-tally/models"
	"github.com/danielhkuo/election-tally/tally"
)

// Level of a notice, as a results page would style it
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a human-readable message about an election
type Notice struct {
	ElectionID string `json:"election_id"`
	Level      Level  `json:"level"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
}

// Notifier receives notices. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// LogNotifier writes notices to slog
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notice) {
	level := slog.LevelInfo
	switch n.Level {
	case LevelWarning:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}
	slog.Log(ctx, level, n.Message, "election_id", n.ElectionID, "code", n.Code)
}

// Recorder keeps every notice in memory
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of what has been recorded so far
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Fanout delivers each notice to every notifier in order
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notice) {
	for _, notifier := range f {
		notifier.Notify(ctx, n)
	}
}

// failureNotice maps a rejected operation to its notice.
// Rejections caused by input or election state are warnings; anything
// else is an error.
func failureNotice(e models.Election, stateName string, err error) Notice {
	n := Notice{ElectionID: e.ID, Level: LevelWarning, Code: tally.Code(err), Message: FailureMessage(stateName, err)}
	if n.Code == "" && !errors.Is(err, ledger.ErrElectionNotFound) {
		n.Level = LevelError
	}
	return n
}

// FailureMessage is the user-facing text for a rejected submission or end
func FailureMessage(stateName string, err error) string {
	switch {
	case errors.Is(err, tally.ErrMissingField):
		return "All fields required!"
	case errors.Is(err, tally.ErrTiedVote):
		return "There cannot be a tie!"
	case errors.Is(err, tally.ErrInvalidSeatCount):
		return "Seats must be a positive whole number!"
	case errors.Is(err, tally.ErrDuplicateState):
		return fmt.Sprintf("%s has already been submitted!", stateName)
	case errors.Is(err, tally.ErrElectionEnded):
		return "The election has ended, no more results are accepted."
	case errors.Is(err, tally.ErrAlreadyEnded):
		return "The election has already ended."
	case errors.Is(err, ledger.ErrElectionNotFound):
		return "Election not found."
	default:
		return err.Error()
	}
}

func submittedMessage(e models.Election, r tally.StateResult) string {
	return fmt.Sprintf("State submitted successfully! %s: %s %s, %s %s; %s seats to %s.",
		r.StateName,
		e.CandidateA, humanize.Comma(r.VotesA),
		e.CandidateB, humanize.Comma(r.VotesB),
		humanize.Comma(r.Seats), e.CandidateName(r.Winner()))
}

func endedMessage(e models.Election, winner tally.Candidate, seatsA, seatsB int64) string {
	if winner == tally.Unknown {
		return fmt.Sprintf("Election ended! Tied at %s seats each.", humanize.Comma(seatsA))
	}
	won, lost := seatsA, seatsB
	if winner == tally.CandidateB {
		won, lost = seatsB, seatsA
	}
	return fmt.Sprintf("Election ended! %s wins %s seats to %s.",
		e.CandidateName(winner), humanize.Comma(won), humanize.Comma(lost))
}

func endedNotice(e models.Election, ev ledger.EndedEvent) Notice {
	return Notice{
		ElectionID: ev.ElectionID,
		Level:      LevelSuccess,
		Message:    endedMessage(e, ev.Winner, ev.SeatsA, ev.SeatsB),
	}
}
