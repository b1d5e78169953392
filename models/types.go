package models

import (
	"time"

	"github.com/danielhkuo/election-tally/tally"
)

// Ledger transaction kinds
const (
	TxStateResult = "state_result"
	TxEndElection = "end_election"
)

// LeaderUnknown is shown when no candidate is ahead
const LeaderUnknown = "Unknown"

// Request types

type CreateElectionRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	CandidateA string `json:"candidate_a" validate:"required,max=64"`
	CandidateB string `json:"candidate_b" validate:"required,max=64,nefield=CandidateA"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	AdminKey   string `json:"admin_key"`
	ShareSlug  string `json:"share_slug"`
	ShareURL   string `json:"share_url"`
}

type SubmitStateResultResponse struct {
	Result  tally.StateResult `json:"result"`
	Receipt Receipt           `json:"receipt"`
	Summary TallySummary      `json:"summary"`
	Message string            `json:"message"`
}

type EndElectionResponse struct {
	Receipt Receipt      `json:"receipt"`
	Summary TallySummary `json:"summary"`
	Message string       `json:"message"`
}

type ResultsResponse struct {
	Summary TallySummary        `json:"summary"`
	Results []tally.StateResult `json:"results"`
}

type ElectionAdminResponse struct {
	Election Election     `json:"election"`
	Summary  TallySummary `json:"summary"`
}

// Domain types

type Election struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	CandidateA string          `json:"candidate_a"`
	CandidateB string          `json:"candidate_b"`
	Status     tally.Status    `json:"status"`
	ShareSlug  string          `json:"share_slug"`
	Winner     tally.Candidate `json:"winner"`
	EndedAt    *time.Time      `json:"ended_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CandidateName returns the display label for c
func (e Election) CandidateName(c tally.Candidate) string {
	switch c {
	case tally.CandidateA:
		return e.CandidateA
	case tally.CandidateB:
		return e.CandidateB
	default:
		return LeaderUnknown
	}
}

// Receipt identifies a committed ledger transaction
type Receipt struct {
	Hash       string    `json:"tx_hash"`
	ElectionID string    `json:"election_id"`
	Seq        int64     `json:"seq"`
	Kind       string    `json:"kind"`
	RecordedAt time.Time `json:"recorded_at"`
}

type CandidateSeats struct {
	Candidate tally.Candidate `json:"candidate"`
	Name      string          `json:"name"`
	Seats     int64           `json:"seats"`
}

// TallySummary is what the results page shows
type TallySummary struct {
	ElectionID  string           `json:"election_id"`
	Title       string           `json:"title"`
	Status      tally.Status     `json:"status"`
	StatusLabel string           `json:"status_label"`
	Leader      tally.Candidate  `json:"leader"`
	LeaderName  string           `json:"leader_name"`
	Candidates  []CandidateSeats `json:"candidates"`
	States      int              `json:"states"`
}

// NewTallySummary labels a snapshot with the election's candidate names
func NewTallySummary(e Election, snap tally.Snapshot) TallySummary {
	return TallySummary{
		ElectionID:  e.ID,
		Title:       e.Title,
		Status:      snap.Status,
		StatusLabel: snap.Status.Label(),
		Leader:      snap.Leader,
		LeaderName:  e.CandidateName(snap.Leader),
		Candidates: []CandidateSeats{
			{Candidate: tally.CandidateA, Name: e.CandidateA, Seats: snap.SeatsA},
			{Candidate: tally.CandidateB, Name: e.CandidateB, Seats: snap.SeatsB},
		},
		States: snap.States,
	}
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
