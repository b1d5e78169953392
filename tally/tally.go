// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// Count is an integer field that may be absent.
// The zero value is absent.
type Count struct {
	Value   int64
	Present bool
}

// Some returns a present Count holding n
func Some(n int64) Count {
	return Count{Value: n, Present: true}
}

// Input is an unvalidated state result as it arrives from a caller
type Input struct {
	StateName string
	VotesA    Count
	VotesB    Count
	Seats     Count
}

// StateResult is an accepted jurisdiction result. Never modified after acceptance.
type StateResult struct {
	StateName string `json:"state"`
	VotesA    int64  `json:"votes_a"`
	VotesB    int64  `json:"votes_b"`
	Seats     int64  `json:"seats"`
}

// Winner returns the side with more votes. Accepted results are never tied.
func (r StateResult) Winner() Candidate {
	switch {
	case r.VotesA > r.VotesB:
		return CandidateA
	case r.VotesB > r.VotesA:
		return CandidateB
	default:
		return Unknown
	}
}

// Input converts r back into a submission, used when replaying stored results.
func (r StateResult) Input() Input {
	return Input{
		StateName: r.StateName,
		VotesA:    Some(r.VotesA),
		VotesB:    Some(r.VotesB),
		Seats:     Some(r.Seats),
	}
}

// Snapshot is a point-in-time copy of the tally's derived values
type Snapshot struct {
	SeatsA int64     `json:"seats_a"`
	SeatsB int64     `json:"seats_b"`
	Leader Candidate `json:"leader"`
	Status Status    `json:"status"`
	States int       `json:"states"`
}

// Tally is the aggregate of accepted state results for one election.
// It is safe for concurrent use; each mutation is a single critical section.
type Tally struct {
	mu      sync.RWMutex
	results map[string]StateResult
	seatsA  int64
	seatsB  int64
	status  Status
}

// New returns an empty, in-progress tally
func New() *Tally {
	return &Tally{results: make(map[string]StateResult)}
}

// Restore rebuilds a tally by replaying previously accepted results.
// Results that would be rejected today make the restore fail.
func Restore(results []StateResult, status Status) (*Tally, error) {
	t := New()
	for _, r := range results {
		if _, err := t.Submit(r.Input()); err != nil {
			return nil, fmt.Errorf("restore %q: %w", r.StateName, err)
		}
	}
	if status == Ended {
		if err := t.End(); err != nil {
			return nil, fmt.Errorf("restore status: %w", err)
		}
	}
	return t, nil
}

// Check validates in against the current state without recording it.
// It returns exactly the error Submit would return at this moment.
func (t *Tally) Check(in Input) (StateResult, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.check(in)
}

// Submit records a state result and credits its seats to the winner.
// On error the tally is left untouched.
func (t *Tally) Submit(in Input) (StateResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, err := t.check(in)
	if err != nil {
		return StateResult{}, err
	}

	t.results[r.StateName] = r
	if r.Winner() == CandidateA {
		t.seatsA += r.Seats
	} else {
		t.seatsB += r.Seats
	}
	return r, nil
}

// check applies the rejection rules in their fixed order.
// Callers must hold t.mu.
func (t *Tally) check(in Input) (StateResult, error) {
	if t.status != InProgress {
		return StateResult{}, ErrElectionEnded
	}
	if _, ok := t.results[in.StateName]; ok {
		return StateResult{}, fmt.Errorf("state %q: %w", in.StateName, ErrDuplicateState)
	}
	if strings.TrimSpace(in.StateName) == "" ||
		!in.VotesA.Present || !in.VotesB.Present || !in.Seats.Present ||
		in.VotesA.Value < 0 || in.VotesB.Value < 0 {
		return StateResult{}, ErrMissingField
	}
	if in.VotesA.Value == in.VotesB.Value {
		return StateResult{}, ErrTiedVote
	}
	if in.Seats.Value <= 0 {
		return StateResult{}, ErrInvalidSeatCount
	}

	r := StateResult{
		StateName: in.StateName,
		VotesA:    in.VotesA.Value,
		VotesB:    in.VotesB.Value,
		Seats:     in.Seats.Value,
	}

	// the winner's running total must stay representable
	total := t.seatsB
	if r.Winner() == CandidateA {
		total = t.seatsA
	}
	if r.Seats > math.MaxInt64-total {
		return StateResult{}, fmt.Errorf("seat total overflow: %w", ErrInvalidSeatCount)
	}
	return r, nil
}

// CheckEnd returns the error End would return, without ending the election
func (t *Tally) CheckEnd() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.status == Ended {
		return ErrAlreadyEnded
	}
	return nil
}

// End closes the election. It cannot be undone.
func (t *Tally) End() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == Ended {
		return ErrAlreadyEnded
	}
	t.status = Ended
	return nil
}

// LeaderOf derives the leader from two seat totals.
func LeaderOf(seatsA, seatsB int64) Candidate {
	switch {
	case seatsA > seatsB:
		return CandidateA
	case seatsB > seatsA:
		return CandidateB
	default:
		return Unknown
	}
}

func (t *Tally) Leader() Candidate {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return LeaderOf(t.seatsA, t.seatsB)
}

// Seats returns the seat total for c, or 0 if c is not a side.
func (t *Tally) Seats(c Candidate) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	switch c {
	case CandidateA:
		return t.seatsA
	case CandidateB:
		return t.seatsB
	default:
		return 0
	}
}

func (t *Tally) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *Tally) ResultFor(stateName string) (StateResult, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.results[stateName]
	return r, ok
}

// Results returns every accepted result ordered by state name
func (t *Tally) Results() []StateResult {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]StateResult, 0, len(t.results))
	for _, r := range t.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StateName < out[j].StateName
	})
	return out
}

func (t *Tally) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{
		SeatsA: t.seatsA,
		SeatsB: t.seatsB,
		Leader: LeaderOf(t.seatsA, t.seatsB),
		Status: t.status,
		States: len(t.results),
	}
}
