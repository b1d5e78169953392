// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielhkuo/election-tally/ledger"
	"github.com/danielhkuo/election-tally/metrics"
	"github.com/danielhkuo/election-tally/models"
	"github.com/danielhkuo/election-tally/tally"
)

var tracer = otel.Tracer("github.com/danielhkuo/election-tally/session")

// Deps are the collaborators shared by every session
type Deps struct {
	Ledger   *ledger.Ledger
	Notifier Notifier
	Metrics  *metrics.Metrics
}

// Submission is the outcome of an accepted state result
type Submission struct {
	Result  tally.StateResult
	Receipt models.Receipt
	Summary models.TallySummary
	Message string
}

// Ending is the outcome of closing an election
type Ending struct {
	Receipt models.Receipt
	Summary models.TallySummary
	Message string
}

// Session owns the in-memory tally of one election and keeps it in step
// with the ledger. Writes go through the session so that a result is only
// applied to the tally once the ledger has committed it.
type Session struct {
	deps Deps

	// mu serializes check, ledger write and apply
	mu    sync.Mutex
	tally atomic.Pointer[tally.Tally]

	infoMu   sync.RWMutex
	election models.Election

	// announced is set once the ended notice has gone out
	announced atomic.Bool

	cancel    func()
	done      chan struct{}
	closeOnce sync.Once
}

// Open loads an election from the ledger and subscribes to its ended event.
// The subscription lives until Close.
func Open(ctx context.Context, deps Deps, electionID string) (*Session, error) {
	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	s := &Session{deps: deps, done: make(chan struct{})}
	if err := s.load(ctx, electionID); err != nil {
		return nil, err
	}

	events, cancel := deps.Ledger.Subscribe(electionID)
	s.cancel = cancel
	go s.watch(events)

	deps.Metrics.SetSeats(electionID, s.tally.Load().Snapshot())
	return s, nil
}

func (s *Session) load(ctx context.Context, electionID string) error {
	e, err := s.deps.Ledger.Election(ctx, electionID)
	if err != nil {
		return err
	}
	results, status, err := s.deps.Ledger.Load(ctx, electionID)
	if err != nil {
		return err
	}
	t, err := tally.Restore(results, status)
	if err != nil {
		return fmt.Errorf("election %s: %w", electionID, err)
	}

	s.infoMu.Lock()
	s.election = e
	s.infoMu.Unlock()
	s.tally.Store(t)
	return nil
}

func (s *Session) watch(events <-chan ledger.EndedEvent) {
	defer close(s.done)
	for ev := range events {
		s.deps.Metrics.RecordEndedEvent()
		s.announce(context.Background(), ev)
	}
}

// announce emits the ended notice unless this session already has
func (s *Session) announce(ctx context.Context, ev ledger.EndedEvent) {
	if !s.announced.CompareAndSwap(false, true) {
		return
	}
	s.deps.Notifier.Notify(ctx, endedNotice(s.Election(), ev))
}

// Close ends the ended-event subscription and waits for its goroutine
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
}

// Election returns the election metadata with its current lifecycle fields
func (s *Session) Election() models.Election {
	s.infoMu.RLock()
	defer s.infoMu.RUnlock()
	return s.election
}

// Submit validates a state result, commits it to the ledger and applies it.
// Nothing is applied if either step rejects it.
func (s *Session) Submit(ctx context.Context, in tally.Input, submittedBy string) (Submission, error) {
	e := s.Election()
	ctx, span := tracer.Start(ctx, "session.Submit", trace.WithAttributes(
		attribute.String("election.id", e.ID),
		attribute.String("election.state", in.StateName),
	))
	defer span.End()

	start := time.Now()
	sub, err := s.submit(ctx, e, in, submittedBy)
	s.deps.Metrics.RecordSubmission(err, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.deps.Notifier.Notify(ctx, failureNotice(e, in.StateName, err))
		return Submission{}, err
	}

	s.deps.Notifier.Notify(ctx, Notice{ElectionID: e.ID, Level: LevelSuccess, Message: sub.Message})
	return sub, nil
}

func (s *Session) submit(ctx context.Context, e models.Election, in tally.Input, submittedBy string) (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tally.Load()
	r, err := t.Check(in)
	if err != nil {
		return Submission{}, err
	}

	receipt, err := s.deps.Ledger.RecordResult(ctx, e.ID, r, submittedBy)
	if err != nil {
		if errors.Is(err, tally.ErrElectionEnded) || errors.Is(err, tally.ErrDuplicateState) {
			// the ledger moved on without us
			s.resync(ctx)
		}
		return Submission{}, err
	}

	if _, err := t.Submit(in); err != nil {
		// committed but not applicable: reload rather than diverge
		slog.Error("ledger and tally disagree", "election_id", e.ID, "state", r.StateName, "error", err)
		s.resync(ctx)
	}

	snap := s.tally.Load().Snapshot()
	s.deps.Metrics.SetSeats(e.ID, snap)
	slog.Info("state result recorded", "election_id", e.ID, "state", r.StateName,
		"tx_hash", receipt.Hash, "leader", snap.Leader.String())

	return Submission{
		Result:  r,
		Receipt: receipt,
		Summary: models.NewTallySummary(e, snap),
		Message: submittedMessage(e, r),
	}, nil
}

// End closes the election. The success notice is delivered through the
// ended-event subscription.
func (s *Session) End(ctx context.Context) (Ending, error) {
	e := s.Election()
	ctx, span := tracer.Start(ctx, "session.End", trace.WithAttributes(
		attribute.String("election.id", e.ID),
	))
	defer span.End()

	start := time.Now()
	ending, err := s.end(ctx, e)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.deps.Notifier.Notify(ctx, failureNotice(e, "", err))
		return Ending{}, err
	}
	s.deps.Metrics.RecordEnd(time.Since(start))
	return ending, nil
}

func (s *Session) end(ctx context.Context, e models.Election) (Ending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tally.Load()
	if err := t.CheckEnd(); err != nil {
		return Ending{}, err
	}

	snap := t.Snapshot()
	receipt, err := s.deps.Ledger.EndElection(ctx, e.ID, snap.SeatsA, snap.SeatsB)
	if err != nil {
		if errors.Is(err, tally.ErrAlreadyEnded) {
			s.resync(ctx)
		}
		return Ending{}, err
	}

	if err := t.End(); err != nil {
		slog.Error("ledger and tally disagree", "election_id", e.ID, "error", err)
	}

	endedAt := receipt.RecordedAt
	s.infoMu.Lock()
	s.election.Status = tally.Ended
	s.election.Winner = snap.Leader
	s.election.EndedAt = &endedAt
	e = s.election
	s.infoMu.Unlock()

	snap = t.Snapshot()
	slog.Info("election ended", "election_id", e.ID, "winner", snap.Leader.String(),
		"seats_a", snap.SeatsA, "seats_b", snap.SeatsB)

	return Ending{
		Receipt: receipt,
		Summary: models.NewTallySummary(e, snap),
		Message: endedMessage(e, snap.Leader, snap.SeatsA, snap.SeatsB),
	}, nil
}

// Refresh reloads the tally from the ledger
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx)
}

// resync is Refresh for callers already holding mu; failures are logged
func (s *Session) resync(ctx context.Context) {
	if err := s.reload(ctx); err != nil {
		slog.Warn("failed to resync tally", "election_id", s.Election().ID, "error", err)
	}
}

// reload replaces the tally with the ledger's view. The ended event only
// reaches subscribers of the ledger that closed the election, so a reload
// that finds it newly ended announces it here.
func (s *Session) reload(ctx context.Context) error {
	was := s.tally.Load().Status()
	if err := s.load(ctx, s.Election().ID); err != nil {
		return err
	}

	e := s.Election()
	snap := s.tally.Load().Snapshot()
	s.deps.Metrics.SetSeats(e.ID, snap)
	if was == tally.InProgress && snap.Status == tally.Ended {
		s.announce(ctx, ledger.EndedEvent{
			ElectionID: e.ID,
			Winner:     e.Winner,
			SeatsA:     snap.SeatsA,
			SeatsB:     snap.SeatsB,
		})
	}
	return nil
}

func (s *Session) Leader() tally.Candidate {
	return s.tally.Load().Leader()
}

func (s *Session) Seats(c tally.Candidate) int64 {
	return s.tally.Load().Seats(c)
}

func (s *Session) Status() tally.Status {
	return s.tally.Load().Status()
}

func (s *Session) ResultFor(stateName string) (tally.StateResult, bool) {
	return s.tally.Load().ResultFor(stateName)
}

func (s *Session) Results() []tally.StateResult {
	return s.tally.Load().Results()
}

// Summary labels the current totals with candidate names
func (s *Session) Summary() models.TallySummary {
	return models.NewTallySummary(s.Election(), s.tally.Load().Snapshot())
}
