// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/election-tally/models"
	"github.com/danielhkuo/election-tally/tally"
)

var ErrElectionNotFound = errors.New("election not found")

// EndedEvent is published once when an election is closed
type EndedEvent struct {
	ElectionID string
	Winner     tally.Candidate
	SeatsA     int64
	SeatsB     int64
	Receipt    models.Receipt
}

// Ledger is the durable record of elections and their state results.
// Writes are transactional; an accepted result is never rewritten.
type Ledger struct {
	db *sql.DB

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan EndedEvent
}

func New(db *sql.DB) *Ledger {
	return &Ledger{
		db:   db,
		subs: make(map[string]map[int]chan EndedEvent),
	}
}

// CreateElection stores a new in-progress election
func (l *Ledger) CreateElection(ctx context.Context, e models.Election) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO election (id, title, candidate_a, candidate_b, status, share_slug, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Title, e.CandidateA, e.CandidateB, tally.InProgress.String(), e.ShareSlug, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert election: %w", err)
	}
	return nil
}

const electionColumns = `id, title, candidate_a, candidate_b, status, share_slug, winner, ended_at, created_at`

// Election looks up an election by ID
func (l *Ledger) Election(ctx context.Context, id string) (models.Election, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+electionColumns+` FROM election WHERE id = $1`, id)
	return scanElection(row)
}

// ElectionBySlug looks up an election by its public share slug
func (l *Ledger) ElectionBySlug(ctx context.Context, slug string) (models.Election, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+electionColumns+` FROM election WHERE share_slug = $1`, slug)
	return scanElection(row)
}

func scanElection(row *sql.Row) (models.Election, error) {
	var (
		e       models.Election
		status  string
		winner  sql.NullInt64
		endedAt sql.NullTime
	)
	err := row.Scan(&e.ID, &e.Title, &e.CandidateA, &e.CandidateB, &status,
		&e.ShareSlug, &winner, &endedAt, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Election{}, ErrElectionNotFound
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to query election: %w", err)
	}

	e.Status = tally.ParseStatus(status)
	if winner.Valid {
		e.Winner = tally.Candidate(winner.Int64)
	}
	if endedAt.Valid {
		t := endedAt.Time
		e.EndedAt = &t
	}
	return e, nil
}

// Load returns every stored result for an election along with its status
func (l *Ledger) Load(ctx context.Context, electionID string) ([]tally.StateResult, tally.Status, error) {
	var status string
	err := l.db.QueryRowContext(ctx, `SELECT status FROM election WHERE id = $1`, electionID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tally.InProgress, ErrElectionNotFound
	}
	if err != nil {
		return nil, tally.InProgress, fmt.Errorf("failed to query election: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT state_name, votes_a, votes_b, seats
		FROM state_result
		WHERE election_id = $1
		ORDER BY state_name
	`, electionID)
	if err != nil {
		return nil, tally.InProgress, fmt.Errorf("failed to query state results: %w", err)
	}
	defer rows.Close()

	results := []tally.StateResult{}
	for rows.Next() {
		var r tally.StateResult
		if err := rows.Scan(&r.StateName, &r.VotesA, &r.VotesB, &r.Seats); err != nil {
			return nil, tally.InProgress, fmt.Errorf("failed to scan state result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, tally.InProgress, fmt.Errorf("failed to read state results: %w", err)
	}

	return results, tally.ParseStatus(status), nil
}

// RecordResult commits an already validated state result.
// The election's status and the state's uniqueness are rechecked inside the
// transaction, returning the matching tally errors.
func (l *Ledger) RecordResult(ctx context.Context, electionID string, r tally.StateResult, submittedBy string) (models.Receipt, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	status, err := electionStatus(ctx, tx, electionID)
	if err != nil {
		return models.Receipt{}, err
	}
	if status == tally.Ended {
		return models.Receipt{}, tally.ErrElectionEnded
	}

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM state_result
			WHERE election_id = $1 AND state_name = $2
		)
	`, electionID, r.StateName).Scan(&exists)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("failed to check state result: %w", err)
	}
	if exists {
		return models.Receipt{}, fmt.Errorf("state %q: %w", r.StateName, tally.ErrDuplicateState)
	}

	receipt, err := newReceipt(ctx, tx, electionID, models.TxStateResult)
	if err != nil {
		return models.Receipt{}, err
	}

	// the state row goes first so a concurrent duplicate fails on its primary key
	_, err = tx.ExecContext(ctx, `
		INSERT INTO state_result (election_id, state_name, votes_a, votes_b, seats, tx_hash, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, electionID, r.StateName, r.VotesA, r.VotesB, r.Seats, receipt.Hash, receipt.RecordedAt)
	if isUniqueViolation(err) {
		return models.Receipt{}, fmt.Errorf("state %q: %w", r.StateName, tally.ErrDuplicateState)
	}
	if err != nil {
		return models.Receipt{}, fmt.Errorf("failed to insert state result: %w", err)
	}

	if err := insertReceipt(ctx, tx, receipt, submittedBy); err != nil {
		return models.Receipt{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Receipt{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return receipt, nil
}

// EndElection closes the election and notifies subscribers.
// The winner is derived from the seat totals supplied by the caller.
func (l *Ledger) EndElection(ctx context.Context, electionID string, seatsA, seatsB int64) (models.Receipt, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	status, err := electionStatus(ctx, tx, electionID)
	if err != nil {
		return models.Receipt{}, err
	}
	if status == tally.Ended {
		return models.Receipt{}, tally.ErrAlreadyEnded
	}

	receipt, err := newReceipt(ctx, tx, electionID, models.TxEndElection)
	if err != nil {
		return models.Receipt{}, err
	}

	winner := tally.LeaderOf(seatsA, seatsB)
	res, err := tx.ExecContext(ctx, `
		UPDATE election
		SET status = $1, winner = $2, ended_at = $3
		WHERE id = $4 AND status = $5
	`, tally.Ended.String(), int64(winner), receipt.RecordedAt, electionID, tally.InProgress.String())
	if err != nil {
		return models.Receipt{}, fmt.Errorf("failed to end election: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Receipt{}, tally.ErrAlreadyEnded
	}

	if err := insertReceipt(ctx, tx, receipt, ""); err != nil {
		return models.Receipt{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Receipt{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.publish(EndedEvent{
		ElectionID: electionID,
		Winner:     winner,
		SeatsA:     seatsA,
		SeatsB:     seatsB,
		Receipt:    receipt,
	})
	return receipt, nil
}

// Subscribe registers for the ended event of one election.
// The channel is closed by cancel.
func (l *Ledger) Subscribe(electionID string) (<-chan EndedEvent, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	ch := make(chan EndedEvent, 1)
	if l.subs[electionID] == nil {
		l.subs[electionID] = make(map[int]chan EndedEvent)
	}
	l.subs[electionID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.subs[electionID], id)
			if len(l.subs[electionID]) == 0 {
				delete(l.subs, electionID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of live subscriptions for an election
func (l *Ledger) Subscribers(electionID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs[electionID])
}

func (l *Ledger) publish(ev EndedEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.subs[ev.ElectionID] {
		// an election ends once, so the buffer of one is never full
		select {
		case ch <- ev:
		default:
		}
	}
}

func electionStatus(ctx context.Context, tx *sql.Tx, electionID string) (tally.Status, error) {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM election WHERE id = $1`, electionID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return tally.InProgress, ErrElectionNotFound
	}
	if err != nil {
		return tally.InProgress, fmt.Errorf("failed to query election: %w", err)
	}
	return tally.ParseStatus(status), nil
}

func newReceipt(ctx context.Context, tx *sql.Tx, electionID, kind string) (models.Receipt, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM ledger_tx WHERE election_id = $1
	`, electionID).Scan(&seq)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("failed to allocate sequence: %w", err)
	}

	return models.Receipt{
		Hash:       uuid.NewString(),
		ElectionID: electionID,
		Seq:        seq,
		Kind:       kind,
		RecordedAt: time.Now().UTC(),
	}, nil
}

func insertReceipt(ctx context.Context, tx *sql.Tx, r models.Receipt, submittedBy string) error {
	var by *string
	if submittedBy != "" {
		by = &submittedBy
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_tx (hash, election_id, seq, kind, submitted_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.Hash, r.ElectionID, r.Seq, r.Kind, by, r.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ledger transaction: %w", err)
	}
	return nil
}

// isUniqueViolation recognises primary key and unique constraint failures
// from both supported drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
