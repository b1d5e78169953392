// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Timestamps have no column defaults; SQLite has no NOW().
const schema = `
-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    candidate_a TEXT NOT NULL,
    candidate_b TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'in_progress' CHECK (status IN ('in_progress', 'ended')),
    share_slug TEXT NOT NULL UNIQUE,
    winner INTEGER,
    ended_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_election_share_slug ON election(share_slug);
CREATE INDEX IF NOT EXISTS idx_election_status ON election(status);

-- Ledger transactions, one per accepted state result or election end
CREATE TABLE IF NOT EXISTS ledger_tx (
    hash TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    seq BIGINT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('state_result', 'end_election')),
    submitted_by TEXT,
    recorded_at TIMESTAMP NOT NULL,
    UNIQUE (election_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_ledger_tx_election_id ON ledger_tx(election_id);

-- State results
CREATE TABLE IF NOT EXISTS state_result (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    state_name TEXT NOT NULL,
    votes_a BIGINT NOT NULL CHECK (votes_a >= 0),
    votes_b BIGINT NOT NULL CHECK (votes_b >= 0),
    seats BIGINT NOT NULL CHECK (seats > 0),
    tx_hash TEXT NOT NULL UNIQUE,
    recorded_at TIMESTAMP NOT NULL,
    PRIMARY KEY (election_id, state_name),
    CHECK (votes_a <> votes_b)
);

CREATE INDEX IF NOT EXISTS idx_state_result_election_id ON state_result(election_id);
`
