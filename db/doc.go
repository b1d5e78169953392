// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

Open accepts a database type and URL:

	conn, err := db.Open("sqlite", "file:tally.db")
	conn, err := db.Open("postgres", "postgres://...")

SQLite is limited to one open connection so writes never contend.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - election: title, candidate labels, lifecycle state, share slug
  - ledger_tx: ordered transaction log per election
  - state_result: one row per reported state

# Relationships

	election 1──* ledger_tx
	election 1──* state_result
	ledger_tx 1──1 state_result (tx_hash, not a foreign key)

The (election_id, state_name) primary key is the last line of defence
against a state being counted twice.
*/
package db
