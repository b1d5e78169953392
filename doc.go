// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the election tally API server.

The server tracks a two-candidate race: each state reports its votes and
seats once, the candidate with more votes takes the state's seats, and the
leader is whoever holds more seats. An admin ends the election, after which
no more results are accepted.

# Starting the Server

SQLite is the default store:

	ADMIN_KEY_SALT=... SLUG_SALT=... go run . -d file:tally.db

Or PostgreSQL:

	go run . -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): database connection string
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - SLUG_SALT (--slug-salt): Secret for share slug generation

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - BASE_URL (--base-url): Public URL used in share links
  - SUBMIT_RATE, SUBMIT_BURST: Per-client limit on POST routes
  - TRUST_PROXY (--trust-proxy): Take client IPs from forwarding headers
  - CONFIG_FILE (-c): YAML file with the same settings

A .env file is loaded if present (-e to choose another).

# Architecture

  - tally: the election state machine
  - form: turns raw form input into tally input
  - ledger: durable record of elections, results and ended events
  - session: keeps a tally in step with the ledger
  - handlers, router, middleware: HTTP surface
  - metrics: Prometheus collectors
  - models: Request/response types
  - auth: Admin keys and share slugs
  - db: Connection and schema
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
