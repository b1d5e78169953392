// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the election tally API.

# Handler Types

  - ElectionHandler: election lifecycle (create, submit results, end)
  - ResultsHandler: public summary and results behind a share slug

Handlers are created via constructor functions:

	electionHandler := handlers.NewElectionHandler(ledger, sessions, cfg)
	resultsHandler := handlers.NewResultsHandler(sessions)

Both go through a session.Registry, so every request for one election
sees the same in-memory tally.

# Election Lifecycle

Elections move from in_progress to ended:

	POST /elections                → CreateElection (returns admin_key, share_slug)
	POST /elections/{id}/results   → SubmitStateResult
	POST /elections/{id}/end       → EndElection

Admin operations require the X-Admin-Key header. SubmitStateResult takes
either a JSON body or a url-encoded form with the fields state, votes_a,
votes_b and seats.

# Errors

Rejections map to statuses and carry a code:

	400 missing_field, tied_vote, invalid_seat_count
	409 election_ended, duplicate_state, already_ended
	404 election_not_found, state_not_found
	401 bad admin key
*/
package handlers
