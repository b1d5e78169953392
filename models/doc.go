// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - CreateElectionRequest: title, candidate_a, candidate_b

State results are submitted as form.StateForm (see package form).

# Response Types

  - CreateElectionResponse: election_id, admin_key, share_slug, share_url
  - SubmitStateResultResponse: result, receipt, summary, message
  - EndElectionResponse: receipt, summary, message
  - ResultsResponse: summary, results
  - ElectionAdminResponse: election, summary
  - ErrorResponse: error, message, code

# Domain Types

  - Election: election metadata and lifecycle state
  - Receipt: a committed ledger transaction (tx_hash, seq, kind)
  - TallySummary: seat totals with candidate labels and the leader
  - CandidateSeats: one candidate's seat total

# Constants

Ledger transaction kinds:

	TxStateResult = "state_result"
	TxEndElection = "end_election"
*/
package models
