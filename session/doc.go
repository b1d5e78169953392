// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session ties an election's in-memory tally to its ledger.

A Session holds one ended-event subscription for its whole life. Submit
and End check the tally first, then commit to the ledger, then apply:

	s, err := session.Open(ctx, deps, electionID)
	defer s.Close()

	sub, err := s.Submit(ctx, in, submittedBy)

If the ledger rejects a write the tally already accepted, the session
reloads from the ledger before returning the error.

Registry keeps one Session per election for the HTTP handlers.
*/
package session
