// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally implements the election tally state machine.

# Lifecycle

A Tally starts empty and in progress. It moves through two states:

	InProgress → Ended

Ended is terminal; no further state results are accepted.

# Submitting Results

Each jurisdiction reports once:

	t := tally.New()
	r, err := t.Submit(tally.Input{
		StateName: "Florida",
		VotesA:    tally.Some(100),
		VotesB:    tally.Some(90),
		Seats:     tally.Some(29),
	})

Rejections are checked in a fixed order and leave the tally unchanged:

  - ErrElectionEnded: the election is over
  - ErrDuplicateState: the state already reported
  - ErrMissingField: a value is absent or negative
  - ErrTiedVote: both sides have the same votes
  - ErrInvalidSeatCount: seats is zero or negative

# Leadership

The leader is derived from the seat totals on every read:

	t.Leader()           // Unknown while totals are equal, including 0-0
	t.Seats(CandidateA)  // 0 for Unknown

# Persistence

Restore replays stored results through Submit so a reloaded tally is
held to the same rules as a live one.
*/
package tally
