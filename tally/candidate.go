// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

// Candidate identifies one side of a two-way race.
// The numeric values match the ledger encoding: 0 unknown, 1 A, 2 B.
type Candidate int

const (
	Unknown Candidate = iota
	CandidateA
	CandidateB
)

func (c Candidate) String() string {
	switch c {
	case CandidateA:
		return "A"
	case CandidateB:
		return "B"
	default:
		return "unknown"
	}
}

// Valid reports whether c names an actual side (A or B).
func (c Candidate) Valid() bool {
	return c == CandidateA || c == CandidateB
}

// ParseCandidate maps "a"/"b" (any case) or "1"/"2" to a Candidate.
// Anything else is Unknown.
func ParseCandidate(s string) Candidate {
	switch s {
	case "a", "A", "1":
		return CandidateA
	case "b", "B", "2":
		return CandidateB
	default:
		return Unknown
	}
}

func (c Candidate) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Candidate) UnmarshalText(b []byte) error {
	*c = ParseCandidate(string(b))
	return nil
}

// Status is the election lifecycle state
type Status int

const (
	InProgress Status = iota
	Ended
)

func (s Status) String() string {
	if s == Ended {
		return "ended"
	}
	return "in_progress"
}

// Label is the human readable form shown on result pages
func (s Status) Label() string {
	if s == Ended {
		return "Ended"
	}
	return "In progress"
}

// ParseStatus is the inverse of Status.String. Unrecognised values are InProgress.
func ParseStatus(s string) Status {
	if s == "ended" {
		return Ended
	}
	return InProgress
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	*s = ParseStatus(string(b))
	return nil
}
