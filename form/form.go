// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package form

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/danielhkuo/election-tally/tally"
)

var validate = validator.New()

// Field names used by both JSON and form-encoded submissions
const (
	FieldState  = "state"
	FieldVotesA = "votes_a"
	FieldVotesB = "votes_b"
	FieldSeats  = "seats"
)

// Value is a raw form input. In JSON it may be sent as a string or a bare
// number; either way the literal text is kept for parsing. Any other JSON
// value (bool, object, array) decodes as absent so the tally reports it.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			*v = ""
			return nil
		}
		*v = Value(n.String())
		return nil
	}
}

// StateForm holds a state result exactly as typed into the form
type StateForm struct {
	State  Value `json:"state"`
	VotesA Value `json:"votes_a"`
	VotesB Value `json:"votes_b"`
	Seats  Value `json:"seats"`
}

// FromValues reads a StateForm out of url-encoded form values
func FromValues(v url.Values) StateForm {
	return StateForm{
		State:  Value(v.Get(FieldState)),
		VotesA: Value(v.Get(FieldVotesA)),
		VotesB: Value(v.Get(FieldVotesB)),
		Seats:  Value(v.Get(FieldSeats)),
	}
}

// ParseStateForm converts raw form strings into a tally.Input.
// Vote counts that are not non-negative integers come back absent, so the
// tally reports them as missing. Seats keep their sign so that zero and
// negative seat counts reach the tally's own seat check.
func ParseStateForm(f StateForm) tally.Input {
	return tally.Input{
		StateName: strings.TrimSpace(string(f.State)),
		VotesA:    parseVotes(string(f.VotesA)),
		VotesB:    parseVotes(string(f.VotesB)),
		Seats:     parseSeats(string(f.Seats)),
	}
}

func parseVotes(raw string) tally.Count {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return tally.Count{}
	}
	// "number" only admits unsigned base-10 digits
	if err := validate.Var(raw, "number"); err != nil {
		return tally.Count{}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return tally.Count{}
	}
	return tally.Some(n)
}

func parseSeats(raw string) tally.Count {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return tally.Count{}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return tally.Count{}
	}
	return tally.Some(n)
}
