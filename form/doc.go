// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package form turns untyped state-result form input into tally.Input.
//
// Both JSON bodies (strings or numbers) and url-encoded forms are accepted:
//
//	var f form.StateForm
//	json.NewDecoder(r.Body).Decode(&f)
//	in := form.ParseStateForm(f)
package form
