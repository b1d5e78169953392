// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ledger stores elections and their accepted state results, issues a
// receipt for every committed transaction and announces when an election ends.
package ledger
