// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides admin keys, share slugs and IDs for elections.

# Admin Keys

Admin keys are an HMAC-SHA256 of the election ID:

	adminKey := auth.GenerateAdminKey(electionID, salt)
	err := auth.ValidateAdminKey(electionID, adminKey, salt)

They are never stored. Requests present them in the X-Admin-Key header.

# Share Slugs

Read-only result pages are addressed by a base62 slug:

	slug := auth.GenerateShareSlug(electionID, salt)

# IDs and Fingerprints

	id, err := auth.GenerateID(16)  // 32 hex characters
	who := auth.HashIP(ip, salt)    // 16 hex characters
*/
package auth
