// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the election tally API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(ledger, sessions, metrics, cfg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Election management (admin, requires X-Admin-Key):

	POST /elections              - Create election
	GET  /elections/{id}/admin   - Election details and tally
	POST /elections/{id}/results - Submit a state result
	POST /elections/{id}/end     - End the election

Results (public, uses share slug):

	GET /elections/{slug}                 - Seats, leader and status
	GET /elections/{slug}/results         - Accepted state results
	GET /elections/{slug}/results/{state} - One state's result

POST routes share a per-client rate limit set by SubmitRate and SubmitBurst.
*/
package router
