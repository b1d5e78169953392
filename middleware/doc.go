// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (duration_ms).

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, OPTIONS with headers
Content-Type, Authorization, X-Admin-Key.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ErrorWithCode(w, http.StatusConflict, "duplicate_state", "message")

Parse JSON request bodies:

	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Forwarding headers (X-Forwarded-For, X-Real-IP) are only honored when the
server is configured to trust its proxy:

	ip := middleware.ClientIP(r, cfg.TrustProxy)

Used for per-client rate limits and the hashed submitter on ledger entries.

# Rate Limiting

Mutating routes get a token bucket per client IP:

	limiter := middleware.NewRateLimiter(cfg.SubmitRate, cfg.SubmitBurst, cfg.TrustProxy)
	mux.HandleFunc("POST /elections/{id}/results",
		middleware.WithLogging(middleware.WithRateLimit(limiter, h.SubmitStateResult)))

Requests over budget get 429 with a Retry-After header.
*/
package middleware
