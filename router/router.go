// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/election-tally/cliparse"
	"github.com/danielhkuo/election-tally/handlers"
	"github.com/danielhkuo/election-tally/ledger"
	"github.com/danielhkuo/election-tally/metrics"
	"github.com/danielhkuo/election-tally/middleware"
	"github.com/danielhkuo/election-tally/session"
)

func NewRouter(l *ledger.Ledger, sessions *session.Registry, m *metrics.Metrics, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(l, sessions, cfg)
	resultsHandler := handlers.NewResultsHandler(sessions)

	// Mutating routes share one per-client budget
	limiter := middleware.NewRateLimiter(cfg.SubmitRate, cfg.SubmitBurst, cfg.TrustProxy)
	limited := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithRateLimit(limiter, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Handle("GET /metrics", m.Handler())

	// Election management (admin operations)
	mux.HandleFunc("POST /elections", limited(electionHandler.CreateElection))
	mux.HandleFunc("GET /elections/{id}/admin", middleware.WithLogging(electionHandler.GetElectionAdmin))
	mux.HandleFunc("POST /elections/{id}/results", limited(electionHandler.SubmitStateResult))
	mux.HandleFunc("POST /elections/{id}/end", limited(electionHandler.EndElection))

	// Results retrieval (public)
	mux.HandleFunc("GET /elections/{slug}", middleware.WithLogging(resultsHandler.GetSummary))
	mux.HandleFunc("GET /elections/{slug}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /elections/{slug}/results/{state}", middleware.WithLogging(resultsHandler.GetStateResult))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("election-tally API v1"))
	})

	return mux
}
