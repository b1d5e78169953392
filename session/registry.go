// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/election-tally/metrics"
)

var ErrRegistryClosed = errors.New("session registry closed")

// Registry opens sessions on first use and keeps one per election
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
	group    singleflight.Group
}

func NewRegistry(deps Deps) *Registry {
	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	return &Registry{deps: deps, sessions: make(map[string]*Session)}
}

func (r *Registry) lookup(electionID string) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false, ErrRegistryClosed
	}
	s, ok := r.sessions[electionID]
	return s, ok, nil
}

// Get returns the session for an election, opening it if needed.
// Concurrent first calls for the same election share one Open.
func (r *Registry) Get(ctx context.Context, electionID string) (*Session, error) {
	if s, ok, err := r.lookup(electionID); err != nil || ok {
		return s, err
	}

	v, err, _ := r.group.Do(electionID, func() (any, error) {
		if s, ok, err := r.lookup(electionID); err != nil || ok {
			return s, err
		}

		// shared by every waiter, so one caller going away must not fail the rest
		s, err := Open(context.WithoutCancel(ctx), r.deps, electionID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			s.Close()
			return nil, ErrRegistryClosed
		}
		r.sessions[electionID] = s
		r.mu.Unlock()

		r.deps.Metrics.SessionOpened()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// BySlug resolves a share slug to its election's session
func (r *Registry) BySlug(ctx context.Context, slug string) (*Session, error) {
	e, err := r.deps.Ledger.ElectionBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, e.ID)
}

// Len reports how many sessions are open
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close closes every session; later Gets fail with ErrRegistryClosed
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		r.deps.Metrics.SessionClosed()
	}
}
