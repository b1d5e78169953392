// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/election-tally/models"
)

func TestWithLogging(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusConflict, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			called := false
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(status)
				io.WriteString(w, r.URL.Path)
			})

			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest("POST", "/elections/e1/results", nil))

			assert.True(t, called)
			assert.Equal(t, status, w.Code)
			assert.Equal(t, "/elections/e1/results", w.Body.String())
		})
	}
}

func TestJSONResponse(t *testing.T) {
	w := httptest.NewRecorder()
	JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: "e1", AdminKey: "k1", ShareSlug: "s1", ShareURL: "https://tally.test/elections/s1",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"election_id":"e1","admin_key":"k1","share_slug":"s1","share_url":"https://tally.test/elections/s1"}`, w.Body.String())
}

func TestErrorWithCode(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		message  string
		expected string
	}{
		{
			name:     "coded conflict",
			status:   http.StatusConflict,
			code:     "duplicate_state",
			message:  "Ohio has already been submitted!",
			expected: `{"error":"Conflict","message":"Ohio has already been submitted!","code":"duplicate_state"}`,
		},
		{
			name:     "coded bad request",
			status:   http.StatusBadRequest,
			code:     "tied_vote",
			message:  "There cannot be a tie!",
			expected: `{"error":"Bad Request","message":"There cannot be a tie!","code":"tied_vote"}`,
		},
		{
			name:     "no code",
			status:   http.StatusUnauthorized,
			message:  "Invalid admin key",
			expected: `{"error":"Unauthorized","message":"Invalid admin key"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorWithCode(w, tt.status, tt.code, tt.message)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.expected, w.Body.String())
		})
	}

	t.Run("ErrorResponse omits code", func(t *testing.T) {
		w := httptest.NewRecorder()
		ErrorResponse(w, http.StatusNotFound, "Election not found.")

		var resp models.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, models.ErrorResponse{Error: "Not Found", Message: "Election not found."}, resp)
	})
}

func TestParseJSONBody(t *testing.T) {
	t.Run("decodes request", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/elections", strings.NewReader(`{"title":"General","candidate_a":"Biden","candidate_b":"Trump","extra":1}`))

		var parsed models.CreateElectionRequest
		require.NoError(t, ParseJSONBody(req, &parsed))
		assert.Equal(t, models.CreateElectionRequest{Title: "General", CandidateA: "Biden", CandidateB: "Trump"}, parsed)

		rest, _ := io.ReadAll(req.Body)
		assert.Empty(t, rest)
	})

	for name, body := range map[string]string{"malformed": `{title:}`, "empty": ``} {
		t.Run(name, func(t *testing.T) {
			var parsed models.CreateElectionRequest
			assert.Error(t, ParseJSONBody(httptest.NewRequest("POST", "/elections", strings.NewReader(body)), &parsed))
		})
	}
}

func TestCORS(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "handled")
	}))

	t.Run("preflight stops before handler", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/elections/e1/results", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, Authorization, X-Admin-Key", w.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("no origin gets wildcard", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/elections/slug", nil))

		assert.Equal(t, "handled", w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trusted    string
		untrusted  string
	}{
		{
			name:       "forwarded chain",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18"},
			remoteAddr: "10.0.0.1:4000",
			trusted:    "203.0.113.195",
			untrusted:  "10.0.0.1",
		},
		{
			name:       "real ip header",
			headers:    map[string]string{"X-Real-IP": "203.0.113.50"},
			remoteAddr: "10.0.0.1:4000",
			trusted:    "203.0.113.50",
			untrusted:  "10.0.0.1",
		},
		{
			name:       "forwarded beats real ip",
			headers:    map[string]string{"X-Forwarded-For": "192.0.2.1", "X-Real-IP": "192.0.2.2"},
			remoteAddr: "10.0.0.1:4000",
			trusted:    "192.0.2.1",
			untrusted:  "10.0.0.1",
		},
		{
			name:       "ipv6 peer",
			remoteAddr: "[2001:db8::1]:4000",
			trusted:    "2001:db8::1",
			untrusted:  "2001:db8::1",
		},
		{
			name:       "peer without port",
			remoteAddr: "192.0.2.9",
			trusted:    "192.0.2.9",
			untrusted:  "192.0.2.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.trusted, ClientIP(req, true))
			assert.Equal(t, tt.untrusted, ClientIP(req, false))
			assert.Equal(t, tt.untrusted, RemoteIP(req))
		})
	}
}

func TestRateLimiter(t *testing.T) {
	t.Run("burst then reject", func(t *testing.T) {
		rl := NewRateLimiter(0.5, 2, false)

		for i := 0; i < 2; i++ {
			ok, _ := rl.Allow("10.0.0.1")
			require.True(t, ok)
		}
		ok, wait := rl.Allow("10.0.0.1")
		assert.False(t, ok)
		assert.Greater(t, wait, time.Duration(0))

		// other clients have their own bucket
		ok, _ = rl.Allow("10.0.0.2")
		assert.True(t, ok)
		assert.Equal(t, 2, rl.Clients())
	})

	t.Run("rejected requests do not consume tokens", func(t *testing.T) {
		rl := NewRateLimiter(1000, 1, false)
		ok, _ := rl.Allow("c")
		require.True(t, ok)

		assert.Eventually(t, func() bool {
			ok, _ := rl.Allow("c")
			return ok
		}, time.Second, time.Millisecond)
	})

	t.Run("zero rate disables limiting", func(t *testing.T) {
		rl := NewRateLimiter(0, 0, false)
		for i := 0; i < 100; i++ {
			ok, _ := rl.Allow("c")
			require.True(t, ok)
		}
	})
}

func TestWithRateLimit(t *testing.T) {
	post := func(handler http.HandlerFunc, forwardedFor string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/elections/e1/results", nil)
		req.RemoteAddr = "192.0.2.7:4000"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		w := httptest.NewRecorder()
		handler(w, req)
		return w
	}

	t.Run("forged forwarding header shares the peer's bucket", func(t *testing.T) {
		calls := 0
		handler := WithRateLimit(NewRateLimiter(0.1, 1, false), func(w http.ResponseWriter, r *http.Request) {
			calls++
		})

		assert.Equal(t, http.StatusOK, post(handler, "198.51.100.1").Code)

		w := post(handler, "198.51.100.2")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))

		var resp models.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "rate_limited", resp.Code)
		assert.Equal(t, 1, calls)
	})

	t.Run("trusted proxy keys on the forwarded client", func(t *testing.T) {
		handler := WithRateLimit(NewRateLimiter(0.1, 1, true), func(w http.ResponseWriter, r *http.Request) {})

		assert.Equal(t, http.StatusOK, post(handler, "198.51.100.1").Code)
		assert.Equal(t, http.StatusOK, post(handler, "198.51.100.2").Code)
		assert.Equal(t, http.StatusTooManyRequests, post(handler, "198.51.100.1").Code)
	})
}
