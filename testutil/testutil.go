// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/election-tally/auth"
	"github.com/danielhkuo/election-tally/cliparse"
	"github.com/danielhkuo/election-tally/db"
)

// SetupTestDB creates a fresh SQLite database with the full schema.
// The file lives in the test's temp dir and is closed on cleanup.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, "file:"+filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   "file:test.db",
		DatabaseType:  db.TypeSQLite,
		AdminKeySalt:  "test-admin-salt",
		SlugSalt:      "test-slug-salt",
		BaseURL:       "https://tally.example.com",
		SubmitRate:    1000,
		SubmitBurst:   1000,
		ShutdownGrace: time.Second,
	}
}

// CreateTestElection inserts an election and returns its ID, admin key and slug.
// status should be "in_progress" or "ended".
func CreateTestElection(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string) (electionID, adminKey, shareSlug string) {
	t.Helper()

	electionID, _ = auth.GenerateID(16)
	adminKey = auth.GenerateAdminKey(electionID, cfg.AdminKeySalt)
	shareSlug = auth.GenerateShareSlug(electionID, cfg.SlugSalt)

	var endedAt *time.Time
	if status == "ended" {
		now := time.Now().UTC()
		endedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO election (id, title, candidate_a, candidate_b, status, share_slug, ended_at, created_at)
		VALUES ($1, 'Test Election', 'Biden', 'Trump', $2, $3, $4, $5)
	`, electionID, status, shareSlug, endedAt, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return electionID, adminKey, shareSlug
}

// AddTestResult records a state result directly in the ledger tables
func AddTestResult(t *testing.T, conn *sql.DB, electionID, state string, votesA, votesB, seats int64) string {
	t.Helper()

	hash := uuid.NewString()
	now := time.Now().UTC()

	var seq int64
	err := conn.QueryRow(`SELECT COALESCE(MAX(seq), 0) + 1 FROM ledger_tx WHERE election_id = $1`, electionID).Scan(&seq)
	if err != nil {
		t.Fatalf("Failed to allocate seq: %v", err)
	}

	_, err = conn.Exec(`
		INSERT INTO ledger_tx (hash, election_id, seq, kind, recorded_at)
		VALUES ($1, $2, $3, 'state_result', $4)
	`, hash, electionID, seq, now)
	if err != nil {
		t.Fatalf("Failed to create test ledger tx: %v", err)
	}

	_, err = conn.Exec(`
		INSERT INTO state_result (election_id, state_name, votes_a, votes_b, seats, tx_hash, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, electionID, state, votesA, votesB, seats, hash, now)
	if err != nil {
		t.Fatalf("Failed to create test state result: %v", err)
	}

	return hash
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeFormRequest creates a url-encoded form post
func MakeFormRequest(path string, values url.Values, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// StateForm builds url values for a state result post
func StateForm(state string, votesA, votesB, seats int64) url.Values {
	v := url.Values{}
	v.Set("state", state)
	v.Set("votes_a", fmt.Sprint(votesA))
	v.Set("votes_b", fmt.Sprint(votesB))
	v.Set("seats", fmt.Sprint(seats))
	return v
}
