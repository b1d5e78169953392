// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/election-tally/auth"
	"github.com/danielhkuo/election-tally/cliparse"
	"github.com/danielhkuo/election-tally/ledger"
	"github.com/danielhkuo/election-tally/models"
	"github.com/danielhkuo/election-tally/session"
	"github.com/danielhkuo/election-tally/tally"
	"github.com/danielhkuo/election-tally/testutil"
)

type testEnv struct {
	db       *sql.DB
	cfg      cliparse.Config
	ledger   *ledger.Ledger
	sessions *session.Registry
	notices  *session.Recorder
	election *ElectionHandler
	results  *ResultsHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	l := ledger.New(conn)
	rec := &session.Recorder{}
	reg := session.NewRegistry(session.Deps{Ledger: l, Notifier: rec})
	t.Cleanup(reg.Close)

	return &testEnv{
		db:       conn,
		cfg:      cfg,
		ledger:   l,
		sessions: reg,
		notices:  rec,
		election: NewElectionHandler(l, reg, cfg),
		results:  NewResultsHandler(reg),
	}
}

func (env *testEnv) submit(electionID, adminKey string, body interface{}) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/elections/"+electionID+"/results", body,
		map[string]string{auth.AdminKeyHeader: adminKey})
	req.SetPathValue("id", electionID)
	w := httptest.NewRecorder()
	env.election.SubmitStateResult(w, req)
	return w
}

func (env *testEnv) end(electionID, adminKey string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/elections/"+electionID+"/end", nil,
		map[string]string{auth.AdminKeyHeader: adminKey})
	req.SetPathValue("id", electionID)
	w := httptest.NewRecorder()
	env.election.EndElection(w, req)
	return w
}

func TestCreateElection(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "valid election",
			body:           models.CreateElectionRequest{Title: "General", CandidateA: "Biden", CandidateB: "Trump"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing title",
			body:           models.CreateElectionRequest{CandidateA: "Biden", CandidateB: "Trump"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "title is required",
		},
		{
			name:           "blank candidate",
			body:           models.CreateElectionRequest{Title: "General", CandidateA: "   ", CandidateB: "Trump"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "candidate_a is required",
		},
		{
			name:           "same candidates",
			body:           models.CreateElectionRequest{Title: "General", CandidateA: "Biden", CandidateB: "Biden"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "candidate_a and candidate_b must differ",
		},
		{
			name:           "title too long",
			body:           models.CreateElectionRequest{Title: strings.Repeat("x", 201), CandidateA: "A", CandidateB: "B"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "title must be at most 200 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/elections", tt.body, nil)
			w := httptest.NewRecorder()
			env.election.CreateElection(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus != http.StatusCreated {
				var resp models.ErrorResponse
				testutil.AssertJSON(t, w, &resp)
				assert.Equal(t, tt.expectedMsg, resp.Message)
				return
			}

			var resp models.CreateElectionResponse
			testutil.AssertJSON(t, w, &resp)
			require.NotEmpty(t, resp.ElectionID)
			assert.NoError(t, auth.ValidateAdminKey(resp.ElectionID, resp.AdminKey, env.cfg.AdminKeySalt))
			assert.Equal(t, auth.GenerateShareSlug(resp.ElectionID, env.cfg.SlugSalt), resp.ShareSlug)
			assert.Equal(t, "https://tally.example.com/elections/"+resp.ShareSlug, resp.ShareURL)

			e, err := env.ledger.Election(req.Context(), resp.ElectionID)
			require.NoError(t, err)
			assert.Equal(t, tally.InProgress, e.Status)
			assert.Equal(t, "Biden", e.CandidateA)
		})
	}
}

func TestCreateElectionInvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("POST", "/elections", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	env.election.CreateElection(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestAdminKeyRequired(t *testing.T) {
	env := newTestEnv(t)
	id, _, _ := testutil.CreateTestElection(t, env.db, env.cfg, "in_progress")

	handlers := map[string]http.HandlerFunc{
		"admin":  env.election.GetElectionAdmin,
		"submit": env.election.SubmitStateResult,
		"end":    env.election.EndElection,
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/elections/"+id, nil,
				map[string]string{auth.AdminKeyHeader: "wrong-key"})
			req.SetPathValue("id", id)
			w := httptest.NewRecorder()
			h(w, req)

			testutil.AssertStatus(t, w, http.StatusUnauthorized)
		})
	}

	e, err := env.ledger.Election(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, tally.InProgress, e.Status)
}

func TestGetElectionAdmin(t *testing.T) {
	env := newTestEnv(t)
	id, adminKey, slug := testutil.CreateTestElection(t, env.db, env.cfg, "in_progress")
	testutil.AddTestResult(t, env.db, id, "Ohio", 10, 20, 18)

	req := testutil.MakeRequest("GET", "/elections/"+id+"/admin", nil,
		map[string]string{auth.AdminKeyHeader: adminKey})
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	env.election.GetElectionAdmin(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ElectionAdminResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, id, resp.Election.ID)
	assert.Equal(t, slug, resp.Election.ShareSlug)
	assert.Equal(t, tally.CandidateB, resp.Summary.Leader)
	assert.Equal(t, "Trump", resp.Summary.LeaderName)
	assert.Equal(t, "In progress", resp.Summary.StatusLabel)
	assert.Equal(t, 1, resp.Summary.States)
}

func TestGetElectionAdminNotFound(t *testing.T) {
	env := newTestEnv(t)

	// a valid key for an election that was never created
	id := "0123456789abcdef"
	req := testutil.MakeRequest("GET", "/elections/"+id+"/admin", nil,
		map[string]string{auth.AdminKeyHeader: auth.GenerateAdminKey(id, env.cfg.AdminKeySalt)})
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	env.election.GetElectionAdmin(w, req)

	testutil.AssertStatus(t, w, http.StatusNotFound)
	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, "election_not_found", resp.Code)
}

func TestSubmitStateResult(t *testing.T) {
	env := newTestEnv(t)
	id, adminKey, _ := testutil.CreateTestElection(t, env.db, env.cfg, "in_progress")

	w := env.submit(id, adminKey, map[string]interface{}{
		"state": "Florida", "votes_a": 100, "votes_b": "90", "seats": 29,
	})
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.SubmitStateResultResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, tally.StateResult{StateName: "Florida", VotesA: 100, VotesB: 90, Seats: 29}, resp.Result)
	assert.Equal(t, models.TxStateResult, resp.Receipt.Kind)
	assert.NotEmpty(t, resp.Receipt.Hash)
	assert.Equal(t, "Biden", resp.Summary.LeaderName)
	assert.Contains(t, resp.Message, "State submitted successfully!")

	var submittedBy sql.NullString
	err := env.db.QueryRow(`SELECT submitted_by FROM ledger_tx WHERE hash = $1`, resp.Receipt.Hash).Scan(&submittedBy)
	require.NoError(t, err)
	assert.True(t, submittedBy.Valid)
	assert.Len(t, submittedBy.String, 16)
}

func TestSubmitStateResultForm(t *testing.T) {
	env := newTestEnv(t)
	id, adminKey, _ := testutil.CreateTestElection(t, env.db, env.cfg, "in_progress")

	req := testutil.MakeFormRequest("/elections/"+id+"/results",
		testutil.StateForm("Texas", 40, 60, 38),
		map[string]string{auth.AdminKeyHeader: adminKey})
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	env.election.SubmitStateResult(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.SubmitStateResultResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, tally.CandidateB, resp.Result.Winner())
	assert.Equal(t, int64(38), resp.Summary.Candidates[1].Seats)
}

func TestSubmitStateResultRejections(t *testing.T) {
	env := newTestEnv(t)
	id, adminKey, _ := testutil.CreateTestElection(t, env.db, env.cfg, "in_progress")

	w := env.submit(id, adminKey, map[string]string{"state": "Ohio", "votes_a": "5", "votes_b": "4", "seats": "18"})
	testutil.AssertStatus(t, w, http.StatusCreated)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{
			name:           "missing state",
			body:           map[string]string{"votes_a": "1", "votes_b": "2", "seats": "3"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "missing_field",
			expectedMsg:    "All fields required!",
		},
		{
			name:           "non-numeric votes",
			body:           map[string]string{"state": "Iowa", "votes_a": "lots", "votes_b": "2", "seats": "3"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "missing_field",
			expectedMsg:    "All fields required!",
		},
		{
			name:           "tie",
			body:           map[string]string{"state": "Iowa", "votes_a": "2", "votes_b": "2", "seats": "3"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "tied_vote",
			expectedMsg:    "There cannot be a tie!",
		},
		{
			name:           "zero seats",
			body:           map[string]string{"state": "Iowa", "votes_a": "1", "votes_b": "2", "seats": "0"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_seat_count",
			expectedMsg:    "Seats must be a positive whole number!",
		},
		{
			name:           "duplicate beats missing field",
			body:           map[string]string{"state": "Ohio"},
			expectedStatus: http.StatusConflict,
			expectedCode:   "duplicate_state",
			expectedMsg:    "Ohio has already been submitted!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.submit(id, adminKey, tt.body)
			testutil.AssertStatus(t, w, tt.expectedStatus)

			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			assert.Equal(t, tt.expectedCode, resp.Code)
			assert.Equal(t, tt.expectedMsg, resp.Message)
		})
	}

	results, _, err := env.ledger.Load(t.Context(), id)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSubmitStateResultInvalidBody(t *testing.T) {
	env := newTestEnv(t)
	id, adminKey, _ := testutil.CreateTestElection(t, env.db, env.cfg, "in_progress")

	req := httptest.NewRequest("POST", "/elections/"+id+"/results", strings.NewReader(`{"state": "Ohio",`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.AdminKeyHeader, adminKey)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	env.election.SubmitStateResult(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestSubmitNonScalarJSONField(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]interface{}{"state": "Ohio", "votes_a": true, "votes_b": 5, "seats": 18}

	t.Run("in progress", func(t *testing.T) {
		id, adminKey, _ := testutil.CreateTestElection(t, env.db, env.cfg, "in_progress")
		w := env.submit(id, adminKey, body)
		testutil.AssertStatus(t, w, http.StatusBadRequest)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		assert.Equal(t, "missing_field", resp.Code)
	})

	t.Run("ended", func(t *testing.T) {
		id, adminKey, _ := testutil.CreateTestElection(t, env.db, env.cfg, "in_progress")
		testutil.AssertStatus(t, env.end(id, adminKey), http.StatusOK)

		w := env.submit(id, adminKey, body)
		testutil.AssertStatus(t, w, http.StatusConflict)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		assert.Equal(t, "election_ended", resp.Code)
	})
}

func TestEndElection(t *testing.T) {
	env := newTestEnv(t)
	id, adminKey, _ := testutil.CreateTestElection(t, env.db, env.cfg, "in_progress")
	testutil.AddTestResult(t, env.db, id, "California", 70, 30, 54)

	w := env.end(id, adminKey)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.EndElectionResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, models.TxEndElection, resp.Receipt.Kind)
	assert.Equal(t, tally.Ended, resp.Summary.Status)
	assert.Equal(t, "Election ended! Biden wins 54 seats to 0.", resp.Message)

	w = env.end(id, adminKey)
	testutil.AssertStatus(t, w, http.StatusConflict)
	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	assert.Equal(t, "already_ended", errResp.Code)

	w = env.submit(id, adminKey, map[string]string{"state": "Oregon", "votes_a": "5", "votes_b": "4", "seats": "8"})
	testutil.AssertStatus(t, w, http.StatusConflict)
	testutil.AssertJSON(t, w, &errResp)
	assert.Equal(t, "election_ended", errResp.Code)
}

func TestEndElectionAlreadyEndedInStore(t *testing.T) {
	env := newTestEnv(t)
	id, adminKey, _ := testutil.CreateTestElection(t, env.db, env.cfg, "ended")

	w := env.end(id, adminKey)
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{tally.ErrMissingField, http.StatusBadRequest},
		{tally.ErrTiedVote, http.StatusBadRequest},
		{tally.ErrInvalidSeatCount, http.StatusBadRequest},
		{tally.ErrElectionEnded, http.StatusConflict},
		{tally.ErrDuplicateState, http.StatusConflict},
		{tally.ErrAlreadyEnded, http.StatusConflict},
		{ledger.ErrElectionNotFound, http.StatusNotFound},
		{session.ErrRegistryClosed, http.StatusServiceUnavailable},
		{sql.ErrConnDone, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, statusFor(tt.err), tt.err.Error())
	}
}
