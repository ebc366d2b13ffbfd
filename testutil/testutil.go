// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bricesuazo/eboto-sub002/auth"
	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/db"
	"github.com/bricesuazo/eboto-sub002/middleware"
	"github.com/bricesuazo/eboto-sub002/models"
)

// TestPassword is the password of every seeded account
const TestPassword = "correct-horse-battery"

var dbSeq atomic.Int64

// SetupTestDB opens a private in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory", name, dbSeq.Add(1))

	conn, err := db.OpenSQLite(dsn)
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.CreateSchema(context.Background(), conn), "Failed to create schema")

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      "file::memory:",
		DatabaseType:     cliparse.DatabaseSQLite,
		JWTSecret:        "test-jwt-secret",
		InviteSalt:       "test-invite-salt",
		BaseURL:          "http://localhost:3318",
		TokenTTL:         time.Hour,
		RealtimeInterval: 50 * time.Millisecond,
		Location:         time.UTC,
	}
}

// Window returns election dates relative to now: "upcoming", "ongoing" or
// "ended"
func Window(kind string) (start, end time.Time) {
	now := time.Now().UTC()
	switch kind {
	case "upcoming":
		return now.Add(24 * time.Hour), now.Add(48 * time.Hour)
	case "ended":
		return now.Add(-48 * time.Hour), now.Add(-24 * time.Hour)
	default:
		return now.Add(-time.Hour), now.Add(24 * time.Hour)
	}
}

// CreateTestAccount creates an account with TestPassword and returns its
// ID and a session token
func CreateTestAccount(t *testing.T, conn *sql.DB, cfg cliparse.Config, email, name string) (accountID, token string) {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	require.NoError(t, err)

	accountID = auth.NewID()
	_, err = conn.Exec(`
		INSERT INTO account (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, accountID, auth.NormalizeEmail(email), name, hash, time.Now().UTC())
	require.NoError(t, err, "Failed to create test account")

	token, err = auth.IssueToken(accountID, cfg.JWTSecret, cfg.TokenTTL, time.Now())
	require.NoError(t, err)

	return accountID, token
}

// CreateTestElection creates an election run by commissionerID, with its
// Independent partylist. kind is passed to Window.
func CreateTestElection(t *testing.T, conn *sql.DB, commissionerID, slug, kind, publicity string) (electionID, independentID string) {
	t.Helper()

	start, end := Window(kind)
	now := time.Now().UTC()
	electionID = auth.NewID()
	independentID = auth.NewID()

	_, err := conn.Exec(`
		INSERT INTO election (id, slug, name, description, start_date, end_date,
			voting_hour_start, voting_hour_end, publicity, realtime_visible, created_at, updated_at)
		VALUES ($1, $2, $3, '', $4, $5, 0, 24, $6, FALSE, $7, $7)
	`, electionID, slug, "Election "+slug, start, end, publicity, now)
	require.NoError(t, err, "Failed to create test election")

	_, err = conn.Exec(`
		INSERT INTO commissioner (election_id, account_id, created_at) VALUES ($1, $2, $3)
	`, electionID, commissionerID, now)
	require.NoError(t, err, "Failed to create test commissioner")

	_, err = conn.Exec(`
		INSERT INTO partylist (id, election_id, name, acronym, description, is_independent, created_at)
		VALUES ($1, $2, $3, $4, '', TRUE, $5)
	`, independentID, electionID, models.IndependentName, models.IndependentAcronym, now)
	require.NoError(t, err, "Failed to create independent partylist")

	return electionID, independentID
}

// CreateTestPosition adds a position at the given ballot order
func CreateTestPosition(t *testing.T, conn *sql.DB, electionID, name string, order, minVotes, maxVotes int) string {
	t.Helper()

	id := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO position (id, election_id, name, description, sort_order, min_votes, max_votes, created_at)
		VALUES ($1, $2, $3, '', $4, $5, $6, $7)
	`, id, electionID, name, order, minVotes, maxVotes, time.Now().UTC())
	require.NoError(t, err, "Failed to create test position")

	return id
}

// CreateTestPartylist adds a regular partylist
func CreateTestPartylist(t *testing.T, conn *sql.DB, electionID, name, acronym string) string {
	t.Helper()

	id := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO partylist (id, election_id, name, acronym, description, is_independent, created_at)
		VALUES ($1, $2, $3, $4, '', FALSE, $5)
	`, id, electionID, name, acronym, time.Now().UTC())
	require.NoError(t, err, "Failed to create test partylist")

	return id
}

// CreateTestCandidate adds a candidate; slug doubles as first name
func CreateTestCandidate(t *testing.T, conn *sql.DB, electionID, positionID, partylistID, slug, lastName string) string {
	t.Helper()

	id := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO candidate (id, election_id, position_id, partylist_id, slug,
			first_name, middle_name, last_name, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, '', $7, '', $8)
	`, id, electionID, positionID, partylistID, slug, slug, lastName, time.Now().UTC())
	require.NoError(t, err, "Failed to create test candidate")

	return id
}

// CreateTestVoter puts an email on the roster with the given status
func CreateTestVoter(t *testing.T, conn *sql.DB, electionID, email, status string) string {
	t.Helper()

	id := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO voter (id, election_id, email, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, electionID, auth.NormalizeEmail(email), status, time.Now().UTC())
	require.NoError(t, err, "Failed to create test voter")

	return id
}

// SubmitTestBallot stores a ballot. An empty candidate list records an
// abstention for that position.
func SubmitTestBallot(t *testing.T, conn *sql.DB, electionID, voterID string, votes map[string][]string) string {
	t.Helper()

	ballotID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO ballot (id, election_id, voter_id, cast_at)
		VALUES ($1, $2, $3, $4)
	`, ballotID, electionID, voterID, time.Now().UTC())
	require.NoError(t, err, "Failed to create test ballot")

	for positionID, candidateIDs := range votes {
		if len(candidateIDs) == 0 {
			_, err := conn.Exec(`
				INSERT INTO vote (id, ballot_id, position_id, candidate_id) VALUES ($1, $2, $3, NULL)
			`, auth.NewID(), ballotID, positionID)
			require.NoError(t, err, "Failed to create test abstention")
			continue
		}
		for _, candidateID := range candidateIDs {
			_, err := conn.Exec(`
				INSERT INTO vote (id, ballot_id, position_id, candidate_id) VALUES ($1, $2, $3, $4)
			`, auth.NewID(), ballotID, positionID, candidateID)
			require.NoError(t, err, "Failed to create test vote")
		}
	}

	return ballotID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	case string:
		req = httptest.NewRequest(method, path, strings.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	default:
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AsAccount marks req as authenticated, skipping token parsing
func AsAccount(req *http.Request, accountID string) *http.Request {
	if accountID == "" {
		return req
	}
	return req.WithContext(middleware.WithAccount(req.Context(), accountID))
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
