// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bricesuazo/eboto-sub002/auth"
	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/testutil"
)

// fixture is an election run by one commissioner
type fixture struct {
	db             *sql.DB
	cfg            cliparse.Config
	commissionerID string
	electionID     string
	independentID  string
	slug           string
}

func newFixture(t *testing.T, kind, publicity string) fixture {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	commissionerID, _ := testutil.CreateTestAccount(t, conn, cfg, "commissioner@example.com", "Commissioner")
	electionID, independentID := testutil.CreateTestElection(t, conn, commissionerID, "council", kind, publicity)

	return fixture{
		db:             conn,
		cfg:            cfg,
		commissionerID: commissionerID,
		electionID:     electionID,
		independentID:  independentID,
		slug:           "council",
	}
}

// account creates a signed-in user
func (f fixture) account(t *testing.T, email, name string) string {
	t.Helper()
	id, _ := testutil.CreateTestAccount(t, f.db, f.cfg, email, name)
	return id
}

// voter creates an account and puts it on the roster with status
func (f fixture) voter(t *testing.T, email, status string) (accountID, voterID string) {
	t.Helper()
	accountID = f.account(t, email, email)
	voterID = testutil.CreateTestVoter(t, f.db, f.electionID, email, status)
	return accountID, voterID
}

func (f fixture) voterStatus(t *testing.T, voterID string) string {
	t.Helper()
	var status string
	require.NoError(t, f.db.QueryRow(`SELECT status FROM voter WHERE id = $1`, voterID).Scan(&status))
	return status
}

func (f fixture) voterField(t *testing.T, name string) string {
	t.Helper()
	id := auth.NewID()
	_, err := f.db.Exec(`
		INSERT INTO voter_field (id, election_id, name, created_at) VALUES ($1, $2, $3, $4)
	`, id, f.electionID, name, time.Now().UTC())
	require.NoError(t, err)
	return id
}

func (f fixture) setField(t *testing.T, voterID, fieldID, value string) {
	t.Helper()
	_, err := f.db.Exec(`
		INSERT INTO voter_field_value (voter_id, field_id, value) VALUES ($1, $2, $3)
	`, voterID, fieldID, value)
	require.NoError(t, err)
}

// serve runs h as accountID ("" for anonymous). pathValues are name/value
// pairs the mux would have extracted.
func serve(h http.HandlerFunc, req *http.Request, accountID string, pathValues ...string) *httptest.ResponseRecorder {
	req = testutil.AsAccount(req, accountID)
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}
