// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bricesuazo/eboto-sub002/models"
	"github.com/bricesuazo/eboto-sub002/realtime"
	"github.com/bricesuazo/eboto-sub002/testutil"
)

func newResultsHandler(t *testing.T, f fixture) *ResultsHandler {
	t.Helper()
	hub := realtime.NewHub(TallyLoader(f.db, f.cfg), f.cfg.RealtimeInterval)
	t.Cleanup(hub.Close)
	return NewResultsHandler(f.db, f.cfg, hub)
}

func TestGetRealtime_Tally(t *testing.T) {
	f := newBallotFixture(t, "ongoing")
	handler := newResultsHandler(t, f.fixture)

	v1 := testutil.CreateTestVoter(t, f.db, f.electionID, "v1@example.com", models.VoterAccepted)
	v2 := testutil.CreateTestVoter(t, f.db, f.electionID, "v2@example.com", models.VoterAccepted)
	v3 := testutil.CreateTestVoter(t, f.db, f.electionID, "v3@example.com", models.VoterAccepted)
	testutil.CreateTestVoter(t, f.db, f.electionID, "v4@example.com", models.VoterInvited)
	testutil.CreateTestVoter(t, f.db, f.electionID, "gone@example.com", models.VoterDeclined)

	testutil.SubmitTestBallot(t, f.db, f.electionID, v1, map[string][]string{
		f.president: {f.ana}, f.senator: {f.cara, f.dan},
	})
	testutil.SubmitTestBallot(t, f.db, f.electionID, v2, map[string][]string{
		f.president: {f.ana}, f.senator: {f.cara},
	})
	testutil.SubmitTestBallot(t, f.db, f.electionID, v3, map[string][]string{
		f.president: {}, f.senator: {f.eve},
	})

	req := testutil.MakeRequest(http.MethodGet, "/elections/council/realtime", nil, nil)
	w := serve(handler.GetRealtime, req, f.commissionerID, "slug", f.slug)
	testutil.AssertStatus(t, w, http.StatusOK)

	var tally models.Tally
	testutil.AssertJSON(t, w, &tally)
	assert.Equal(t, 3, tally.VotedCount)
	assert.Equal(t, 4, tally.TotalVoters)
	assert.InDelta(t, 0.75, tally.Turnout, 1e-9)
	require.Len(t, tally.Positions, 2)

	president := tally.Positions[0]
	assert.Equal(t, "President", president.Name)
	assert.Equal(t, 1, president.AbstainCount)
	assert.Equal(t, 3, president.TotalVoted)
	require.Len(t, president.Candidates, 2)
	assert.Equal(t, f.ana, president.Candidates[0].CandidateID)
	assert.Equal(t, 2, president.Candidates[0].Votes)
	assert.Equal(t, "ana Reyes", president.Candidates[0].Name)
	assert.Equal(t, "IND", president.Candidates[0].Partylist)
	assert.Equal(t, 0, president.Candidates[1].Votes)

	senator := tally.Positions[1]
	assert.Equal(t, 0, senator.AbstainCount)
	assert.Equal(t, 3, senator.TotalVoted)
	assert.Contains(t, w.Body.String(), `"total_voted":3`)
	votes := map[string]int{}
	for _, c := range senator.Candidates {
		votes[c.CandidateID] = c.Votes
	}
	assert.Equal(t, map[string]int{f.cara: 2, f.dan: 1, f.eve: 1}, votes)

	// The loader used by the hub sees the same numbers
	loaded, err := TallyLoader(f.db, f.cfg)(context.Background(), f.electionID)
	require.NoError(t, err)
	assert.Equal(t, tally.Positions, loaded.Positions)
}

func TestGetRealtime_Visibility(t *testing.T) {
	testCases := []struct {
		name            string
		kind            string
		publicity       string
		realtimeVisible bool
		viewer          string
		want            int
	}{
		{"commissioner always", "ongoing", models.PublicityPrivate, false, "commissioner", http.StatusOK},
		{"hidden while ongoing", "ongoing", models.PublicityPublic, false, "anonymous", http.StatusForbidden},
		{"realtime visible", "ongoing", models.PublicityPublic, true, "anonymous", http.StatusOK},
		{"ended public", "ended", models.PublicityPublic, false, "anonymous", http.StatusOK},
		{"ended voter-only for voter", "ended", models.PublicityVoter, false, "voter", http.StatusOK},
		{"ended voter-only for stranger", "ended", models.PublicityVoter, false, "anonymous", http.StatusNotFound},
		{"private stays hidden", "ended", models.PublicityPrivate, true, "voter", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.kind, tc.publicity)
			handler := newResultsHandler(t, f)
			_, err := f.db.Exec(`UPDATE election SET realtime_visible = $1 WHERE id = $2`, tc.realtimeVisible, f.electionID)
			require.NoError(t, err)

			viewers := map[string]string{"commissioner": f.commissionerID}
			viewers["voter"], _ = f.voter(t, "voter@example.com", models.VoterAccepted)

			req := testutil.MakeRequest(http.MethodGet, "/elections/council/realtime", nil, nil)
			w := serve(handler.GetRealtime, req, viewers[tc.viewer], "slug", f.slug)
			testutil.AssertStatus(t, w, tc.want)
		})
	}
}

func TestGetStats(t *testing.T) {
	f := newBallotFixture(t, "ongoing")
	handler := newResultsHandler(t, f.fixture)

	year := f.voterField(t, "Year")
	first := testutil.CreateTestVoter(t, f.db, f.electionID, "a@example.com", models.VoterAccepted)
	second := testutil.CreateTestVoter(t, f.db, f.electionID, "b@example.com", models.VoterAccepted)
	third := testutil.CreateTestVoter(t, f.db, f.electionID, "c@example.com", models.VoterInvited)
	declined := testutil.CreateTestVoter(t, f.db, f.electionID, "d@example.com", models.VoterDeclined)
	f.setField(t, first, year, "1")
	f.setField(t, second, year, "1")
	f.setField(t, third, year, "2")
	f.setField(t, declined, year, "2")
	testutil.SubmitTestBallot(t, f.db, f.electionID, first, map[string][]string{f.president: {f.ana}, f.senator: {}})

	voterAccount, _ := f.voter(t, "voter@example.com", models.VoterAccepted)
	req := testutil.MakeRequest(http.MethodGet, "/elections/council/stats", nil, nil)
	w := serve(handler.GetStats, req, voterAccount, "slug", f.slug)
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = serve(handler.GetStats, req, f.commissionerID, "slug", f.slug)
	testutil.AssertStatus(t, w, http.StatusOK)

	var stats []models.FieldStats
	testutil.AssertJSON(t, w, &stats)
	require.Len(t, stats, 1)
	assert.Equal(t, "Year", stats[0].Name)
	assert.Equal(t, []models.FieldValueStats{
		{Value: "", VoterCount: 1, VotedCount: 0},
		{Value: "1", VoterCount: 2, VotedCount: 1},
		{Value: "2", VoterCount: 1, VotedCount: 0},
	}, stats[0].Values)
}
