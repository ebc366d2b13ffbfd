// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bricesuazo/eboto-sub002/models"
	"github.com/bricesuazo/eboto-sub002/testutil"
)

func TestCreateCandidate(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityPublic)
	handler := NewCandidateHandler(f.db, f.cfg)

	president := testutil.CreateTestPosition(t, f.db, f.electionID, "President", 0, 1, 1)
	unity := testutil.CreateTestPartylist(t, f.db, f.electionID, "Unity Party", "UP")

	other, otherIndependent := testutil.CreateTestElection(t, f.db, f.commissionerID, "other", "upcoming", models.PublicityPublic)
	otherPosition := testutil.CreateTestPosition(t, f.db, other, "Mayor", 0, 1, 1)

	candidate := func(slug, positionID, partylistID string) models.CandidateRequest {
		return models.CandidateRequest{
			Slug:        slug,
			FirstName:   "Ana",
			LastName:    "Reyes",
			PositionID:  positionID,
			PartylistID: partylistID,
			Platforms:   []models.PlatformInput{{Title: "Free wifi"}, {Title: "Longer library hours"}},
		}
	}

	testCases := []struct {
		name       string
		body       models.CandidateRequest
		wantStatus int
	}{
		{"valid", candidate("ana-reyes", president, unity), http.StatusCreated},
		{"duplicate slug", candidate("ana-reyes", president, f.independentID), http.StatusConflict},
		{"position of another election", candidate("x", otherPosition, unity), http.StatusBadRequest},
		{"partylist of another election", candidate("y", president, otherIndependent), http.StatusBadRequest},
		{"bad slug", candidate("Ana Reyes", president, unity), http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest(http.MethodPost, "/elections/council/candidates", tc.body, nil)
			w := serve(handler.CreateCandidate, req, f.commissionerID, "slug", f.slug)
			testutil.AssertStatus(t, w, tc.wantStatus)
		})
	}

	w := serve(handler.GetCandidate, testutil.MakeRequest(http.MethodGet, "/elections/council/candidates/ana-reyes", nil, nil),
		"", "slug", f.slug, "candidate", "ana-reyes")
	testutil.AssertStatus(t, w, http.StatusOK)

	var c models.Candidate
	testutil.AssertJSON(t, w, &c)
	assert.Equal(t, "UP", c.PartylistAcronym)
	require.Len(t, c.Platforms, 2)
	assert.Equal(t, "Free wifi", c.Platforms[0].Title)
}

func TestUpdateCandidate_ReplacesPlatforms(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityPublic)
	handler := NewCandidateHandler(f.db, f.cfg)

	president := testutil.CreateTestPosition(t, f.db, f.electionID, "President", 0, 1, 1)
	testutil.CreateTestCandidate(t, f.db, f.electionID, president, f.independentID, "ana", "Reyes")
	testutil.CreateTestCandidate(t, f.db, f.electionID, president, f.independentID, "ben", "Cruz")

	body := models.CandidateRequest{
		Slug:        "ana-r",
		FirstName:   "Ana",
		LastName:    "Reyes",
		PositionID:  president,
		PartylistID: f.independentID,
		Platforms:   []models.PlatformInput{{Title: "Transparency"}},
	}
	req := testutil.MakeRequest(http.MethodPut, "/elections/council/candidates/ana", body, nil)
	w := serve(handler.UpdateCandidate, req, f.commissionerID, "slug", f.slug, "candidate", "ana")
	testutil.AssertStatus(t, w, http.StatusOK)

	var c models.Candidate
	testutil.AssertJSON(t, w, &c)
	assert.Equal(t, "ana-r", c.Slug)
	require.Len(t, c.Platforms, 1)
	assert.Equal(t, "Transparency", c.Platforms[0].Title)

	body.Slug = "ben"
	req = testutil.MakeRequest(http.MethodPut, "/elections/council/candidates/ana-r", body, nil)
	w = serve(handler.UpdateCandidate, req, f.commissionerID, "slug", f.slug, "candidate", "ana-r")
	testutil.AssertStatus(t, w, http.StatusConflict)

	req = testutil.MakeRequest(http.MethodPut, "/elections/council/candidates/ghost", body, nil)
	w = serve(handler.UpdateCandidate, req, f.commissionerID, "slug", f.slug, "candidate", "ghost")
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestListAndDeleteCandidates(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityPublic)
	handler := NewCandidateHandler(f.db, f.cfg)

	president := testutil.CreateTestPosition(t, f.db, f.electionID, "President", 0, 1, 1)
	vice := testutil.CreateTestPosition(t, f.db, f.electionID, "Vice President", 1, 1, 1)
	testutil.CreateTestCandidate(t, f.db, f.electionID, vice, f.independentID, "carl", "Diaz")
	testutil.CreateTestCandidate(t, f.db, f.electionID, president, f.independentID, "ben", "Cruz")

	w := serve(handler.ListCandidates, testutil.MakeRequest(http.MethodGet, "/elections/council/candidates", nil, nil), "", "slug", f.slug)
	testutil.AssertStatus(t, w, http.StatusOK)

	var candidates []models.Candidate
	testutil.AssertJSON(t, w, &candidates)
	require.Len(t, candidates, 2)
	assert.Equal(t, "ben", candidates[0].Slug, "candidates follow ballot order")

	del := func() int {
		req := testutil.MakeRequest(http.MethodDelete, "/elections/council/candidates/ben", nil, nil)
		return serve(handler.DeleteCandidate, req, f.commissionerID, "slug", f.slug, "candidate", "ben").Code
	}
	assert.Equal(t, http.StatusNoContent, del())
	assert.Equal(t, http.StatusNotFound, del())
}
