// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bricesuazo/eboto-sub002/auth"
	"github.com/bricesuazo/eboto-sub002/models"
	"github.com/bricesuazo/eboto-sub002/notify"
	"github.com/bricesuazo/eboto-sub002/testutil"
)

func TestAddVoter(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityVoter)
	handler := NewVoterHandler(f.db, f.cfg, &notify.Recorder{})
	f.voterField(t, "Year")
	f.account(t, "member@example.com", "Member")

	testCases := []struct {
		name       string
		body       models.VoterRequest
		wantStatus int
		wantState  string
	}{
		{"new email starts added", models.VoterRequest{Email: "New@Example.com", Field: map[string]string{"Year": "3"}}, http.StatusCreated, models.VoterAdded},
		{"existing account starts accepted", models.VoterRequest{Email: "member@example.com"}, http.StatusCreated, models.VoterAccepted},
		{"already on roster", models.VoterRequest{Email: "new@example.com"}, http.StatusConflict, ""},
		{"unknown field", models.VoterRequest{Email: "x@example.com", Field: map[string]string{"Course": "BSCS"}}, http.StatusBadRequest, ""},
		{"invalid email", models.VoterRequest{Email: "nope"}, http.StatusBadRequest, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest(http.MethodPost, "/elections/council/voters", tc.body, nil)
			w := serve(handler.AddVoter, req, f.commissionerID, "slug", f.slug)
			testutil.AssertStatus(t, w, tc.wantStatus)

			if tc.wantStatus == http.StatusCreated {
				var v models.Voter
				testutil.AssertJSON(t, w, &v)
				assert.Equal(t, tc.wantState, v.Status)
				assert.Equal(t, strings.ToLower(tc.body.Email), v.Email)
				assert.Equal(t, tc.body.Field["Year"], v.Field["Year"])
			}
		})
	}
}

func TestListVoters_StatusFilter(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityVoter)
	handler := NewVoterHandler(f.db, f.cfg, &notify.Recorder{})
	testutil.CreateTestVoter(t, f.db, f.electionID, "a@example.com", models.VoterAdded)
	testutil.CreateTestVoter(t, f.db, f.electionID, "b@example.com", models.VoterInvited)
	testutil.CreateTestVoter(t, f.db, f.electionID, "c@example.com", models.VoterDeclined)

	testCases := []struct {
		query      string
		wantStatus int
		wantEmails []string
	}{
		{"", http.StatusOK, []string{"a@example.com", "b@example.com", "c@example.com"}},
		{"?status=added,invited", http.StatusOK, []string{"a@example.com", "b@example.com"}},
		{"?status=DECLINED", http.StatusOK, []string{"c@example.com"}},
		{"?status=VOTED", http.StatusBadRequest, nil},
	}

	for _, tc := range testCases {
		t.Run("filter"+tc.query, func(t *testing.T) {
			req := testutil.MakeRequest(http.MethodGet, "/elections/council/voters"+tc.query, nil, nil)
			w := serve(handler.ListVoters, req, f.commissionerID, "slug", f.slug)
			testutil.AssertStatus(t, w, tc.wantStatus)

			if tc.wantStatus == http.StatusOK {
				var voters []models.Voter
				testutil.AssertJSON(t, w, &voters)
				assert.ElementsMatch(t, tc.wantEmails, lo.Map(voters, func(v models.Voter, _ int) string { return v.Email }))
			}
		})
	}
}

func TestImportVoters(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityVoter)
	handler := NewVoterHandler(f.db, f.cfg, &notify.Recorder{})
	f.voterField(t, "Year")
	testutil.CreateTestVoter(t, f.db, f.electionID, "existing@example.com", models.VoterAdded)

	csv := "\ufeffEmail,year\n" +
		"alice@example.com,1\n" +
		"not-an-email,2\n" +
		"ALICE@example.com,3\n" +
		"existing@example.com,4\n" +
		",\n" +
		"bob@example.com,\n"

	req := testutil.MakeRequest(http.MethodPost, "/elections/council/voters/import", csv, map[string]string{"Content-Type": "text/csv"})
	w := serve(handler.ImportVoters, req, f.commissionerID, "slug", f.slug)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ImportVotersResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, 2, resp.Added)

	reasons := lo.Associate(resp.Skipped, func(s models.ImportSkip) (int, string) { return s.Row, s.Reason })
	assert.Equal(t, map[int]string{
		3: "invalid email",
		4: "duplicate email in file",
		5: "already on the roster",
	}, reasons)

	voters, err := handler.roster(req.Context(), f.db, f.electionID)
	require.NoError(t, err)
	alice, ok := lo.Find(voters, func(v models.Voter) bool { return v.Email == "alice@example.com" })
	require.True(t, ok)
	assert.Equal(t, "1", alice.Field["Year"])
	assert.Equal(t, models.VoterAdded, alice.Status)
}

func TestImportVoters_Multipart(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityVoter)
	handler := NewVoterHandler(f.db, f.cfg, &notify.Recorder{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "voters.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("email\nx@example.com\ny@example.com\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/elections/council/voters/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(handler.ImportVoters, req, f.commissionerID, "slug", f.slug)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ImportVotersResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, 2, resp.Added)
	assert.Empty(t, resp.Skipped)
}

func TestImportVoters_BadHeader(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityVoter)
	handler := NewVoterHandler(f.db, f.cfg, &notify.Recorder{})

	for _, csv := range []string{"", "name\nAna\n", "email,course\na@example.com,BSCS\n"} {
		req := testutil.MakeRequest(http.MethodPost, "/elections/council/voters/import", csv, map[string]string{"Content-Type": "text/csv"})
		w := serve(handler.ImportVoters, req, f.commissionerID, "slug", f.slug)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	}
}

func TestUpdateVoter(t *testing.T) {
	f := newFixture(t, "ongoing", models.PublicityVoter)
	handler := NewVoterHandler(f.db, f.cfg, &notify.Recorder{})
	president := testutil.CreateTestPosition(t, f.db, f.electionID, "President", 0, 1, 1)

	invited := testutil.CreateTestVoter(t, f.db, f.electionID, "typo@exmaple.com", models.VoterInvited)
	_, voted := f.voter(t, "voted@example.com", models.VoterAccepted)
	testutil.SubmitTestBallot(t, f.db, f.electionID, voted, map[string][]string{president: nil})
	f.account(t, "fixed@example.com", "Fixed")

	update := func(id, email string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest(http.MethodPut, "/elections/council/voters/"+id, models.VoterRequest{Email: email}, nil)
		return serve(handler.UpdateVoter, req, f.commissionerID, "slug", f.slug, "id", id)
	}

	// A corrected address restarts the lifecycle; this one has an account
	w := update(invited, "fixed@example.com")
	testutil.AssertStatus(t, w, http.StatusOK)
	var v models.Voter
	testutil.AssertJSON(t, w, &v)
	assert.Equal(t, models.VoterAccepted, v.Status)
	assert.Nil(t, v.InvitedAt)

	testutil.AssertStatus(t, update(voted, "other@example.com"), http.StatusConflict)
	testutil.AssertStatus(t, update(voted, "voted@example.com"), http.StatusOK)
	testutil.AssertStatus(t, update(invited, "voted@example.com"), http.StatusConflict)
	testutil.AssertStatus(t, update("missing", "x@example.com"), http.StatusNotFound)
}

func TestDeleteVoter(t *testing.T) {
	f := newFixture(t, "ongoing", models.PublicityVoter)
	handler := NewVoterHandler(f.db, f.cfg, &notify.Recorder{})
	president := testutil.CreateTestPosition(t, f.db, f.electionID, "President", 0, 1, 1)

	added := testutil.CreateTestVoter(t, f.db, f.electionID, "a@example.com", models.VoterAdded)
	voted := testutil.CreateTestVoter(t, f.db, f.electionID, "v@example.com", models.VoterAccepted)
	testutil.SubmitTestBallot(t, f.db, f.electionID, voted, map[string][]string{president: nil})

	del := func(id string) int {
		req := testutil.MakeRequest(http.MethodDelete, "/elections/council/voters/"+id, nil, nil)
		return serve(handler.DeleteVoter, req, f.commissionerID, "slug", f.slug, "id", id).Code
	}

	assert.Equal(t, http.StatusConflict, del(voted))
	assert.Equal(t, http.StatusNoContent, del(added))
	assert.Equal(t, http.StatusNotFound, del(added))
}

func TestInviteVoters(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityVoter)
	recorder := &notify.Recorder{}
	handler := NewVoterHandler(f.db, f.cfg, recorder)

	a := testutil.CreateTestVoter(t, f.db, f.electionID, "a@example.com", models.VoterAdded)
	b := testutil.CreateTestVoter(t, f.db, f.electionID, "b@example.com", models.VoterAdded)
	accepted := testutil.CreateTestVoter(t, f.db, f.electionID, "c@example.com", models.VoterAccepted)

	invite := func() *httptest.ResponseRecorder {
		req := testutil.MakeRequest(http.MethodPost, "/elections/council/voters/invite", nil, nil)
		return serve(handler.InviteVoters, req, f.commissionerID, "slug", f.slug)
	}

	w := invite()
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.InviteVotersResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, 2, resp.Invited)

	assert.Equal(t, models.VoterInvited, f.voterStatus(t, a))
	assert.Equal(t, models.VoterInvited, f.voterStatus(t, b))
	assert.Equal(t, models.VoterAccepted, f.voterStatus(t, accepted))

	sent := recorder.Sent()
	require.Len(t, sent, 2)
	for _, inv := range sent {
		token := auth.GenerateInvitationToken(inv.VoterID, inv.Email, f.cfg.InviteSalt)
		assert.Contains(t, inv.Link, "token="+token)
		assert.Equal(t, f.slug, inv.ElectionSlug)
	}

	// Nobody is left to invite
	w = invite()
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, 0, resp.Invited)
	assert.Len(t, recorder.Sent(), 2)
}

func TestInviteVoters_EndedElection(t *testing.T) {
	f := newFixture(t, "ended", models.PublicityVoter)
	recorder := &notify.Recorder{}
	handler := NewVoterHandler(f.db, f.cfg, recorder)
	testutil.CreateTestVoter(t, f.db, f.electionID, "a@example.com", models.VoterAdded)

	req := testutil.MakeRequest(http.MethodPost, "/elections/council/voters/invite", nil, nil)
	w := serve(handler.InviteVoters, req, f.commissionerID, "slug", f.slug)
	testutil.AssertStatus(t, w, http.StatusConflict)
	assert.Empty(t, recorder.Sent())
}

func TestAcceptInvitation(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityVoter)
	handler := NewVoterHandler(f.db, f.cfg, &notify.Recorder{})

	invitedAccount, invited := f.voter(t, "invited@example.com", models.VoterInvited)
	acceptedAccount, _ := f.voter(t, "accepted@example.com", models.VoterAccepted)
	stranger := f.account(t, "stranger@example.com", "Stranger")

	accept := func(accountID string) int {
		req := testutil.MakeRequest(http.MethodPost, "/elections/council/accept", nil, nil)
		return serve(handler.AcceptInvitation, req, accountID, "slug", f.slug).Code
	}

	assert.Equal(t, http.StatusOK, accept(invitedAccount))
	assert.Equal(t, models.VoterAccepted, f.voterStatus(t, invited))
	assert.Equal(t, http.StatusConflict, accept(acceptedAccount))
	assert.Equal(t, http.StatusNotFound, accept(stranger))
	assert.Equal(t, http.StatusUnauthorized, accept(""))
}

func TestDeclineInvitation(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityVoter)
	handler := NewVoterHandler(f.db, f.cfg, &notify.Recorder{})

	invited := testutil.CreateTestVoter(t, f.db, f.electionID, "invited@example.com", models.VoterInvited)
	accepted := testutil.CreateTestVoter(t, f.db, f.electionID, "accepted@example.com", models.VoterAccepted)

	decline := func(voterID, token string) int {
		req := testutil.MakeRequest(http.MethodPost, "/invitations/decline",
			models.DeclineInvitationRequest{VoterID: voterID, Token: token}, nil)
		return serve(handler.DeclineInvitation, req, "").Code
	}
	token := func(voterID, email string) string {
		return auth.GenerateInvitationToken(voterID, email, f.cfg.InviteSalt)
	}

	assert.Equal(t, http.StatusUnauthorized, decline(invited, token(accepted, "accepted@example.com")))
	assert.Equal(t, http.StatusUnauthorized, decline(invited, token(invited, "someone@example.com")))
	assert.Equal(t, http.StatusOK, decline(invited, token(invited, "invited@example.com")))
	assert.Equal(t, models.VoterDeclined, f.voterStatus(t, invited))
	assert.Equal(t, http.StatusConflict, decline(invited, token(invited, "invited@example.com")))
	assert.Equal(t, http.StatusConflict, decline(accepted, token(accepted, "accepted@example.com")))
	assert.Equal(t, http.StatusNotFound, decline("ghost", token("ghost", "ghost@example.com")))
}

func TestDeclineInvitation_ReaddressedVoter(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityVoter)
	recorder := &notify.Recorder{}
	handler := NewVoterHandler(f.db, f.cfg, recorder)

	voterID := testutil.CreateTestVoter(t, f.db, f.electionID, "old@example.com", models.VoterAdded)

	invite := func() {
		req := testutil.MakeRequest(http.MethodPost, "/elections/council/voters/invite", nil, nil)
		testutil.AssertStatus(t, serve(handler.InviteVoters, req, f.commissionerID, "slug", f.slug), http.StatusOK)
	}
	decline := func(token string) int {
		req := testutil.MakeRequest(http.MethodPost, "/invitations/decline",
			models.DeclineInvitationRequest{VoterID: voterID, Token: token}, nil)
		return serve(handler.DeclineInvitation, req, "").Code
	}
	linkToken := func(inv notify.Invitation) string {
		link, err := url.Parse(inv.Link)
		require.NoError(t, err)
		return link.Query().Get("token")
	}

	invite()

	req := testutil.MakeRequest(http.MethodPut, "/elections/council/voters/"+voterID,
		models.VoterRequest{Email: "new@example.com"}, nil)
	testutil.AssertStatus(t, serve(handler.UpdateVoter, req, f.commissionerID, "slug", f.slug, "id", voterID), http.StatusOK)
	assert.Equal(t, models.VoterAdded, f.voterStatus(t, voterID))

	invite()

	sent := recorder.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "old@example.com", sent[0].Email)
	assert.Equal(t, "new@example.com", sent[1].Email)
	assert.NotEqual(t, linkToken(sent[0]), linkToken(sent[1]))

	// The link mailed to the old address no longer speaks for the row
	assert.Equal(t, http.StatusUnauthorized, decline(linkToken(sent[0])))
	assert.Equal(t, models.VoterInvited, f.voterStatus(t, voterID))

	assert.Equal(t, http.StatusOK, decline(linkToken(sent[1])))
	assert.Equal(t, models.VoterDeclined, f.voterStatus(t, voterID))
}
