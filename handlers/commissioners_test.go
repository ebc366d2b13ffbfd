// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bricesuazo/eboto-sub002/models"
	"github.com/bricesuazo/eboto-sub002/testutil"
)

func TestAddCommissioner(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityPrivate)
	handler := NewCommissionerHandler(f.db, f.cfg)

	f.account(t, "colleague@example.com", "Colleague")
	stranger := f.account(t, "stranger@example.com", "Stranger")

	testCases := []struct {
		name       string
		caller     string
		email      string
		wantStatus int
	}{
		{"added", f.commissionerID, "Colleague@example.com", http.StatusCreated},
		{"already a commissioner", f.commissionerID, "colleague@example.com", http.StatusConflict},
		{"no such account", f.commissionerID, "ghost@example.com", http.StatusNotFound},
		{"invalid email", f.commissionerID, "ghost", http.StatusBadRequest},
		{"caller is not a commissioner", stranger, "stranger@example.com", http.StatusForbidden},
		{"anonymous", "", "colleague@example.com", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest(http.MethodPost, "/elections/council/commissioners",
				models.AddCommissionerRequest{Email: tc.email}, nil)
			w := serve(handler.AddCommissioner, req, tc.caller, "slug", f.slug)
			testutil.AssertStatus(t, w, tc.wantStatus)
		})
	}

	w := serve(handler.ListCommissioners, testutil.MakeRequest(http.MethodGet, "/elections/council/commissioners", nil, nil),
		f.commissionerID, "slug", f.slug)
	testutil.AssertStatus(t, w, http.StatusOK)

	var commissioners []models.Commissioner
	testutil.AssertJSON(t, w, &commissioners)
	emails := make([]string, 0, len(commissioners))
	for _, c := range commissioners {
		emails = append(emails, c.Email)
	}
	assert.ElementsMatch(t, []string{"commissioner@example.com", "colleague@example.com"}, emails)
}

func TestRemoveCommissioner(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityPrivate)
	handler := NewCommissionerHandler(f.db, f.cfg)

	remove := func(caller, target string) int {
		req := testutil.MakeRequest(http.MethodDelete, "/elections/council/commissioners/"+target, nil, nil)
		return serve(handler.RemoveCommissioner, req, caller, "slug", f.slug, "id", target).Code
	}

	// The only commissioner cannot leave
	assert.Equal(t, http.StatusConflict, remove(f.commissionerID, f.commissionerID))

	colleague := f.account(t, "colleague@example.com", "Colleague")
	assert.Equal(t, http.StatusNotFound, remove(f.commissionerID, colleague))

	_, err := f.db.Exec(`INSERT INTO commissioner (election_id, account_id, created_at) VALUES ($1, $2, $3)`,
		f.electionID, colleague, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to add commissioner: %v", err)
	}

	assert.Equal(t, http.StatusNoContent, remove(colleague, f.commissionerID))
	assert.Equal(t, http.StatusForbidden, remove(f.commissionerID, colleague))
	assert.Equal(t, http.StatusConflict, remove(colleague, colleague))
}
