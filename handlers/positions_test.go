// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bricesuazo/eboto-sub002/models"
	"github.com/bricesuazo/eboto-sub002/testutil"
)

func TestCreatePosition(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityPublic)
	handler := NewPositionHandler(f.db, f.cfg)

	create := func(body models.PositionRequest) (int, models.Position) {
		req := testutil.MakeRequest(http.MethodPost, "/elections/council/positions", body, nil)
		w := serve(handler.CreatePosition, req, f.commissionerID, "slug", f.slug)
		var p models.Position
		if w.Code == http.StatusCreated {
			testutil.AssertJSON(t, w, &p)
		}
		return w.Code, p
	}

	status, president := create(models.PositionRequest{Name: "President", Min: 1, Max: 1})
	require.Equal(t, http.StatusCreated, status)
	status, senator := create(models.PositionRequest{Name: "Senator", Min: 0, Max: 12})
	require.Equal(t, http.StatusCreated, status)

	assert.Equal(t, 0, president.Order)
	assert.Equal(t, 1, senator.Order)

	status, _ = create(models.PositionRequest{Name: "Upside down", Min: 3, Max: 2})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = create(models.PositionRequest{Name: "No seats", Min: 0, Max: 0})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpdateAndDeletePosition(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityPublic)
	handler := NewPositionHandler(f.db, f.cfg)
	president := testutil.CreateTestPosition(t, f.db, f.electionID, "President", 0, 1, 1)

	req := testutil.MakeRequest(http.MethodPut, "/elections/council/positions/"+president,
		models.PositionRequest{Name: "Chair", Min: 1, Max: 2}, nil)
	w := serve(handler.UpdatePosition, req, f.commissionerID, "slug", f.slug, "id", president)
	testutil.AssertStatus(t, w, http.StatusOK)

	var p models.Position
	testutil.AssertJSON(t, w, &p)
	assert.Equal(t, "Chair", p.Name)
	assert.Equal(t, 2, p.Max)

	req = testutil.MakeRequest(http.MethodPut, "/elections/council/positions/missing",
		models.PositionRequest{Name: "Chair", Min: 1, Max: 2}, nil)
	w = serve(handler.UpdatePosition, req, f.commissionerID, "slug", f.slug, "id", "missing")
	testutil.AssertStatus(t, w, http.StatusNotFound)

	req = testutil.MakeRequest(http.MethodDelete, "/elections/council/positions/"+president, nil, nil)
	w = serve(handler.DeletePosition, req, f.commissionerID, "slug", f.slug, "id", president)
	testutil.AssertStatus(t, w, http.StatusNoContent)

	w = serve(handler.DeletePosition, req, f.commissionerID, "slug", f.slug, "id", president)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestReorderPositions(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityPublic)
	handler := NewPositionHandler(f.db, f.cfg)

	a := testutil.CreateTestPosition(t, f.db, f.electionID, "A", 0, 1, 1)
	b := testutil.CreateTestPosition(t, f.db, f.electionID, "B", 1, 1, 1)
	c := testutil.CreateTestPosition(t, f.db, f.electionID, "C", 2, 1, 1)

	testCases := []struct {
		name       string
		ids        []string
		wantStatus int
	}{
		{"missing one", []string{c, a}, http.StatusBadRequest},
		{"duplicate", []string{c, a, a}, http.StatusBadRequest},
		{"unknown id", []string{c, a, b, "other"}, http.StatusBadRequest},
		{"complete", []string{c, a, b}, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest(http.MethodPost, "/elections/council/positions/reorder",
				models.ReorderPositionsRequest{PositionIDs: tc.ids}, nil)
			w := serve(handler.ReorderPositions, req, f.commissionerID, "slug", f.slug)
			testutil.AssertStatus(t, w, tc.wantStatus)

			if tc.wantStatus == http.StatusOK {
				var positions []models.Position
				testutil.AssertJSON(t, w, &positions)
				assert.Equal(t, tc.ids, lo.Map(positions, func(p models.Position, _ int) string { return p.ID }))
			}
		})
	}
}

func TestPosition_StructureLock(t *testing.T) {
	f := newFixture(t, "ongoing", models.PublicityPublic)
	handler := NewPositionHandler(f.db, f.cfg)
	president := testutil.CreateTestPosition(t, f.db, f.electionID, "President", 0, 1, 1)

	req := testutil.MakeRequest(http.MethodPost, "/elections/council/positions",
		models.PositionRequest{Name: "Treasurer", Min: 1, Max: 1}, nil)
	w := serve(handler.CreatePosition, req, f.commissionerID, "slug", f.slug)
	testutil.AssertStatus(t, w, http.StatusConflict)

	req = testutil.MakeRequest(http.MethodDelete, "/elections/council/positions/"+president, nil, nil)
	w = serve(handler.DeletePosition, req, f.commissionerID, "slug", f.slug, "id", president)
	testutil.AssertStatus(t, w, http.StatusConflict)

	// Reading stays open
	w = serve(handler.ListPositions, testutil.MakeRequest(http.MethodGet, "/elections/council/positions", nil, nil), "", "slug", f.slug)
	testutil.AssertStatus(t, w, http.StatusOK)
}
