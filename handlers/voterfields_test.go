// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bricesuazo/eboto-sub002/models"
	"github.com/bricesuazo/eboto-sub002/testutil"
)

func TestVoterFields(t *testing.T) {
	f := newFixture(t, "upcoming", models.PublicityPublic)
	handler := NewVoterFieldHandler(f.db, f.cfg)

	create := func(name string) (int, models.VoterField) {
		req := testutil.MakeRequest(http.MethodPost, "/elections/council/voter-fields", models.VoterFieldRequest{Name: name}, nil)
		w := serve(handler.CreateVoterField, req, f.commissionerID, "slug", f.slug)
		var field models.VoterField
		if w.Code == http.StatusCreated {
			testutil.AssertJSON(t, w, &field)
		}
		return w.Code, field
	}

	status, year := create("Year")
	assert.Equal(t, http.StatusCreated, status)
	status, _ = create("Year")
	assert.Equal(t, http.StatusConflict, status)
	status, _ = create("email")
	assert.Equal(t, http.StatusBadRequest, status)
	status, section := create("Section")
	assert.Equal(t, http.StatusCreated, status)

	update := func(id, name string) int {
		req := testutil.MakeRequest(http.MethodPut, "/elections/council/voter-fields/"+id, models.VoterFieldRequest{Name: name}, nil)
		return serve(handler.UpdateVoterField, req, f.commissionerID, "slug", f.slug, "id", id).Code
	}
	assert.Equal(t, http.StatusOK, update(year.ID, "Year Level"))
	assert.Equal(t, http.StatusConflict, update(section.ID, "Year Level"))
	assert.Equal(t, http.StatusNotFound, update("missing", "Course"))

	// Voters never see the roster schema
	voter, _ := f.voter(t, "voter@example.com", models.VoterAccepted)
	w := serve(handler.ListVoterFields, testutil.MakeRequest(http.MethodGet, "/elections/council/voter-fields", nil, nil), voter, "slug", f.slug)
	testutil.AssertStatus(t, w, http.StatusForbidden)

	req := testutil.MakeRequest(http.MethodDelete, "/elections/council/voter-fields/"+section.ID, nil, nil)
	w = serve(handler.DeleteVoterField, req, f.commissionerID, "slug", f.slug, "id", section.ID)
	testutil.AssertStatus(t, w, http.StatusNoContent)

	w = serve(handler.ListVoterFields, testutil.MakeRequest(http.MethodGet, "/elections/council/voter-fields", nil, nil), f.commissionerID, "slug", f.slug)
	testutil.AssertStatus(t, w, http.StatusOK)
	var fields []models.VoterField
	testutil.AssertJSON(t, w, &fields)
	assert.Len(t, fields, 1)
	assert.Equal(t, "Year Level", fields[0].Name)
}
