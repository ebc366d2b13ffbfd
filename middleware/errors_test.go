// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bricesuazo/eboto-sub002/models"
)

func TestWriteError(t *testing.T) {
	testCases := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"not found", NotFound("Election not found"), http.StatusNotFound, "Election not found"},
		{"conflict", Conflict("Slug is already taken"), http.StatusConflict, "Slug is already taken"},
		{"forbidden", Forbidden("Commissioners only"), http.StatusForbidden, "Commissioners only"},
		{"unauthorized", Unauthorized("Sign in required"), http.StatusUnauthorized, "Sign in required"},
		{"bad request", BadRequest("name is required"), http.StatusBadRequest, "name is required"},
		{"wrapped", fmt.Errorf("loading: %w", NotFound("Voter not found")), http.StatusNotFound, "Voter not found"},
		{"plain error hidden", errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/elections/x", nil)
			w := httptest.NewRecorder()

			WriteError(w, req, tc.err)

			assert.Equal(t, tc.wantStatus, w.Code)
			var resp models.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tc.wantMessage, resp.Message)
		})
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	err := NewHTTPError(http.StatusTeapot, "short and stout")
	assert.Equal(t, "short and stout", err.Error())
	assert.Equal(t, http.StatusTeapot, err.Status)
}
