// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bricesuazo/eboto-sub002/auth"
	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/db"
	"github.com/bricesuazo/eboto-sub002/middleware"
	"github.com/bricesuazo/eboto-sub002/models"
)

type VoterFieldHandler struct {
	base
}

func NewVoterFieldHandler(conn *sql.DB, cfg cliparse.Config) *VoterFieldHandler {
	return &VoterFieldHandler{base{db: conn, cfg: cfg}}
}

func (b base) voterFields(ctx context.Context, q queryer, electionID string) ([]models.VoterField, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, election_id, name FROM voter_field
		WHERE election_id = $1
		ORDER BY created_at, name
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query voter fields: %w", err)
	}
	defer rows.Close()

	fields := []models.VoterField{}
	for rows.Next() {
		var f models.VoterField
		if err := rows.Scan(&f.ID, &f.ElectionID, &f.Name); err != nil {
			return nil, fmt.Errorf("failed to scan voter field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// ListVoterFields handles GET /elections/{slug}/voter-fields
func (h *VoterFieldHandler) ListVoterFields(w http.ResponseWriter, r *http.Request) {
	e, _, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	fields, err := h.voterFields(r.Context(), h.db, e.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, fields)
}

// CreateVoterField handles POST /elections/{slug}/voter-fields
func (h *VoterFieldHandler) CreateVoterField(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.VoterFieldRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	f := models.VoterField{ID: auth.NewID(), ElectionID: e.ID, Name: strings.TrimSpace(req.Name)}
	if f.Name == "" || strings.EqualFold(f.Name, "email") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name must be non-empty and not 'email'")
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO voter_field (id, election_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, f.ID, f.ElectionID, f.Name, h.now())
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Voter field already exists")
		return
	}
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to insert voter field: %w", err))
		return
	}

	slog.Info("voter field created", "election_id", e.ID, "field_id", f.ID, "account_id", accountID)

	middleware.JSONResponse(w, http.StatusCreated, f)
}

// UpdateVoterField handles PUT /elections/{slug}/voter-fields/{id}
func (h *VoterFieldHandler) UpdateVoterField(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.VoterFieldRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	f := models.VoterField{ID: r.PathValue("id"), ElectionID: e.ID, Name: strings.TrimSpace(req.Name)}
	if f.Name == "" || strings.EqualFold(f.Name, "email") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name must be non-empty and not 'email'")
		return
	}

	res, err := h.db.ExecContext(r.Context(), `
		UPDATE voter_field SET name = $1 WHERE id = $2 AND election_id = $3
	`, f.Name, f.ID, e.ID)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Voter field already exists")
		return
	}
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to update voter field: %w", err))
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Voter field not found")
		return
	}

	slog.Info("voter field updated", "election_id", e.ID, "field_id", f.ID, "account_id", accountID)

	middleware.JSONResponse(w, http.StatusOK, f)
}

// DeleteVoterField handles DELETE /elections/{slug}/voter-fields/{id}.
// Recorded values are removed with it.
func (h *VoterFieldHandler) DeleteVoterField(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	id := r.PathValue("id")
	res, err := h.db.ExecContext(r.Context(), `
		DELETE FROM voter_field WHERE id = $1 AND election_id = $2
	`, id, e.ID)
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to delete voter field: %w", err))
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Voter field not found")
		return
	}

	slog.Info("voter field deleted", "election_id", e.ID, "field_id", id, "account_id", accountID)

	w.WriteHeader(http.StatusNoContent)
}
