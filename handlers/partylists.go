// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
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

type PartylistHandler struct {
	base
}

func NewPartylistHandler(conn *sql.DB, cfg cliparse.Config) *PartylistHandler {
	return &PartylistHandler{base{db: conn, cfg: cfg}}
}

// ListPartylists handles GET /elections/{slug}/partylists
func (h *PartylistHandler) ListPartylists(w http.ResponseWriter, r *http.Request) {
	e, _, err := h.visibleElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, election_id, name, acronym, description, is_independent
		FROM partylist
		WHERE election_id = $1
		ORDER BY is_independent DESC, name
	`, e.ID)
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to query partylists: %w", err))
		return
	}
	defer rows.Close()

	partylists := []models.Partylist{}
	for rows.Next() {
		var p models.Partylist
		if err := rows.Scan(&p.ID, &p.ElectionID, &p.Name, &p.Acronym, &p.Description, &p.IsIndependent); err != nil {
			middleware.WriteError(w, r, fmt.Errorf("failed to scan partylist: %w", err))
			return
		}
		partylists = append(partylists, p)
	}
	if err := rows.Err(); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, partylists)
}

// normalizePartylist trims the request and rejects the reserved
// Independent name and acronym
func normalizePartylist(req *models.PartylistRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Acronym = strings.ToUpper(strings.TrimSpace(req.Acronym))
	if req.Name == "" || req.Acronym == "" {
		return middleware.BadRequest("name and acronym are required")
	}
	if req.Acronym == models.IndependentAcronym || strings.EqualFold(req.Name, models.IndependentName) {
		return middleware.Conflict("Independent is reserved")
	}
	return nil
}

// CreatePartylist handles POST /elections/{slug}/partylists
func (h *PartylistHandler) CreatePartylist(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.editableElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.PartylistRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if err := normalizePartylist(&req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	p := models.Partylist{
		ID:          auth.NewID(),
		ElectionID:  e.ID,
		Name:        req.Name,
		Acronym:     req.Acronym,
		Description: req.Description,
	}
	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO partylist (id, election_id, name, acronym, description, is_independent, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
	`, p.ID, p.ElectionID, p.Name, p.Acronym, p.Description, h.now())
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Partylist name or acronym already exists")
		return
	}
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to insert partylist: %w", err))
		return
	}

	slog.Info("partylist created", "election_id", e.ID, "partylist_id", p.ID, "account_id", accountID)

	middleware.JSONResponse(w, http.StatusCreated, p)
}

func (h *PartylistHandler) partylist(ctx context.Context, q queryer, electionID, id string) (models.Partylist, error) {
	var p models.Partylist
	err := q.QueryRowContext(ctx, `
		SELECT id, election_id, name, acronym, description, is_independent
		FROM partylist WHERE id = $1 AND election_id = $2
	`, id, electionID).Scan(&p.ID, &p.ElectionID, &p.Name, &p.Acronym, &p.Description, &p.IsIndependent)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Partylist{}, middleware.NotFound("Partylist not found")
	}
	if err != nil {
		return models.Partylist{}, fmt.Errorf("failed to query partylist: %w", err)
	}
	if p.IsIndependent {
		return models.Partylist{}, middleware.Conflict("Independent cannot be changed")
	}
	return p, nil
}

// UpdatePartylist handles PUT /elections/{slug}/partylists/{id}
func (h *PartylistHandler) UpdatePartylist(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.editableElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	p, err := h.partylist(r.Context(), h.db, e.ID, r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.PartylistRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if err := normalizePartylist(&req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	p.Name, p.Acronym, p.Description = req.Name, req.Acronym, req.Description
	_, err = h.db.ExecContext(r.Context(), `
		UPDATE partylist SET name = $1, acronym = $2, description = $3 WHERE id = $4
	`, p.Name, p.Acronym, p.Description, p.ID)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Partylist name or acronym already exists")
		return
	}
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to update partylist: %w", err))
		return
	}

	slog.Info("partylist updated", "election_id", e.ID, "partylist_id", p.ID, "account_id", accountID)

	middleware.JSONResponse(w, http.StatusOK, p)
}

// DeletePartylist handles DELETE /elections/{slug}/partylists/{id}.
// Its candidates move to Independent.
func (h *PartylistHandler) DeletePartylist(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.editableElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var moved int64
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		p, err := h.partylist(r.Context(), tx, e.ID, r.PathValue("id"))
		if err != nil {
			return err
		}

		var independentID string
		if err := tx.QueryRowContext(r.Context(), `
			SELECT id FROM partylist WHERE election_id = $1 AND is_independent = TRUE
		`, e.ID).Scan(&independentID); err != nil {
			return fmt.Errorf("failed to find independent partylist: %w", err)
		}

		res, err := tx.ExecContext(r.Context(), `
			UPDATE candidate SET partylist_id = $1 WHERE partylist_id = $2
		`, independentID, p.ID)
		if err != nil {
			return fmt.Errorf("failed to reassign candidates: %w", err)
		}
		moved, _ = res.RowsAffected()

		if _, err := tx.ExecContext(r.Context(), `DELETE FROM partylist WHERE id = $1`, p.ID); err != nil {
			return fmt.Errorf("failed to delete partylist: %w", err)
		}
		return nil
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("partylist deleted", "election_id", e.ID, "partylist_id", r.PathValue("id"),
		"candidates_moved", moved, "account_id", accountID)

	w.WriteHeader(http.StatusNoContent)
}
