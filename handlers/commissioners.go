// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bricesuazo/eboto-sub002/auth"
	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/db"
	"github.com/bricesuazo/eboto-sub002/middleware"
	"github.com/bricesuazo/eboto-sub002/models"
)

type CommissionerHandler struct {
	base
}

func NewCommissionerHandler(conn *sql.DB, cfg cliparse.Config) *CommissionerHandler {
	return &CommissionerHandler{base{db: conn, cfg: cfg}}
}

// ListCommissioners handles GET /elections/{slug}/commissioners
func (h *CommissionerHandler) ListCommissioners(w http.ResponseWriter, r *http.Request) {
	e, _, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT a.id, a.email, a.name, c.created_at
		FROM commissioner c
		JOIN account a ON a.id = c.account_id
		WHERE c.election_id = $1
		ORDER BY c.created_at, a.email
	`, e.ID)
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to query commissioners: %w", err))
		return
	}
	defer rows.Close()

	commissioners := []models.Commissioner{}
	for rows.Next() {
		var c models.Commissioner
		if err := rows.Scan(&c.AccountID, &c.Email, &c.Name, &c.CreatedAt); err != nil {
			middleware.WriteError(w, r, fmt.Errorf("failed to scan commissioner: %w", err))
			return
		}
		commissioners = append(commissioners, c)
	}
	if err := rows.Err(); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, commissioners)
}

// AddCommissioner handles POST /elections/{slug}/commissioners
func (h *CommissionerHandler) AddCommissioner(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.AddCommissionerRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	account, err := h.accountByEmail(r.Context(), h.db, auth.NormalizeEmail(req.Email))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	c := models.Commissioner{
		AccountID: account.ID,
		Email:     account.Email,
		Name:      account.Name,
		CreatedAt: h.now(),
	}
	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO commissioner (election_id, account_id, created_at)
		VALUES ($1, $2, $3)
	`, e.ID, c.AccountID, c.CreatedAt)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Already a commissioner")
		return
	}
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to insert commissioner: %w", err))
		return
	}

	slog.Info("commissioner added", "election_id", e.ID, "account_id", c.AccountID, "added_by", accountID)

	middleware.JSONResponse(w, http.StatusCreated, c)
}

// RemoveCommissioner handles DELETE /elections/{slug}/commissioners/{id}
func (h *CommissionerHandler) RemoveCommissioner(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	target := r.PathValue("id")

	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM commissioner WHERE election_id = $1
		`, e.ID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count commissioners: %w", err)
		}

		isComm, err := h.isCommissioner(r.Context(), tx, e.ID, target)
		if err != nil {
			return err
		}
		if !isComm {
			return middleware.NotFound("Commissioner not found")
		}
		if count <= 1 {
			return middleware.Conflict("An election needs at least one commissioner")
		}

		if _, err := tx.ExecContext(r.Context(), `
			DELETE FROM commissioner WHERE election_id = $1 AND account_id = $2
		`, e.ID, target); err != nil {
			return fmt.Errorf("failed to delete commissioner: %w", err)
		}
		return nil
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("commissioner removed", "election_id", e.ID, "account_id", target, "removed_by", accountID)

	w.WriteHeader(http.StatusNoContent)
}
