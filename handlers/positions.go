// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"github.com/bricesuazo/eboto-sub002/auth"
	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/middleware"
	"github.com/bricesuazo/eboto-sub002/models"
)

type PositionHandler struct {
	base
}

func NewPositionHandler(conn *sql.DB, cfg cliparse.Config) *PositionHandler {
	return &PositionHandler{base{db: conn, cfg: cfg}}
}

// positions lists the positions of an election in ballot order
func (b base) positions(ctx context.Context, q queryer, electionID string) ([]models.Position, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, election_id, name, description, sort_order, min_votes, max_votes
		FROM position
		WHERE election_id = $1
		ORDER BY sort_order, created_at
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := []models.Position{}
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.ElectionID, &p.Name, &p.Description, &p.Order, &p.Min, &p.Max); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func checkVoteLimits(req models.PositionRequest) error {
	if req.Min > req.Max {
		return middleware.BadRequest("min cannot be greater than max")
	}
	return nil
}

// ListPositions handles GET /elections/{slug}/positions
func (h *PositionHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	e, _, err := h.visibleElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	positions, err := h.positions(r.Context(), h.db, e.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, positions)
}

// CreatePosition handles POST /elections/{slug}/positions. New positions
// go to the end of the ballot.
func (h *PositionHandler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.editableElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.PositionRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if err := checkVoteLimits(req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	p := models.Position{
		ID:          auth.NewID(),
		ElectionID:  e.ID,
		Name:        req.Name,
		Description: req.Description,
		Min:         req.Min,
		Max:         req.Max,
	}
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(r.Context(), `
			SELECT COALESCE(MAX(sort_order) + 1, 0) FROM position WHERE election_id = $1
		`, e.ID).Scan(&p.Order); err != nil {
			return fmt.Errorf("failed to find next position order: %w", err)
		}

		if _, err := tx.ExecContext(r.Context(), `
			INSERT INTO position (id, election_id, name, description, sort_order, min_votes, max_votes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, p.ID, p.ElectionID, p.Name, p.Description, p.Order, p.Min, p.Max, h.now()); err != nil {
			return fmt.Errorf("failed to insert position: %w", err)
		}
		return nil
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("position created", "election_id", e.ID, "position_id", p.ID, "account_id", accountID)

	middleware.JSONResponse(w, http.StatusCreated, p)
}

// UpdatePosition handles PUT /elections/{slug}/positions/{id}
func (h *PositionHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.editableElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.PositionRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if err := checkVoteLimits(req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	id := r.PathValue("id")
	res, err := h.db.ExecContext(r.Context(), `
		UPDATE position SET name = $1, description = $2, min_votes = $3, max_votes = $4
		WHERE id = $5 AND election_id = $6
	`, req.Name, req.Description, req.Min, req.Max, id, e.ID)
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to update position: %w", err))
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Position not found")
		return
	}

	positions, err := h.positions(r.Context(), h.db, e.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	p, _ := lo.Find(positions, func(p models.Position) bool { return p.ID == id })

	slog.Info("position updated", "election_id", e.ID, "position_id", id, "account_id", accountID)

	middleware.JSONResponse(w, http.StatusOK, p)
}

// DeletePosition handles DELETE /elections/{slug}/positions/{id}. Its
// candidates go with it.
func (h *PositionHandler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.editableElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	id := r.PathValue("id")
	res, err := h.db.ExecContext(r.Context(), `
		DELETE FROM position WHERE id = $1 AND election_id = $2
	`, id, e.ID)
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to delete position: %w", err))
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Position not found")
		return
	}

	slog.Info("position deleted", "election_id", e.ID, "position_id", id, "account_id", accountID)

	w.WriteHeader(http.StatusNoContent)
}

// ReorderPositions handles POST /elections/{slug}/positions/reorder. The
// ids must be exactly the election's positions.
func (h *PositionHandler) ReorderPositions(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.editableElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.ReorderPositionsRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var positions []models.Position
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		current, err := h.positions(r.Context(), tx, e.ID)
		if err != nil {
			return err
		}
		existing := lo.Map(current, func(p models.Position, _ int) string { return p.ID })
		missing, unknown := lo.Difference(existing, req.PositionIDs)
		if len(missing) > 0 || len(unknown) > 0 || len(lo.Uniq(req.PositionIDs)) != len(req.PositionIDs) {
			return middleware.BadRequest("position_ids must list every position of the election exactly once")
		}

		for i, id := range req.PositionIDs {
			if _, err := tx.ExecContext(r.Context(), `
				UPDATE position SET sort_order = $1 WHERE id = $2
			`, i, id); err != nil {
				return fmt.Errorf("failed to reorder position: %w", err)
			}
		}

		positions, err = h.positions(r.Context(), tx, e.ID)
		return err
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("positions reordered", "election_id", e.ID, "count", len(positions), "account_id", accountID)

	middleware.JSONResponse(w, http.StatusOK, positions)
}
