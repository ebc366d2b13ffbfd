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

	"github.com/samber/lo"

	"github.com/bricesuazo/eboto-sub002/auth"
	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/db"
	"github.com/bricesuazo/eboto-sub002/middleware"
	"github.com/bricesuazo/eboto-sub002/models"
)

type CandidateHandler struct {
	base
}

func NewCandidateHandler(conn *sql.DB, cfg cliparse.Config) *CandidateHandler {
	return &CandidateHandler{base{db: conn, cfg: cfg}}
}

const candidateQuery = `
	SELECT c.id, c.election_id, c.position_id, c.partylist_id, p.acronym, c.slug,
	       c.first_name, c.middle_name, c.last_name, c.image_url
	FROM candidate c
	JOIN partylist p ON p.id = c.partylist_id
	JOIN position pos ON pos.id = c.position_id
	WHERE c.election_id = $1`

// candidates lists an election's candidates in ballot order, platforms
// included. A non-empty slug narrows the list to that candidate.
func (b base) candidates(ctx context.Context, q queryer, electionID, slug string) ([]models.Candidate, error) {
	query, args := candidateQuery, []any{electionID}
	if slug != "" {
		query += ` AND c.slug = $2`
		args = append(args, slug)
	}
	query += ` ORDER BY pos.sort_order, c.last_name, c.first_name, c.id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.PositionID, &c.PartylistID, &c.PartylistAcronym,
			&c.Slug, &c.FirstName, &c.MiddleName, &c.LastName, &c.ImageURL); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		c.Platforms = []models.Platform{}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	platforms, err := b.platforms(ctx, q, electionID)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if ps, ok := platforms[candidates[i].ID]; ok {
			candidates[i].Platforms = ps
		}
	}
	return candidates, nil
}

func (b base) platforms(ctx context.Context, q queryer, electionID string) (map[string][]models.Platform, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT cp.id, cp.candidate_id, cp.title, cp.description
		FROM candidate_platform cp
		JOIN candidate c ON c.id = cp.candidate_id
		WHERE c.election_id = $1
		ORDER BY cp.candidate_id, cp.sort_order
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query platforms: %w", err)
	}
	defer rows.Close()

	byCandidate := make(map[string][]models.Platform)
	for rows.Next() {
		var p models.Platform
		var candidateID string
		if err := rows.Scan(&p.ID, &candidateID, &p.Title, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan platform: %w", err)
		}
		byCandidate[candidateID] = append(byCandidate[candidateID], p)
	}
	return byCandidate, rows.Err()
}

// checkCandidateRefs makes sure the position and partylist belong to the
// election
func checkCandidateRefs(ctx context.Context, q queryer, electionID string, req models.CandidateRequest) error {
	var positionOK, partylistOK bool
	err := q.QueryRowContext(ctx, `
		SELECT
			EXISTS(SELECT 1 FROM position WHERE id = $1 AND election_id = $3),
			EXISTS(SELECT 1 FROM partylist WHERE id = $2 AND election_id = $3)
	`, req.PositionID, req.PartylistID, electionID).Scan(&positionOK, &partylistOK)
	if err != nil {
		return fmt.Errorf("failed to check candidate references: %w", err)
	}
	if !positionOK {
		return middleware.BadRequest("position_id does not belong to this election")
	}
	if !partylistOK {
		return middleware.BadRequest("partylist_id does not belong to this election")
	}
	return nil
}

func insertPlatforms(ctx context.Context, tx *sql.Tx, candidateID string, inputs []models.PlatformInput) ([]models.Platform, error) {
	platforms := make([]models.Platform, 0, len(inputs))
	for i, in := range inputs {
		p := models.Platform{ID: auth.NewID(), Title: in.Title, Description: in.Description}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO candidate_platform (id, candidate_id, title, description, sort_order)
			VALUES ($1, $2, $3, $4, $5)
		`, p.ID, candidateID, p.Title, p.Description, i); err != nil {
			return nil, fmt.Errorf("failed to insert platform: %w", err)
		}
		platforms = append(platforms, p)
	}
	return platforms, nil
}

// ListCandidates handles GET /elections/{slug}/candidates
func (h *CandidateHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	e, _, err := h.visibleElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	candidates, err := h.candidates(r.Context(), h.db, e.ID, "")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, candidates)
}

// GetCandidate handles GET /elections/{slug}/candidates/{candidate}
func (h *CandidateHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	e, _, err := h.visibleElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	candidates, err := h.candidates(r.Context(), h.db, e.ID, r.PathValue("candidate"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if len(candidates) == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, candidates[0])
}

// CreateCandidate handles POST /elections/{slug}/candidates
func (h *CandidateHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.editableElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.CandidateRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	c := models.Candidate{
		ID:          auth.NewID(),
		ElectionID:  e.ID,
		PositionID:  req.PositionID,
		PartylistID: req.PartylistID,
		Slug:        req.Slug,
		FirstName:   req.FirstName,
		MiddleName:  req.MiddleName,
		LastName:    req.LastName,
		ImageURL:    req.ImageURL,
	}
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		if err := checkCandidateRefs(r.Context(), tx, e.ID, req); err != nil {
			return err
		}

		_, err := tx.ExecContext(r.Context(), `
			INSERT INTO candidate (id, election_id, position_id, partylist_id, slug,
				first_name, middle_name, last_name, image_url, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, c.ID, c.ElectionID, c.PositionID, c.PartylistID, c.Slug,
			c.FirstName, c.MiddleName, c.LastName, c.ImageURL, h.now())
		if db.IsUniqueViolation(err) {
			return middleware.Conflict("Candidate slug already exists")
		}
		if err != nil {
			return fmt.Errorf("failed to insert candidate: %w", err)
		}

		c.Platforms, err = insertPlatforms(r.Context(), tx, c.ID, req.Platforms)
		if err != nil {
			return err
		}

		return tx.QueryRowContext(r.Context(), `
			SELECT acronym FROM partylist WHERE id = $1
		`, c.PartylistID).Scan(&c.PartylistAcronym)
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("candidate created", "election_id", e.ID, "candidate_id", c.ID, "account_id", accountID)

	middleware.JSONResponse(w, http.StatusCreated, c)
}

// UpdateCandidate handles PUT /elections/{slug}/candidates/{candidate}.
// Platforms are replaced wholesale.
func (h *CandidateHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.editableElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.CandidateRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var updated models.Candidate
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(r.Context(), `
			SELECT id FROM candidate WHERE election_id = $1 AND slug = $2
		`, e.ID, r.PathValue("candidate")).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return middleware.NotFound("Candidate not found")
		}
		if err != nil {
			return fmt.Errorf("failed to query candidate: %w", err)
		}

		if err := checkCandidateRefs(r.Context(), tx, e.ID, req); err != nil {
			return err
		}

		_, err = tx.ExecContext(r.Context(), `
			UPDATE candidate
			SET position_id = $1, partylist_id = $2, slug = $3, first_name = $4,
			    middle_name = $5, last_name = $6, image_url = $7
			WHERE id = $8
		`, req.PositionID, req.PartylistID, req.Slug, req.FirstName,
			req.MiddleName, req.LastName, req.ImageURL, id)
		if db.IsUniqueViolation(err) {
			return middleware.Conflict("Candidate slug already exists")
		}
		if err != nil {
			return fmt.Errorf("failed to update candidate: %w", err)
		}

		if _, err := tx.ExecContext(r.Context(), `
			DELETE FROM candidate_platform WHERE candidate_id = $1
		`, id); err != nil {
			return fmt.Errorf("failed to clear platforms: %w", err)
		}
		if _, err := insertPlatforms(r.Context(), tx, id, req.Platforms); err != nil {
			return err
		}

		candidates, err := h.candidates(r.Context(), tx, e.ID, req.Slug)
		if err != nil {
			return err
		}
		updated, _ = lo.Find(candidates, func(c models.Candidate) bool { return c.ID == id })
		return nil
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("candidate updated", "election_id", e.ID, "candidate_id", updated.ID, "account_id", accountID)

	middleware.JSONResponse(w, http.StatusOK, updated)
}

// DeleteCandidate handles DELETE /elections/{slug}/candidates/{candidate}
func (h *CandidateHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.editableElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slug := r.PathValue("candidate")
	res, err := h.db.ExecContext(r.Context(), `
		DELETE FROM candidate WHERE election_id = $1 AND slug = $2
	`, e.ID, slug)
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to delete candidate: %w", err))
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	slog.Info("candidate deleted", "election_id", e.ID, "candidate_slug", slug, "account_id", accountID)

	w.WriteHeader(http.StatusNoContent)
}
