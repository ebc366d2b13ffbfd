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

	"github.com/dustin/go-humanize"

	"github.com/bricesuazo/eboto-sub002/auth"
	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/db"
	"github.com/bricesuazo/eboto-sub002/election"
	"github.com/bricesuazo/eboto-sub002/middleware"
	"github.com/bricesuazo/eboto-sub002/models"
)

type ElectionHandler struct {
	base
}

func NewElectionHandler(conn *sql.DB, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{base{db: conn, cfg: cfg}}
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.RequireAccount(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.CreateElectionRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	now := h.now()
	e := models.Election{
		ID:              auth.NewID(),
		Slug:            req.Slug,
		Name:            req.Name,
		Description:     req.Description,
		StartDate:       req.StartDate.UTC(),
		EndDate:         req.EndDate.UTC(),
		VotingHourStart: 0,
		VotingHourEnd:   24,
		Publicity:       req.Publicity,
		RealtimeVisible: req.RealtimeVisible,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.VotingHourStart != nil {
		e.VotingHourStart = *req.VotingHourStart
	}
	if req.VotingHourEnd != nil {
		e.VotingHourEnd = *req.VotingHourEnd
	}
	if e.Publicity == "" {
		e.Publicity = models.PublicityPrivate
	}

	if err := election.ValidateWindow(e.StartDate, e.EndDate, e.VotingHourStart, e.VotingHourEnd); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(r.Context(), `
			INSERT INTO election (id, slug, name, description, start_date, end_date,
				voting_hour_start, voting_hour_end, publicity, realtime_visible, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, e.ID, e.Slug, e.Name, e.Description, e.StartDate, e.EndDate,
			e.VotingHourStart, e.VotingHourEnd, e.Publicity, e.RealtimeVisible, e.CreatedAt, e.UpdatedAt)
		if db.IsUniqueViolation(err) {
			return middleware.Conflict("Slug is already taken")
		}
		if err != nil {
			return fmt.Errorf("failed to insert election: %w", err)
		}

		if _, err := tx.ExecContext(r.Context(), `
			INSERT INTO commissioner (election_id, account_id, created_at)
			VALUES ($1, $2, $3)
		`, e.ID, accountID, now); err != nil {
			return fmt.Errorf("failed to insert commissioner: %w", err)
		}

		if _, err := tx.ExecContext(r.Context(), `
			INSERT INTO partylist (id, election_id, name, acronym, description, is_independent, created_at)
			VALUES ($1, $2, $3, $4, '', TRUE, $5)
		`, auth.NewID(), e.ID, models.IndependentName, models.IndependentAcronym, now); err != nil {
			return fmt.Errorf("failed to insert independent partylist: %w", err)
		}
		return nil
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	e.Status = election.Status(e, now, h.cfg.Location)

	slog.Info("election created", "election_id", e.ID, "slug", e.Slug, "account_id", accountID)

	middleware.JSONResponse(w, http.StatusCreated, e)
}

// GetElection handles GET /elections/{slug}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	e, _, err := h.visibleElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, e)
}

// ListMine handles GET /elections/mine
func (h *ElectionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.RequireAccount(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	elections, err := h.listElections(r.Context(), `
		SELECT `+electionColumns+` FROM election
		WHERE deleted_at IS NULL
		  AND id IN (SELECT election_id FROM commissioner WHERE account_id = $1)
		ORDER BY start_date DESC, slug
	`, accountID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, elections)
}

// ListVoting handles GET /elections/voting
func (h *ElectionHandler) ListVoting(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.RequireAccount(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	elections, err := h.listElections(r.Context(), `
		SELECT `+electionColumns+` FROM election
		WHERE deleted_at IS NULL
		  AND id IN (
			SELECT v.election_id FROM voter v
			JOIN account a ON a.email = v.email
			WHERE a.id = $1 AND v.status <> $2
		  )
		ORDER BY start_date DESC, slug
	`, accountID, models.VoterDeclined)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, elections)
}

func (h *ElectionHandler) listElections(ctx context.Context, query string, args ...any) ([]models.Election, error) {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query elections: %w", err)
	}
	defer rows.Close()

	now := h.now()
	elections := []models.Election{}
	for rows.Next() {
		var e models.Election
		if err := scanElection(rows, &e); err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		e.Status = election.Status(e, now, h.cfg.Location)
		elections = append(elections, e)
	}
	return elections, rows.Err()
}

// UpdateElection handles PUT /elections/{slug}
func (h *ElectionHandler) UpdateElection(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.UpdateElectionRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	// Dates, hours and the slug are part of the locked structure; resending
	// the current values is not a change
	locked := (req.Slug != nil && *req.Slug != e.Slug) ||
		(req.StartDate != nil && !req.StartDate.Equal(e.StartDate)) ||
		(req.EndDate != nil && !req.EndDate.Equal(e.EndDate)) ||
		(req.VotingHourStart != nil && *req.VotingHourStart != e.VotingHourStart) ||
		(req.VotingHourEnd != nil && *req.VotingHourEnd != e.VotingHourEnd)
	if locked && election.HasStarted(e, h.now()) {
		middleware.ErrorResponse(w, http.StatusConflict, "Dates, voting hours and slug cannot change after the election starts")
		return
	}

	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Publicity != nil {
		e.Publicity = *req.Publicity
	}
	if req.RealtimeVisible != nil {
		e.RealtimeVisible = *req.RealtimeVisible
	}
	if req.Slug != nil {
		e.Slug = *req.Slug
	}
	if req.StartDate != nil {
		e.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		e.EndDate = req.EndDate.UTC()
	}
	if req.VotingHourStart != nil {
		e.VotingHourStart = *req.VotingHourStart
	}
	if req.VotingHourEnd != nil {
		e.VotingHourEnd = *req.VotingHourEnd
	}

	if err := election.ValidateWindow(e.StartDate, e.EndDate, e.VotingHourStart, e.VotingHourEnd); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	e.UpdatedAt = h.now()
	_, err = h.db.ExecContext(r.Context(), `
		UPDATE election
		SET slug = $1, name = $2, description = $3, start_date = $4, end_date = $5,
		    voting_hour_start = $6, voting_hour_end = $7, publicity = $8,
		    realtime_visible = $9, updated_at = $10
		WHERE id = $11
	`, e.Slug, e.Name, e.Description, e.StartDate, e.EndDate,
		e.VotingHourStart, e.VotingHourEnd, e.Publicity, e.RealtimeVisible, e.UpdatedAt, e.ID)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Slug is already taken")
		return
	}
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to update election: %w", err))
		return
	}

	e.Status = election.Status(e, e.UpdatedAt, h.cfg.Location)

	slog.Info("election updated", "election_id", e.ID, "account_id", accountID)

	middleware.JSONResponse(w, http.StatusOK, e)
}

// DeleteElection handles DELETE /elections/{slug}. The row is kept so the
// slug stays taken.
func (h *ElectionHandler) DeleteElection(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	now := h.now()
	if _, err := h.db.ExecContext(r.Context(), `
		UPDATE election SET deleted_at = $1, updated_at = $1 WHERE id = $2
	`, now, e.ID); err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to delete election: %w", err))
		return
	}

	slog.Info("election deleted", "election_id", e.ID, "account_id", accountID)

	w.WriteHeader(http.StatusNoContent)
}

// Preview handles GET /elections/{slug}/preview
func (h *ElectionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	e, _, err := h.visibleElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	preview := models.ElectionPreviewResponse{
		Name:   e.Name,
		Slug:   e.Slug,
		Status: e.Status,
	}

	err = h.db.QueryRowContext(r.Context(), `
		SELECT
			(SELECT COUNT(*) FROM position WHERE election_id = $1),
			(SELECT COUNT(*) FROM candidate WHERE election_id = $1),
			(SELECT COUNT(*) FROM voter WHERE election_id = $1 AND status <> $2)
	`, e.ID, models.VoterDeclined).Scan(&preview.PositionCount, &preview.CandidateCount, &preview.VoterCount)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		middleware.WriteError(w, r, fmt.Errorf("failed to count election rows: %w", err))
		return
	}

	now := h.now()
	preview.StartsIn = humanize.RelTime(e.StartDate, now, "ago", "from now")
	preview.EndsIn = humanize.RelTime(e.EndDate, now, "ago", "from now")

	middleware.JSONResponse(w, http.StatusOK, preview)
}
