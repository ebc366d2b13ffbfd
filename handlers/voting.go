// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"github.com/bricesuazo/eboto-sub002/auth"
	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/db"
	"github.com/bricesuazo/eboto-sub002/election"
	"github.com/bricesuazo/eboto-sub002/middleware"
	"github.com/bricesuazo/eboto-sub002/models"
)

type VotingHandler struct {
	base
}

func NewVotingHandler(conn *sql.DB, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{base{db: conn, cfg: cfg}}
}

// eligibilityError maps an eligibility failure to its HTTP answer
func eligibilityError(err error) error {
	switch {
	case errors.Is(err, election.ErrNotOngoing):
		return middleware.Conflict(err.Error())
	case errors.Is(err, election.ErrAlreadyVoted):
		return middleware.Conflict(err.Error())
	case errors.Is(err, election.ErrNotEligible):
		return middleware.Forbidden(err.Error())
	}
	return err
}

// voterEntry resolves {slug} and the caller's roster row
func (h *VotingHandler) voterEntry(r *http.Request) (models.Election, rosterEntry, error) {
	accountID, err := middleware.RequireAccount(r)
	if err != nil {
		return models.Election{}, rosterEntry{}, err
	}
	e, err := h.election(r.Context(), h.db, r.PathValue("slug"))
	if err != nil {
		return models.Election{}, rosterEntry{}, err
	}
	entry, found, err := h.findRosterEntry(r.Context(), h.db, e.ID, accountID)
	if err != nil {
		return models.Election{}, rosterEntry{}, err
	}
	if !found {
		return models.Election{}, rosterEntry{}, middleware.Forbidden("You are not a voter of this election")
	}
	return e, entry, nil
}

// GetBallot handles GET /elections/{slug}/ballot
func (h *VotingHandler) GetBallot(w http.ResponseWriter, r *http.Request) {
	e, entry, err := h.voterEntry(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if !entry.Voted {
		if err := election.CheckEligibility(e.Status, entry.Status, false); err != nil {
			middleware.WriteError(w, r, eligibilityError(err))
			return
		}
	}

	positions, err := h.positions(r.Context(), h.db, e.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	candidates, err := h.candidates(r.Context(), h.db, e.ID, "")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	byPosition := lo.GroupBy(candidates, func(c models.Candidate) string { return c.PositionID })

	ballot := models.Ballot{
		Election: e,
		HasVoted: entry.Voted,
		Positions: lo.Map(positions, func(p models.Position, _ int) models.BallotPosition {
			cs := byPosition[p.ID]
			if cs == nil {
				cs = []models.Candidate{}
			}
			return models.BallotPosition{Position: p, Candidates: cs}
		}),
	}

	middleware.JSONResponse(w, http.StatusOK, ballot)
}

// CastVote handles POST /elections/{slug}/vote
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	e, entry, err := h.voterEntry(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if err := election.CheckEligibility(e.Status, entry.Status, entry.Voted); err != nil {
		middleware.WriteError(w, r, eligibilityError(err))
		return
	}

	var req models.CastVoteRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	positions, err := h.positions(r.Context(), h.db, e.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	candidates, err := h.candidates(r.Context(), h.db, e.ID, "")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	running := make(map[string][]string, len(positions))
	for _, c := range candidates {
		running[c.PositionID] = append(running[c.PositionID], c.ID)
	}

	votes, err := election.ValidateBallot(positions, running, req.Votes)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := models.CastVoteResponse{BallotID: auth.NewID(), CastAt: h.now()}
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(r.Context(), `
			INSERT INTO ballot (id, election_id, voter_id, cast_at, ip_hash, user_agent)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, resp.BallotID, e.ID, entry.VoterID, resp.CastAt,
			auth.HashIP(middleware.GetClientIP(r), h.cfg.InviteSalt), r.UserAgent())
		if db.IsUniqueViolation(err) {
			return middleware.Conflict(election.ErrAlreadyVoted.Error())
		}
		if err != nil {
			return fmt.Errorf("failed to insert ballot: %w", err)
		}

		for _, v := range votes {
			if v.Abstain {
				if _, err := tx.ExecContext(r.Context(), `
					INSERT INTO vote (id, ballot_id, position_id, candidate_id)
					VALUES ($1, $2, $3, NULL)
				`, auth.NewID(), resp.BallotID, v.PositionID); err != nil {
					return fmt.Errorf("failed to insert abstention: %w", err)
				}
				continue
			}
			for _, candidateID := range v.CandidateIDs {
				if _, err := tx.ExecContext(r.Context(), `
					INSERT INTO vote (id, ballot_id, position_id, candidate_id)
					VALUES ($1, $2, $3, $4)
				`, auth.NewID(), resp.BallotID, v.PositionID, candidateID); err != nil {
					return fmt.Errorf("failed to insert vote: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("ballot cast", "election_id", e.ID, "ballot_id", resp.BallotID, "voter_id", entry.VoterID)

	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// MyVote handles GET /elections/{slug}/my-vote
func (h *VotingHandler) MyVote(w http.ResponseWriter, r *http.Request) {
	e, entry, err := h.voterEntry(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var mine models.MyVote
	err = h.db.QueryRowContext(r.Context(), `
		SELECT id, cast_at FROM ballot WHERE voter_id = $1
	`, entry.VoterID).Scan(&mine.BallotID, &mine.CastAt)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "You have not voted yet")
		return
	}
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to query ballot: %w", err))
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT v.position_id, v.candidate_id
		FROM vote v
		JOIN position p ON p.id = v.position_id
		WHERE v.ballot_id = $1
		ORDER BY p.sort_order, v.candidate_id
	`, mine.BallotID)
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to query votes: %w", err))
		return
	}
	defer rows.Close()

	mine.Votes = []models.PositionVote{}
	index := make(map[string]int)
	for rows.Next() {
		var positionID string
		var candidateID sql.NullString
		if err := rows.Scan(&positionID, &candidateID); err != nil {
			middleware.WriteError(w, r, fmt.Errorf("failed to scan vote: %w", err))
			return
		}
		i, ok := index[positionID]
		if !ok {
			i = len(mine.Votes)
			index[positionID] = i
			mine.Votes = append(mine.Votes, models.PositionVote{PositionID: positionID, CandidateIDs: []string{}})
		}
		if candidateID.Valid {
			mine.Votes[i].CandidateIDs = append(mine.Votes[i].CandidateIDs, candidateID.String)
		} else {
			mine.Votes[i].Abstain = true
		}
	}
	if err := rows.Err(); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Debug("vote viewed", "election_id", e.ID, "voter_id", entry.VoterID)

	middleware.JSONResponse(w, http.StatusOK, mine)
}
