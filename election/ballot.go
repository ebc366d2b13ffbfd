// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package election

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/bricesuazo/eboto-sub002/models"
)

// BallotError describes why a submitted ballot was rejected
type BallotError struct {
	PositionID string
	Reason     string
}

func (e *BallotError) Error() string {
	if e.PositionID == "" {
		return e.Reason
	}
	return fmt.Sprintf("position %s: %s", e.PositionID, e.Reason)
}

// ValidateBallot checks a submission against the election's positions.
// candidates maps a position ID to the IDs of its candidates. The returned
// votes follow position order with candidate IDs deduplicated.
func ValidateBallot(positions []models.Position, candidates map[string][]string, votes []models.PositionVote) ([]models.PositionVote, error) {
	if len(positions) == 0 {
		return nil, &BallotError{Reason: "election has no positions"}
	}

	byPosition := make(map[string]models.PositionVote, len(votes))
	for _, v := range votes {
		if _, seen := byPosition[v.PositionID]; seen {
			return nil, &BallotError{PositionID: v.PositionID, Reason: "position appears more than once"}
		}
		byPosition[v.PositionID] = v
	}

	known := lo.Associate(positions, func(p models.Position) (string, struct{}) {
		return p.ID, struct{}{}
	})
	for id := range byPosition {
		if _, ok := known[id]; !ok {
			return nil, &BallotError{PositionID: id, Reason: "position does not belong to this election"}
		}
	}

	normalized := make([]models.PositionVote, 0, len(positions))
	for _, p := range positions {
		v, ok := byPosition[p.ID]
		if !ok {
			return nil, &BallotError{PositionID: p.ID, Reason: "missing vote for position " + p.Name}
		}

		if v.Abstain {
			if len(v.CandidateIDs) > 0 {
				return nil, &BallotError{PositionID: p.ID, Reason: "abstain cannot be combined with candidates"}
			}
			normalized = append(normalized, models.PositionVote{PositionID: p.ID, Abstain: true, CandidateIDs: []string{}})
			continue
		}

		if len(lo.Uniq(v.CandidateIDs)) != len(v.CandidateIDs) {
			return nil, &BallotError{PositionID: p.ID, Reason: "candidate selected more than once"}
		}

		count := len(v.CandidateIDs)
		if count == 0 {
			return nil, &BallotError{PositionID: p.ID, Reason: "select at least one candidate or abstain"}
		}
		if count < p.Min {
			return nil, &BallotError{PositionID: p.ID, Reason: fmt.Sprintf("select at least %d candidates", p.Min)}
		}
		if count > p.Max {
			return nil, &BallotError{PositionID: p.ID, Reason: fmt.Sprintf("select at most %d candidates", p.Max)}
		}

		for _, id := range v.CandidateIDs {
			if !lo.Contains(candidates[p.ID], id) {
				return nil, &BallotError{PositionID: p.ID, Reason: "candidate " + id + " is not running for this position"}
			}
		}

		normalized = append(normalized, models.PositionVote{PositionID: p.ID, CandidateIDs: v.CandidateIDs})
	}

	return normalized, nil
}
