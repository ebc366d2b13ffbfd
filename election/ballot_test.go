// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package election

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bricesuazo/eboto-sub002/models"
)

func ballotFixture() ([]models.Position, map[string][]string) {
	positions := []models.Position{
		{ID: "pres", Name: "President", Order: 0, Min: 0, Max: 1},
		{ID: "sen", Name: "Senator", Order: 1, Min: 2, Max: 3},
	}
	candidates := map[string][]string{
		"pres": {"p1", "p2"},
		"sen":  {"s1", "s2", "s3", "s4"},
	}
	return positions, candidates
}

func TestValidateBallot(t *testing.T) {
	positions, candidates := ballotFixture()

	tests := []struct {
		name    string
		votes   []models.PositionVote
		wantErr string
	}{
		{
			name: "valid",
			votes: []models.PositionVote{
				{PositionID: "sen", CandidateIDs: []string{"s1", "s2"}},
				{PositionID: "pres", CandidateIDs: []string{"p1"}},
			},
		},
		{
			name: "abstain on both",
			votes: []models.PositionVote{
				{PositionID: "pres", Abstain: true},
				{PositionID: "sen", Abstain: true},
			},
		},
		{
			name: "missing position",
			votes: []models.PositionVote{
				{PositionID: "pres", CandidateIDs: []string{"p1"}},
			},
			wantErr: "missing vote for position Senator",
		},
		{
			name: "duplicate position",
			votes: []models.PositionVote{
				{PositionID: "pres", CandidateIDs: []string{"p1"}},
				{PositionID: "pres", CandidateIDs: []string{"p2"}},
				{PositionID: "sen", Abstain: true},
			},
			wantErr: "position appears more than once",
		},
		{
			name: "foreign position",
			votes: []models.PositionVote{
				{PositionID: "pres", CandidateIDs: []string{"p1"}},
				{PositionID: "sen", Abstain: true},
				{PositionID: "mayor", CandidateIDs: []string{"m1"}},
			},
			wantErr: "does not belong",
		},
		{
			name: "abstain with candidates",
			votes: []models.PositionVote{
				{PositionID: "pres", CandidateIDs: []string{"p1"}, Abstain: true},
				{PositionID: "sen", Abstain: true},
			},
			wantErr: "abstain cannot be combined",
		},
		{
			name: "empty selection",
			votes: []models.PositionVote{
				{PositionID: "pres"},
				{PositionID: "sen", Abstain: true},
			},
			wantErr: "select at least one candidate or abstain",
		},
		{
			name: "below min",
			votes: []models.PositionVote{
				{PositionID: "pres", CandidateIDs: []string{"p1"}},
				{PositionID: "sen", CandidateIDs: []string{"s1"}},
			},
			wantErr: "select at least 2 candidates",
		},
		{
			name: "above max",
			votes: []models.PositionVote{
				{PositionID: "pres", CandidateIDs: []string{"p1", "p2"}},
				{PositionID: "sen", Abstain: true},
			},
			wantErr: "select at most 1 candidates",
		},
		{
			name: "repeated candidate",
			votes: []models.PositionVote{
				{PositionID: "pres", CandidateIDs: []string{"p1"}},
				{PositionID: "sen", CandidateIDs: []string{"s1", "s1"}},
			},
			wantErr: "selected more than once",
		},
		{
			name: "candidate from another position",
			votes: []models.PositionVote{
				{PositionID: "pres", CandidateIDs: []string{"s1"}},
				{PositionID: "sen", Abstain: true},
			},
			wantErr: "not running for this position",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateBallot(positions, candidates, tt.votes)
			if tt.wantErr != "" {
				require.Error(t, err)
				var ballotErr *BallotError
				assert.ErrorAs(t, err, &ballotErr)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(positions))
			for i, p := range positions {
				assert.Equal(t, p.ID, got[i].PositionID, "normalized votes follow position order")
			}
		})
	}
}

func TestValidateBallot_NoPositions(t *testing.T) {
	_, err := ValidateBallot(nil, nil, []models.PositionVote{{PositionID: "x", Abstain: true}})
	assert.EqualError(t, err, "election has no positions")
}
