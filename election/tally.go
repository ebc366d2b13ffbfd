// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package election

import (
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/bricesuazo/eboto-sub002/models"
)

// VoteRecord is one stored vote row. CandidateID is empty for an
// abstention.
type VoteRecord struct {
	BallotID    string
	PositionID  string
	CandidateID string
}

// FullName renders a candidate the way ballots and results show it
func FullName(c models.Candidate) string {
	return strings.Join(lo.Compact([]string{c.FirstName, c.MiddleName, c.LastName}), " ")
}

// ComputeTally aggregates votes per position. A voter abstained on a
// position when their ballot holds no candidate vote for it, whether or not
// an explicit abstention row was stored.
func ComputeTally(electionID string, positions []models.Position, candidates []models.Candidate,
	votes []VoteRecord, votedCount, totalVoters int, now time.Time) models.Tally {

	candidatesByPosition := lo.GroupBy(candidates, func(c models.Candidate) string {
		return c.PositionID
	})

	counts := lo.CountValuesBy(
		lo.Filter(votes, func(v VoteRecord, _ int) bool { return v.CandidateID != "" }),
		func(v VoteRecord) string { return v.CandidateID },
	)

	// ballots with at least one candidate vote, per position
	supporters := make(map[string]map[string]struct{}, len(positions))
	for _, v := range votes {
		if v.CandidateID == "" {
			continue
		}
		if supporters[v.PositionID] == nil {
			supporters[v.PositionID] = make(map[string]struct{})
		}
		supporters[v.PositionID][v.BallotID] = struct{}{}
	}

	result := models.Tally{
		ElectionID:  electionID,
		Positions:   make([]models.PositionTally, 0, len(positions)),
		TotalVoters: totalVoters,
		VotedCount:  votedCount,
		ComputedAt:  now,
	}
	if totalVoters > 0 {
		result.Turnout = float64(votedCount) / float64(totalVoters)
	}

	ordered := make([]models.Position, len(positions))
	copy(ordered, positions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	for _, p := range ordered {
		entries := lo.Map(candidatesByPosition[p.ID], func(c models.Candidate, _ int) models.CandidateTally {
			return models.CandidateTally{
				CandidateID: c.ID,
				Name:        FullName(c),
				Partylist:   c.PartylistAcronym,
				Votes:       counts[c.ID],
			}
		})

		sort.Slice(entries, func(i, j int) bool {
			a, b := entries[i], entries[j]
			if a.Votes != b.Votes {
				return a.Votes > b.Votes
			}
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.CandidateID < b.CandidateID
		})

		abstain := votedCount - len(supporters[p.ID])
		if abstain < 0 {
			abstain = 0
		}

		result.Positions = append(result.Positions, models.PositionTally{
			PositionID:   p.ID,
			Name:         p.Name,
			Candidates:   entries,
			AbstainCount: abstain,
			TotalVoted:   votedCount,
		})
	}

	return result
}

// ComputeFieldStats counts roster size and turnout per voter-field value
func ComputeFieldStats(fields []models.VoterField, voters []models.Voter) []models.FieldStats {
	stats := make([]models.FieldStats, 0, len(fields))

	for _, f := range fields {
		grouped := lo.GroupBy(voters, func(v models.Voter) string {
			return v.Field[f.Name]
		})

		values := make([]models.FieldValueStats, 0, len(grouped))
		for value, group := range grouped {
			values = append(values, models.FieldValueStats{
				Value:      value,
				VoterCount: len(group),
				VotedCount: lo.CountBy(group, func(v models.Voter) bool { return v.Voted }),
			})
		}
		sort.Slice(values, func(i, j int) bool { return values[i].Value < values[j].Value })

		stats = append(stats, models.FieldStats{
			FieldID: f.ID,
			Name:    f.Name,
			Values:  values,
		})
	}

	return stats
}
