// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package election

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/bricesuazo/eboto-sub002/models"
)

var (
	ErrNotEligible   = errors.New("voter is not eligible to vote")
	ErrAlreadyVoted  = errors.New("voter has already voted")
	ErrNotOngoing    = errors.New("election is not accepting votes right now")
	ErrUnknownStatus = errors.New("unknown voter status")
)

// transitions lists the legal roster moves
var transitions = map[string][]string{
	models.VoterAdded:    {models.VoterInvited, models.VoterAccepted},
	models.VoterInvited:  {models.VoterAccepted, models.VoterDeclined},
	models.VoterDeclined: {models.VoterAccepted},
	models.VoterAccepted: {},
}

// InitialStatus is ACCEPTED when the email already belongs to an account,
// ADDED otherwise
func InitialStatus(accountExists bool) string {
	if accountExists {
		return models.VoterAccepted
	}
	return models.VoterAdded
}

// CanTransition reports whether a voter may move from one status to another
func CanTransition(from, to string) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	return lo.Contains(next, to)
}

// Transition validates a move and returns the new status
func Transition(from, to string) (string, error) {
	if _, ok := transitions[from]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if !CanTransition(from, to) {
		return "", fmt.Errorf("cannot move voter from %s to %s", from, to)
	}
	return to, nil
}

// CheckEligibility decides whether a rostered voter may cast a ballot now
func CheckEligibility(electionStatus, voterStatus string, hasVoted bool) error {
	if electionStatus != models.StatusOngoing {
		return ErrNotOngoing
	}
	if voterStatus != models.VoterAccepted {
		return ErrNotEligible
	}
	if hasVoted {
		return ErrAlreadyVoted
	}
	return nil
}

// FilterRoster keeps voters whose status is in statuses; no statuses keeps
// everybody
func FilterRoster(voters []models.Voter, statuses ...string) []models.Voter {
	if len(statuses) == 0 {
		return voters
	}
	return lo.Filter(voters, func(v models.Voter, _ int) bool {
		return lo.Contains(statuses, v.Status)
	})
}
