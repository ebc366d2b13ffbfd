// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package election

import (
	"errors"
	"time"

	"github.com/bricesuazo/eboto-sub002/models"
)

var (
	ErrEndBeforeStart = errors.New("end_date must be after start_date")
	ErrVotingHours    = errors.New("voting_hour_start must be before voting_hour_end, within 0-24")
)

// ValidateWindow checks the date range and the daily voting hours
func ValidateWindow(start, end time.Time, hourStart, hourEnd int) error {
	if !end.After(start) {
		return ErrEndBeforeStart
	}
	if hourStart < 0 || hourEnd > 24 || hourStart >= hourEnd {
		return ErrVotingHours
	}
	return nil
}

// Status derives the lifecycle status of e at now. Voting hours are
// evaluated in loc.
func Status(e models.Election, now time.Time, loc *time.Location) string {
	if now.Before(e.StartDate) {
		return models.StatusUpcoming
	}
	if !now.Before(e.EndDate) {
		return models.StatusEnded
	}
	if loc == nil {
		loc = time.UTC
	}
	hour := now.In(loc).Hour()
	if hour < e.VotingHourStart || hour >= e.VotingHourEnd {
		return models.StatusPaused
	}
	return models.StatusOngoing
}

// HasStarted reports whether the structure of e is locked
func HasStarted(e models.Election, now time.Time) bool {
	return !now.Before(e.StartDate)
}
