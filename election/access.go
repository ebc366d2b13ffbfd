// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package election

import "github.com/bricesuazo/eboto-sub002/models"

// Viewer describes who is asking about an election
type Viewer struct {
	Commissioner bool
	// VoterStatus is the caller's roster status, "" when not rostered
	VoterStatus string
}

// IsRostered reports whether the viewer is on the roster and has not
// declined
func (v Viewer) IsRostered() bool {
	return v.VoterStatus != "" && v.VoterStatus != models.VoterDeclined
}

// CanView applies the publicity level of e
func CanView(e models.Election, v Viewer) bool {
	if v.Commissioner {
		return true
	}
	switch e.Publicity {
	case models.PublicityPublic:
		return true
	case models.PublicityVoter:
		return v.IsRostered()
	}
	return false
}

// CanViewResults reports whether the tally may be shown. Commissioners
// always see it; everybody else needs view access and either a finished
// election or realtime visibility.
func CanViewResults(e models.Election, v Viewer, status string) bool {
	if v.Commissioner {
		return true
	}
	if !CanView(e, v) {
		return false
	}
	return status == models.StatusEnded || e.RealtimeVisible
}
