// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

/*
Package election holds the storage-free rules of an election: its time
window, who may see it, the voter lifecycle, ballot validation and the
tally.

# Status

Status is derived from the dates and daily voting hours, never stored:

	UPCOMING → ONGOING ⇄ PAUSED → ENDED

PAUSED means between the dates but outside [voting_hour_start,
voting_hour_end) in the configured timezone.

# Voter Lifecycle

	ADDED ──invite──▶ INVITED ──accept──▶ ACCEPTED
	  │                  │                   ▲
	  └──register/accept─┼───────────────────┤
	                     └─decline─▶ DECLINED┘

Only ACCEPTED voters of an ONGOING election who have not voted yet are
eligible (CheckEligibility).

# Tally

ComputeTally groups vote rows by position and candidate. The abstain count
of a position is the number of ballots with no candidate vote for it.
ComputeFieldStats breaks roster size and turnout down by voter-field value.
*/
package election
