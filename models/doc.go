// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON, validated through struct tags:

  - RegisterRequest, LoginRequest
  - CreateElectionRequest, UpdateElectionRequest (pointer fields, partial)
  - PartylistRequest, PositionRequest, CandidateRequest
  - VoterFieldRequest, VoterRequest, DeclineInvitationRequest
  - CastVoteRequest: one PositionVote per position
  - CreateRoomRequest, PostMessageRequest

# Domain Types

  - Account, Election, Commissioner
  - Partylist, Position, Candidate, Platform
  - VoterField, Voter (one roster row, any status)
  - Ballot, MyVote
  - Tally, PositionTally, CandidateTally, FieldStats
  - ChatRoom, ChatMessage

# Constants

Publicity:

	PublicityPrivate = "PRIVATE"
	PublicityVoter   = "VOTER"
	PublicityPublic  = "PUBLIC"

Election status, always derived from dates and voting hours:

	StatusUpcoming, StatusOngoing, StatusPaused, StatusEnded

Voter status:

	VoterAdded, VoterInvited, VoterAccepted, VoterDeclined
*/
package models
