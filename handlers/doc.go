// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

/*
Package handlers contains HTTP request handlers for the eboto API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - AccountHandler: Registration, sign in and the current account
  - ElectionHandler: Election lifecycle, listings and the public preview
  - CommissionerHandler: Who runs an election
  - PartylistHandler, PositionHandler, CandidateHandler: Ballot structure
  - VoterFieldHandler, VoterHandler: The roster and invitations
  - VotingHandler: Ballot retrieval and casting
  - ResultsHandler: Realtime tally, websocket stream and roster statistics
  - MessageHandler: Voter-commissioner conversations

Handlers are created via constructor functions that accept *sql.DB and Config:

	electionHandler := handlers.NewElectionHandler(db, cfg)

VoterHandler also takes a notify.Notifier for invitations and
ResultsHandler a realtime.Hub fed by TallyLoader.

# Access

Elections are addressed by slug. Publicity decides who may read them:

	PRIVATE → commissioners only
	VOTER   → commissioners and rostered voters
	PUBLIC  → anyone

Hidden elections answer 404. Positions, partylists and candidates are
frozen once the election starts.

# Voter Lifecycle

Roster rows move through ADDED → INVITED → ACCEPTED, with DECLINED as a
detour from INVITED:

	POST /elections/{slug}/voters/invite → InviteVoters (ADDED → INVITED)
	POST /elections/{slug}/accept        → AcceptInvitation
	POST /invitations/decline            → DeclineInvitation (token based)

Registering an account accepts every pending row for its email.

# Voting

	GET  /elections/{slug}/ballot  → GetBallot
	POST /elections/{slug}/vote    → CastVote (once per voter)
	GET  /elections/{slug}/my-vote → MyVote

Only ACCEPTED voters vote, and only while the election is ONGOING.
*/
package handlers
