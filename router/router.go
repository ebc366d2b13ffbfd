// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/handlers"
	"github.com/bricesuazo/eboto-sub002/middleware"
	"github.com/bricesuazo/eboto-sub002/notify"
	"github.com/bricesuazo/eboto-sub002/realtime"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, hub *realtime.Hub, notifier notify.Notifier) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(db, cfg)
	electionHandler := handlers.NewElectionHandler(db, cfg)
	commissionerHandler := handlers.NewCommissionerHandler(db, cfg)
	partylistHandler := handlers.NewPartylistHandler(db, cfg)
	positionHandler := handlers.NewPositionHandler(db, cfg)
	candidateHandler := handlers.NewCandidateHandler(db, cfg)
	voterFieldHandler := handlers.NewVoterFieldHandler(db, cfg)
	voterHandler := handlers.NewVoterHandler(db, cfg, notifier)
	votingHandler := handlers.NewVotingHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg, hub)
	messageHandler := handlers.NewMessageHandler(db, cfg)

	authenticate := middleware.Authenticate(cfg.JWTSecret)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithLogging(authenticate(h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Accounts
	handle("POST /auth/register", accountHandler.Register)
	handle("POST /auth/login", accountHandler.Login)
	handle("GET /auth/me", accountHandler.Me)

	// Elections
	handle("POST /elections", electionHandler.CreateElection)
	handle("GET /elections/mine", electionHandler.ListMine)
	handle("GET /elections/voting", electionHandler.ListVoting)
	handle("GET /elections/{slug}", electionHandler.GetElection)
	handle("PUT /elections/{slug}", electionHandler.UpdateElection)
	handle("DELETE /elections/{slug}", electionHandler.DeleteElection)
	handle("GET /elections/{slug}/preview", electionHandler.Preview)

	// Commissioners
	handle("GET /elections/{slug}/commissioners", commissionerHandler.ListCommissioners)
	handle("POST /elections/{slug}/commissioners", commissionerHandler.AddCommissioner)
	handle("DELETE /elections/{slug}/commissioners/{id}", commissionerHandler.RemoveCommissioner)

	// Ballot structure (frozen once the election starts)
	handle("GET /elections/{slug}/partylists", partylistHandler.ListPartylists)
	handle("POST /elections/{slug}/partylists", partylistHandler.CreatePartylist)
	handle("PUT /elections/{slug}/partylists/{id}", partylistHandler.UpdatePartylist)
	handle("DELETE /elections/{slug}/partylists/{id}", partylistHandler.DeletePartylist)

	handle("GET /elections/{slug}/positions", positionHandler.ListPositions)
	handle("POST /elections/{slug}/positions", positionHandler.CreatePosition)
	handle("POST /elections/{slug}/positions/reorder", positionHandler.ReorderPositions)
	handle("PUT /elections/{slug}/positions/{id}", positionHandler.UpdatePosition)
	handle("DELETE /elections/{slug}/positions/{id}", positionHandler.DeletePosition)

	handle("GET /elections/{slug}/candidates", candidateHandler.ListCandidates)
	handle("POST /elections/{slug}/candidates", candidateHandler.CreateCandidate)
	handle("GET /elections/{slug}/candidates/{candidate}", candidateHandler.GetCandidate)
	handle("PUT /elections/{slug}/candidates/{candidate}", candidateHandler.UpdateCandidate)
	handle("DELETE /elections/{slug}/candidates/{candidate}", candidateHandler.DeleteCandidate)

	// Roster
	handle("GET /elections/{slug}/voter-fields", voterFieldHandler.ListVoterFields)
	handle("POST /elections/{slug}/voter-fields", voterFieldHandler.CreateVoterField)
	handle("PUT /elections/{slug}/voter-fields/{id}", voterFieldHandler.UpdateVoterField)
	handle("DELETE /elections/{slug}/voter-fields/{id}", voterFieldHandler.DeleteVoterField)

	handle("GET /elections/{slug}/voters", voterHandler.ListVoters)
	handle("POST /elections/{slug}/voters", voterHandler.AddVoter)
	handle("POST /elections/{slug}/voters/import", voterHandler.ImportVoters)
	handle("POST /elections/{slug}/voters/invite", voterHandler.InviteVoters)
	handle("PUT /elections/{slug}/voters/{id}", voterHandler.UpdateVoter)
	handle("DELETE /elections/{slug}/voters/{id}", voterHandler.DeleteVoter)
	handle("POST /elections/{slug}/accept", voterHandler.AcceptInvitation)
	handle("POST /invitations/decline", voterHandler.DeclineInvitation)

	// Voting
	handle("GET /elections/{slug}/ballot", votingHandler.GetBallot)
	handle("POST /elections/{slug}/vote", votingHandler.CastVote)
	handle("GET /elections/{slug}/my-vote", votingHandler.MyVote)

	// Results
	handle("GET /elections/{slug}/realtime", resultsHandler.GetRealtime)
	handle("GET /elections/{slug}/realtime/ws", resultsHandler.StreamRealtime)
	handle("GET /elections/{slug}/stats", resultsHandler.GetStats)

	// Messaging
	handle("GET /elections/{slug}/rooms", messageHandler.ListRooms)
	handle("POST /elections/{slug}/rooms", messageHandler.CreateRoom)
	handle("GET /elections/{slug}/rooms/{room}/messages", messageHandler.ListMessages)
	handle("POST /elections/{slug}/rooms/{room}/messages", messageHandler.PostMessage)

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("eboto API v1"))
	})

	return mux
}
