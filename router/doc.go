// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

/*
Package router defines HTTP routes for the eboto API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	hub := realtime.NewHub(handlers.TallyLoader(db, cfg), cfg.RealtimeInterval)
	mux := router.NewRouter(db, cfg, hub, notify.LogNotifier{})

Every API route is wrapped in request logging and session resolution.
Signed-in callers send "Authorization: Bearer <token>"; the websocket
stream also accepts ?access_token=.

# Endpoints

Health:

	GET /health

Accounts:

	POST /auth/register - Create an account (accepts pending invitations)
	POST /auth/login    - Exchange credentials for a token
	GET  /auth/me       - Current account

Elections:

	POST   /elections                - Create (caller becomes commissioner)
	GET    /elections/mine           - Elections the caller runs
	GET    /elections/voting         - Elections the caller may vote in
	GET    /elections/{slug}         - Election details
	PUT    /elections/{slug}         - Update
	DELETE /elections/{slug}         - Soft delete
	GET    /elections/{slug}/preview - Compact public card

Structure (commissioners, until the election starts):

	/elections/{slug}/commissioners[/{id}]
	/elections/{slug}/partylists[/{id}]
	/elections/{slug}/positions[/{id}], POST .../positions/reorder
	/elections/{slug}/candidates[/{candidate}]

Roster:

	/elections/{slug}/voter-fields[/{id}]
	/elections/{slug}/voters[/{id}], POST .../voters/import, POST .../voters/invite
	POST /elections/{slug}/accept
	POST /invitations/decline

Voting and results:

	GET  /elections/{slug}/ballot
	POST /elections/{slug}/vote
	GET  /elections/{slug}/my-vote
	GET  /elections/{slug}/realtime
	GET  /elections/{slug}/realtime/ws
	GET  /elections/{slug}/stats

Messaging:

	GET|POST /elections/{slug}/rooms
	GET|POST /elections/{slug}/rooms/{room}/messages
*/
package router
