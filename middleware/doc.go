// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs one line per answered request (method, path, status, duration_ms),
at error level for 5xx. The wrapper still lets the realtime stream hijack
the connection.

# CORS Middleware

Only the web client at the configured base URL may call the API from a
browser:

	server := http.Server{
		Handler: middleware.CORS(cfg.BaseURL)(mux),
	}

Its preflights get methods GET, POST, PUT, DELETE, OPTIONS and headers
Content-Type and Authorization. Sessions travel as bearer tokens, so no
credentials header is sent. The websocket upgrader applies the same rule
through OriginAllowed.

# Sessions

Resolve the bearer token into an account ID:

	mux.HandleFunc("GET /auth/me", middleware.Authenticate(secret)(handler))

Handlers read it with AccountID, or RequireAccount when signing in is
mandatory.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse and validate JSON request bodies:

	var req models.CreateElectionRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

# Errors

Shared lookups return *HTTPError values (NotFound, Conflict, ...).
WriteError answers them with their status; any other error is logged and
answered 500. ErrorResponse is the same envelope for a status and message
known at the call site.

# Client IP Extraction

Get the original client IP (first X-Forwarded-For hop, X-Real-IP, then the
peer address, each normalized):

	ip := middleware.GetClientIP(r)

Ballots store a salted hash of it.
*/
package middleware
