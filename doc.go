// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

/*
Package main provides the entry point for the eboto API server.

eboto runs elections for organizations: commissioners set up positions,
partylists and candidates, manage a roster of voters, and watch a realtime
tally while voters cast one ballot each.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:eboto.db JWT_SECRET=... INVITE_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -jwt-secret ... -invite-salt ...

A .env file in the working directory is read when present.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite DSN or PostgreSQL connection string
  - JWT_SECRET (-jwt-secret): Session token signing secret
  - INVITE_SALT (-invite-salt): Secret for invitation tokens and IP hashes

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - BASE_URL (-base-url): Public URL of the web client, used in invitation links and as the only allowed CORS origin
  - TOKEN_TTL (-token-ttl): Session lifetime (default: 72h)
  - REALTIME_INTERVAL (-realtime-interval): Tally refresh (default: 5s)
  - TIMEZONE (-tz): Zone voting hours are read in (default: UTC)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers
  - election: Status, access, roster and tally rules without storage
  - realtime: Per-election tally loops fanned out to websocket clients
  - notify: Invitation delivery
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, sessions, validation, JSON helpers
  - models: Request/response and domain types
  - auth: Passwords, session tokens, invitation tokens
  - db: Connections, schema creation, constraint errors
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
