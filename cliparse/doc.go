// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded first when present.

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - JWTSecret: session token signing secret (required)
  - InviteSalt: secret for invitation token HMAC (required)
  - BaseURL: public URL of the web client (invitation links, CORS origin)
  - TokenTTL: session lifetime (default: 72h)
  - RealtimeInterval: realtime tally refresh period (default: 5s)
  - Location: timezone that voting hours are evaluated in (default: UTC)

# Environment Variables

Flags fall back to environment variables:

	PORT              → -p
	DATABASE_URL      → -d
	DATABASE_TYPE     → -t
	BASE_URL          → -base-url
	JWT_SECRET        → -jwt-secret
	INVITE_SALT       → -invite-salt
	TOKEN_TTL         → -token-ttl
	REALTIME_INTERVAL → -realtime-interval
	TIMEZONE          → -tz

CLI flags take precedence over environment variables.
*/
package cliparse
