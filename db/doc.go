// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

/*
Package db opens the backing database and creates its schema.

# Backends

Open picks the driver from Config.DatabaseType:

  - postgres: github.com/lib/pq
  - sqlite: modernc.org/sqlite, foreign keys enabled, one connection

	conn, err := db.Open(ctx, cfg)

The schema and every query in the handlers use only SQL both backends
accept: $N placeholders, TEXT ids, timestamps written by the application in
UTC, ON CONFLICT clauses.

# Schema Creation

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Relationships

	account 1──* commissioner *──1 election
	election 1──* partylist 1──* candidate
	election 1──* position 1──* candidate 1──* candidate_platform
	election 1──* voter_field
	election 1──* voter 1──* voter_field_value
	voter 1──1 ballot 1──* vote
	election 1──* chat_room 1──* chat_message

Everything below an election cascades on delete. Elections themselves are
soft-deleted (deleted_at) so their slug stays reserved.

# Constraint Errors

IsUniqueViolation and IsForeignKeyViolation classify driver errors from
either backend so handlers can answer 409 instead of 500.
*/
package db
