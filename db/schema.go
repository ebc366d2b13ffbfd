// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	// lib/pq accepts multi-statement Exec, modernc does too, but a failure
	// is easier to attribute one statement at a time.
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

const schema = `
-- Accounts
CREATE TABLE IF NOT EXISTS account (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    voting_hour_start INTEGER NOT NULL DEFAULT 0,
    voting_hour_end INTEGER NOT NULL DEFAULT 24,
    publicity TEXT NOT NULL DEFAULT 'PRIVATE' CHECK (publicity IN ('PRIVATE', 'VOTER', 'PUBLIC')),
    realtime_visible BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    deleted_at TIMESTAMP
);

-- Commissioners
CREATE TABLE IF NOT EXISTS commissioner (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    account_id TEXT NOT NULL REFERENCES account(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (election_id, account_id)
);

CREATE INDEX IF NOT EXISTS idx_commissioner_account_id ON commissioner(account_id);

-- Partylists
CREATE TABLE IF NOT EXISTS partylist (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    acronym TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    is_independent BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (election_id, name),
    UNIQUE (election_id, acronym)
);

-- Positions
CREATE TABLE IF NOT EXISTS position (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    sort_order INTEGER NOT NULL,
    min_votes INTEGER NOT NULL DEFAULT 0 CHECK (min_votes >= 0),
    max_votes INTEGER NOT NULL DEFAULT 1 CHECK (max_votes >= 1 AND max_votes >= min_votes),
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_position_election_id ON position(election_id);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    position_id TEXT NOT NULL REFERENCES position(id) ON DELETE CASCADE,
    partylist_id TEXT NOT NULL REFERENCES partylist(id),
    slug TEXT NOT NULL,
    first_name TEXT NOT NULL,
    middle_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    UNIQUE (election_id, slug)
);

CREATE INDEX IF NOT EXISTS idx_candidate_position_id ON candidate(position_id);
CREATE INDEX IF NOT EXISTS idx_candidate_partylist_id ON candidate(partylist_id);

CREATE TABLE IF NOT EXISTS candidate_platform (
    id TEXT PRIMARY KEY,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    sort_order INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_candidate_platform_candidate_id ON candidate_platform(candidate_id);

-- Voter fields
CREATE TABLE IF NOT EXISTS voter_field (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (election_id, name)
);

-- Voters (the whole roster, invited or accepted)
CREATE TABLE IF NOT EXISTS voter (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    email TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('ADDED', 'INVITED', 'ACCEPTED', 'DECLINED')),
    created_at TIMESTAMP NOT NULL,
    invited_at TIMESTAMP,
    accepted_at TIMESTAMP,
    UNIQUE (election_id, email)
);

CREATE INDEX IF NOT EXISTS idx_voter_email ON voter(email);

CREATE TABLE IF NOT EXISTS voter_field_value (
    voter_id TEXT NOT NULL REFERENCES voter(id) ON DELETE CASCADE,
    field_id TEXT NOT NULL REFERENCES voter_field(id) ON DELETE CASCADE,
    value TEXT NOT NULL,
    PRIMARY KEY (voter_id, field_id)
);

-- Ballots: one per voter
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL UNIQUE REFERENCES voter(id) ON DELETE CASCADE,
    cast_at TIMESTAMP NOT NULL,
    ip_hash TEXT,
    user_agent TEXT
);

CREATE INDEX IF NOT EXISTS idx_ballot_election_id ON ballot(election_id);

-- Votes: one row per selected candidate, candidate_id NULL for an abstention
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    ballot_id TEXT NOT NULL REFERENCES ballot(id) ON DELETE CASCADE,
    position_id TEXT NOT NULL REFERENCES position(id) ON DELETE CASCADE,
    candidate_id TEXT REFERENCES candidate(id) ON DELETE CASCADE,
    UNIQUE (ballot_id, position_id, candidate_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_position_id ON vote(position_id);

-- Commissioner-voter messaging
CREATE TABLE IF NOT EXISTS chat_room (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    voter_account_id TEXT NOT NULL REFERENCES account(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    last_message_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_room_election_id ON chat_room(election_id);

CREATE TABLE IF NOT EXISTS chat_message (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL REFERENCES chat_room(id) ON DELETE CASCADE,
    account_id TEXT NOT NULL REFERENCES account(id) ON DELETE CASCADE,
    body TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_message_room_id ON chat_message(room_id)
`
