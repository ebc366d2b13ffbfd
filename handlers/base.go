// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/election"
	"github.com/bricesuazo/eboto-sub002/middleware"
	"github.com/bricesuazo/eboto-sub002/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// base carries what every handler needs and the election-scoped lookups
// they share
type base struct {
	db  *sql.DB
	cfg cliparse.Config
}

func (b base) now() time.Time {
	return time.Now().UTC()
}

const electionColumns = `
	id, slug, name, description, start_date, end_date, voting_hour_start,
	voting_hour_end, publicity, realtime_visible, created_at, updated_at, deleted_at`

func scanElection(row interface{ Scan(...any) error }, e *models.Election) error {
	var deletedAt sql.NullTime
	err := row.Scan(
		&e.ID, &e.Slug, &e.Name, &e.Description, &e.StartDate, &e.EndDate,
		&e.VotingHourStart, &e.VotingHourEnd, &e.Publicity, &e.RealtimeVisible,
		&e.CreatedAt, &e.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return err
	}
	if deletedAt.Valid {
		e.DeletedAt = &deletedAt.Time
	}
	return nil
}

// election loads a live election by slug and derives its status
func (b base) election(ctx context.Context, q queryer, slug string) (models.Election, error) {
	var e models.Election
	err := scanElection(q.QueryRowContext(ctx, `SELECT `+electionColumns+` FROM election WHERE slug = $1`, slug), &e)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && e.DeletedAt != nil) {
		return models.Election{}, middleware.NotFound("Election not found")
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to query election: %w", err)
	}
	e.Status = election.Status(e, b.now(), b.cfg.Location)
	return e, nil
}

func (b base) isCommissioner(ctx context.Context, q queryer, electionID, accountID string) (bool, error) {
	if accountID == "" {
		return false, nil
	}
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM commissioner
			WHERE election_id = $1 AND account_id = $2
		)
	`, electionID, accountID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check commissioner: %w", err)
	}
	return exists, nil
}

// rosterEntry is the caller's own roster row
type rosterEntry struct {
	VoterID string
	Email   string
	Status  string
	Voted   bool
}

// findRosterEntry finds the roster row matching the account's email.
// found is false when the account is not on the roster.
func (b base) findRosterEntry(ctx context.Context, q queryer, electionID, accountID string) (rosterEntry, bool, error) {
	if accountID == "" {
		return rosterEntry{}, false, nil
	}
	var entry rosterEntry
	err := q.QueryRowContext(ctx, `
		SELECT v.id, v.email, v.status,
		       EXISTS(SELECT 1 FROM ballot b WHERE b.voter_id = v.id)
		FROM voter v
		JOIN account a ON a.email = v.email
		WHERE v.election_id = $1 AND a.id = $2
	`, electionID, accountID).Scan(&entry.VoterID, &entry.Email, &entry.Status, &entry.Voted)
	if errors.Is(err, sql.ErrNoRows) {
		return rosterEntry{}, false, nil
	}
	if err != nil {
		return rosterEntry{}, false, fmt.Errorf("failed to query roster entry: %w", err)
	}
	return entry, true, nil
}

// viewer describes the caller's relation to e
func (b base) viewer(ctx context.Context, e models.Election, accountID string) (election.Viewer, error) {
	isComm, err := b.isCommissioner(ctx, b.db, e.ID, accountID)
	if err != nil {
		return election.Viewer{}, err
	}
	v := election.Viewer{Commissioner: isComm}
	entry, found, err := b.findRosterEntry(ctx, b.db, e.ID, accountID)
	if err != nil {
		return election.Viewer{}, err
	}
	if found {
		v.VoterStatus = entry.Status
	}
	return v, nil
}

// visibleElection resolves {slug} and applies the publicity rules. Hidden
// elections answer 404 so their existence does not leak.
func (b base) visibleElection(r *http.Request) (models.Election, election.Viewer, error) {
	e, err := b.election(r.Context(), b.db, r.PathValue("slug"))
	if err != nil {
		return models.Election{}, election.Viewer{}, err
	}
	v, err := b.viewer(r.Context(), e, middleware.AccountID(r))
	if err != nil {
		return models.Election{}, election.Viewer{}, err
	}
	if !election.CanView(e, v) {
		return models.Election{}, election.Viewer{}, middleware.NotFound("Election not found")
	}
	return e, v, nil
}

// commissionerElection resolves {slug} for a signed-in commissioner
func (b base) commissionerElection(r *http.Request) (models.Election, string, error) {
	accountID, err := middleware.RequireAccount(r)
	if err != nil {
		return models.Election{}, "", err
	}
	e, err := b.election(r.Context(), b.db, r.PathValue("slug"))
	if err != nil {
		return models.Election{}, "", err
	}
	ok, err := b.isCommissioner(r.Context(), b.db, e.ID, accountID)
	if err != nil {
		return models.Election{}, "", err
	}
	if !ok {
		return models.Election{}, "", middleware.Forbidden("Only commissioners can do this")
	}
	return e, accountID, nil
}

// editableElection is commissionerElection plus the structural lock:
// positions, partylists and candidates are frozen once voting starts
func (b base) editableElection(r *http.Request) (models.Election, string, error) {
	e, accountID, err := b.commissionerElection(r)
	if err != nil {
		return models.Election{}, "", err
	}
	if election.HasStarted(e, b.now()) {
		return models.Election{}, "", middleware.Conflict("Election has already started")
	}
	return e, accountID, nil
}

func (b base) accountByID(ctx context.Context, q queryer, id string) (models.Account, error) {
	var a models.Account
	err := q.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, created_at FROM account WHERE id = $1
	`, id).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, middleware.NotFound("Account not found")
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to query account: %w", err)
	}
	return a, nil
}

func (b base) accountByEmail(ctx context.Context, q queryer, email string) (models.Account, error) {
	var a models.Account
	err := q.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, created_at FROM account WHERE email = $1
	`, email).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, middleware.NotFound("No account with that email")
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to query account: %w", err)
	}
	return a, nil
}

// inTx runs fn in a transaction, committing only when fn succeeds
func (b base) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
