// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/bricesuazo/eboto-sub002/auth"
	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/db"
	"github.com/bricesuazo/eboto-sub002/election"
	"github.com/bricesuazo/eboto-sub002/middleware"
	"github.com/bricesuazo/eboto-sub002/models"
	"github.com/bricesuazo/eboto-sub002/notify"
)

// maxImportBytes caps voter CSV uploads
const maxImportBytes = 5 << 20

var voterStatuses = []string{models.VoterAdded, models.VoterInvited, models.VoterAccepted, models.VoterDeclined}

type VoterHandler struct {
	base
	notifier notify.Notifier
}

func NewVoterHandler(conn *sql.DB, cfg cliparse.Config, notifier notify.Notifier) *VoterHandler {
	return &VoterHandler{base: base{db: conn, cfg: cfg}, notifier: notifier}
}

// roster loads every voter of an election with field values and whether
// they have cast a ballot
func (b base) roster(ctx context.Context, q queryer, electionID string) ([]models.Voter, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT v.id, v.election_id, v.email, v.status, v.created_at, v.invited_at, v.accepted_at,
		       EXISTS(SELECT 1 FROM ballot b WHERE b.voter_id = v.id)
		FROM voter v
		WHERE v.election_id = $1
		ORDER BY v.created_at, v.email
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query voters: %w", err)
	}

	voters := []models.Voter{}
	for rows.Next() {
		var v models.Voter
		var invitedAt, acceptedAt sql.NullTime
		if err := rows.Scan(&v.ID, &v.ElectionID, &v.Email, &v.Status, &v.CreatedAt,
			&invitedAt, &acceptedAt, &v.Voted); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan voter: %w", err)
		}
		if invitedAt.Valid {
			v.InvitedAt = &invitedAt.Time
		}
		if acceptedAt.Valid {
			v.AcceptedAt = &acceptedAt.Time
		}
		v.Field = map[string]string{}
		voters = append(voters, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx, `
		SELECT fv.voter_id, f.name, fv.value
		FROM voter_field_value fv
		JOIN voter_field f ON f.id = fv.field_id
		WHERE f.election_id = $1
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query voter field values: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int, len(voters))
	for i, v := range voters {
		index[v.ID] = i
	}
	for rows.Next() {
		var voterID, name, value string
		if err := rows.Scan(&voterID, &name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan voter field value: %w", err)
		}
		if i, ok := index[voterID]; ok {
			voters[i].Field[name] = value
		}
	}
	return voters, rows.Err()
}

func findVoter(voters []models.Voter, id string) (models.Voter, error) {
	v, ok := lo.Find(voters, func(v models.Voter) bool { return v.ID == id })
	if !ok {
		return models.Voter{}, middleware.NotFound("Voter not found")
	}
	return v, nil
}

// fieldValue is a voter field value resolved to its field id
type fieldValue struct {
	fieldID string
	name    string
	value   string
}

// resolveFields maps field names to the election's voter fields
func resolveFields(fields []models.VoterField, input map[string]string) ([]fieldValue, error) {
	byName := lo.Associate(fields, func(f models.VoterField) (string, models.VoterField) {
		return f.Name, f
	})
	values := make([]fieldValue, 0, len(input))
	for name, value := range input {
		f, ok := byName[name]
		if !ok {
			return nil, middleware.BadRequest(fmt.Sprintf("unknown voter field %q", name))
		}
		values = append(values, fieldValue{fieldID: f.ID, name: f.Name, value: strings.TrimSpace(value)})
	}
	return values, nil
}

func writeFieldValues(ctx context.Context, tx *sql.Tx, voterID string, values []fieldValue) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM voter_field_value WHERE voter_id = $1`, voterID); err != nil {
		return fmt.Errorf("failed to clear voter field values: %w", err)
	}
	for _, fv := range values {
		if fv.value == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO voter_field_value (voter_id, field_id, value) VALUES ($1, $2, $3)
		`, voterID, fv.fieldID, fv.value); err != nil {
			return fmt.Errorf("failed to insert voter field value: %w", err)
		}
	}
	return nil
}

// initialStatus picks the starting roster status for an email
func initialStatus(ctx context.Context, q queryer, email string) (string, error) {
	var exists bool
	if err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM account WHERE email = $1)
	`, email).Scan(&exists); err != nil {
		return "", fmt.Errorf("failed to check account: %w", err)
	}
	return election.InitialStatus(exists), nil
}

func (h *VoterHandler) insertVoter(ctx context.Context, tx *sql.Tx, electionID, email string, values []fieldValue) (models.Voter, error) {
	status, err := initialStatus(ctx, tx, email)
	if err != nil {
		return models.Voter{}, err
	}

	now := h.now()
	v := models.Voter{
		ID:         auth.NewID(),
		ElectionID: electionID,
		Email:      email,
		Status:     status,
		Field:      map[string]string{},
		CreatedAt:  now,
	}
	if status == models.VoterAccepted {
		v.AcceptedAt = &now
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO voter (id, election_id, email, status, created_at, accepted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.ElectionID, v.Email, v.Status, v.CreatedAt, v.AcceptedAt)
	if db.IsUniqueViolation(err) {
		return models.Voter{}, middleware.Conflict("Voter already exists")
	}
	if err != nil {
		return models.Voter{}, fmt.Errorf("failed to insert voter: %w", err)
	}

	if err := writeFieldValues(ctx, tx, v.ID, values); err != nil {
		return models.Voter{}, err
	}
	for _, fv := range values {
		if fv.value != "" {
			v.Field[fv.name] = fv.value
		}
	}
	return v, nil
}

// ListVoters handles GET /elections/{slug}/voters?status=ADDED,INVITED
func (h *VoterHandler) ListVoters(w http.ResponseWriter, r *http.Request) {
	e, _, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var statuses []string
	if raw := r.URL.Query().Get("status"); raw != "" {
		statuses = lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
			return strings.ToUpper(strings.TrimSpace(s))
		})
		if unknown, _ := lo.Difference(statuses, voterStatuses); len(unknown) > 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", unknown[0]))
			return
		}
	}

	voters, err := h.roster(r.Context(), h.db, e.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, election.FilterRoster(voters, statuses...))
}

// AddVoter handles POST /elections/{slug}/voters
func (h *VoterHandler) AddVoter(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.VoterRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	fields, err := h.voterFields(r.Context(), h.db, e.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	values, err := resolveFields(fields, req.Field)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var v models.Voter
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		v, err = h.insertVoter(r.Context(), tx, e.ID, auth.NormalizeEmail(req.Email), values)
		return err
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("voter added", "election_id", e.ID, "voter_id", v.ID, "status", v.Status, "account_id", accountID)

	middleware.JSONResponse(w, http.StatusCreated, v)
}

// importRow is one parsed CSV row waiting to be inserted
type importRow struct {
	row    int
	email  string
	values []fieldValue
}

// csvSource returns the uploaded CSV, either the "file" part of a multipart
// form or the raw request body
func csvSource(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return nil, middleware.BadRequest("Invalid multipart form")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, middleware.BadRequest("file is required")
		}
		return file, nil
	}
	return r.Body, nil
}

// parseVoterCSV reads an email column plus optional voter field columns.
// Rows that cannot be added are reported instead of failing the upload.
func parseVoterCSV(src io.Reader, fields []models.VoterField) ([]importRow, []models.ImportSkip, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, middleware.BadRequest("CSV is empty")
	}
	if err != nil {
		return nil, nil, middleware.BadRequest("Invalid CSV: " + err.Error())
	}

	byName := lo.Associate(fields, func(f models.VoterField) (string, models.VoterField) {
		return strings.ToLower(f.Name), f
	})

	emailCol := -1
	columns := make(map[int]models.VoterField)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if key == "email" {
			emailCol = i
			continue
		}
		f, ok := byName[key]
		if !ok {
			return nil, nil, middleware.BadRequest(fmt.Sprintf("unknown column %q", name))
		}
		columns[i] = f
	}
	if emailCol < 0 {
		return nil, nil, middleware.BadRequest("CSV must have an email column")
	}

	rows := []importRow{}
	skipped := []models.ImportSkip{}
	seen := make(map[string]bool)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, middleware.BadRequest("Invalid CSV: " + err.Error())
		}
		if len(lo.Compact(record)) == 0 {
			continue
		}

		var email string
		if emailCol < len(record) {
			email = auth.NormalizeEmail(record[emailCol])
		}
		if err := middleware.Validate(models.VoterRequest{Email: email}); err != nil {
			skipped = append(skipped, models.ImportSkip{Row: line, Email: email, Reason: "invalid email"})
			continue
		}
		if seen[email] {
			skipped = append(skipped, models.ImportSkip{Row: line, Email: email, Reason: "duplicate email in file"})
			continue
		}
		seen[email] = true

		values := make([]fieldValue, 0, len(columns))
		for i, f := range columns {
			if i < len(record) {
				values = append(values, fieldValue{fieldID: f.ID, name: f.Name, value: strings.TrimSpace(record[i])})
			}
		}
		rows = append(rows, importRow{row: line, email: email, values: values})
	}
	return rows, skipped, nil
}

// ImportVoters handles POST /elections/{slug}/voters/import
func (h *VoterHandler) ImportVoters(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	src, err := csvSource(w, r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	defer src.Close()

	fields, err := h.voterFields(r.Context(), h.db, e.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	rows, skipped, err := parseVoterCSV(src, fields)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	resp := models.ImportVotersResponse{Skipped: skipped}
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		existing, err := h.roster(r.Context(), tx, e.ID)
		if err != nil {
			return err
		}
		onRoster := lo.Associate(existing, func(v models.Voter) (string, bool) { return v.Email, true })

		for _, row := range rows {
			if onRoster[row.email] {
				resp.Skipped = append(resp.Skipped, models.ImportSkip{Row: row.row, Email: row.email, Reason: "already on the roster"})
				continue
			}
			if _, err := h.insertVoter(r.Context(), tx, e.ID, row.email, row.values); err != nil {
				return err
			}
			resp.Added++
		}
		return nil
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("voters imported", "election_id", e.ID, "added", resp.Added,
		"skipped", len(resp.Skipped), "account_id", accountID)

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// UpdateVoter handles PUT /elections/{slug}/voters/{id}. The email is
// frozen once the voter has voted.
func (h *VoterHandler) UpdateVoter(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.VoterRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var v models.Voter
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		voters, err := h.roster(r.Context(), tx, e.ID)
		if err != nil {
			return err
		}
		if v, err = findVoter(voters, r.PathValue("id")); err != nil {
			return err
		}
		fields, err := h.voterFields(r.Context(), tx, e.ID)
		if err != nil {
			return err
		}
		values, err := resolveFields(fields, req.Field)
		if err != nil {
			return err
		}

		email := auth.NormalizeEmail(req.Email)
		if email != v.Email {
			if v.Voted {
				return middleware.Conflict("Voter has already voted")
			}
			// A new address starts the lifecycle over
			if v.Status, err = initialStatus(r.Context(), tx, email); err != nil {
				return err
			}
			v.Email = email
			v.InvitedAt, v.AcceptedAt = nil, nil
			if v.Status == models.VoterAccepted {
				now := h.now()
				v.AcceptedAt = &now
			}

			_, err = tx.ExecContext(r.Context(), `
				UPDATE voter SET email = $1, status = $2, invited_at = $3, accepted_at = $4
				WHERE id = $5
			`, v.Email, v.Status, v.InvitedAt, v.AcceptedAt, v.ID)
			if db.IsUniqueViolation(err) {
				return middleware.Conflict("Voter already exists")
			}
			if err != nil {
				return fmt.Errorf("failed to update voter: %w", err)
			}
		}

		if err := writeFieldValues(r.Context(), tx, v.ID, values); err != nil {
			return err
		}
		v.Field = map[string]string{}
		for _, fv := range values {
			if fv.value != "" {
				v.Field[fv.name] = fv.value
			}
		}
		return nil
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("voter updated", "election_id", e.ID, "voter_id", v.ID, "account_id", accountID)

	middleware.JSONResponse(w, http.StatusOK, v)
}

// DeleteVoter handles DELETE /elections/{slug}/voters/{id}
func (h *VoterHandler) DeleteVoter(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	id := r.PathValue("id")
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		voters, err := h.roster(r.Context(), tx, e.ID)
		if err != nil {
			return err
		}
		v, err := findVoter(voters, id)
		if err != nil {
			return err
		}
		if v.Voted {
			return middleware.Conflict("Voter has already voted")
		}
		if _, err := tx.ExecContext(r.Context(), `DELETE FROM voter WHERE id = $1`, v.ID); err != nil {
			return fmt.Errorf("failed to delete voter: %w", err)
		}
		return nil
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("voter deleted", "election_id", e.ID, "voter_id", id, "account_id", accountID)

	w.WriteHeader(http.StatusNoContent)
}

// InviteVoters handles POST /elections/{slug}/voters/invite. Every ADDED
// voter becomes INVITED and gets an invitation link.
func (h *VoterHandler) InviteVoters(w http.ResponseWriter, r *http.Request) {
	e, accountID, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if e.Status == models.StatusEnded {
		middleware.ErrorResponse(w, http.StatusConflict, "Election has ended")
		return
	}

	var invited []models.Voter
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		voters, err := h.roster(r.Context(), tx, e.ID)
		if err != nil {
			return err
		}
		invited = election.FilterRoster(voters, models.VoterAdded)
		if len(invited) == 0 {
			return nil
		}

		if _, err := tx.ExecContext(r.Context(), `
			UPDATE voter SET status = $1, invited_at = $2
			WHERE election_id = $3 AND status = $4
		`, models.VoterInvited, h.now(), e.ID, models.VoterAdded); err != nil {
			return fmt.Errorf("failed to invite voters: %w", err)
		}
		return nil
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	for _, v := range invited {
		token := auth.GenerateInvitationToken(v.ID, v.Email, h.cfg.InviteSalt)
		inv := notify.Invitation{
			VoterID:      v.ID,
			Email:        v.Email,
			ElectionName: e.Name,
			ElectionSlug: e.Slug,
			Link:         notify.InvitationLink(h.cfg.BaseURL, e.Slug, v.ID, token),
		}
		if err := h.notifier.SendInvitation(r.Context(), inv); err != nil {
			slog.Warn("failed to send invitation", "voter_id", v.ID, "error", err)
		}
	}

	slog.Info("voters invited", "election_id", e.ID, "count", len(invited), "account_id", accountID)

	middleware.JSONResponse(w, http.StatusOK, models.InviteVotersResponse{Invited: len(invited)})
}

// AcceptInvitation handles POST /elections/{slug}/accept
func (h *VoterHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.RequireAccount(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	e, err := h.election(r.Context(), h.db, r.PathValue("slug"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	entry, found, err := h.findRosterEntry(r.Context(), h.db, e.ID, accountID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if !found {
		middleware.ErrorResponse(w, http.StatusNotFound, "You are not on this election's roster")
		return
	}

	if _, err := election.Transition(entry.Status, models.VoterAccepted); err != nil {
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	}

	if _, err := h.db.ExecContext(r.Context(), `
		UPDATE voter SET status = $1, accepted_at = $2 WHERE id = $3
	`, models.VoterAccepted, h.now(), entry.VoterID); err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to accept invitation: %w", err))
		return
	}

	slog.Info("invitation accepted", "election_id", e.ID, "voter_id", entry.VoterID, "account_id", accountID)

	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"voter_id": entry.VoterID,
		"status":   models.VoterAccepted,
	})
}

// DeclineInvitation handles POST /invitations/decline. The invitation
// token stands in for an account.
func (h *VoterHandler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	var req models.DeclineInvitationRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var email, status string
	var deletedAt sql.NullTime
	err := h.db.QueryRowContext(r.Context(), `
		SELECT v.email, v.status, e.deleted_at
		FROM voter v JOIN election e ON e.id = v.election_id
		WHERE v.id = $1
	`, req.VoterID).Scan(&email, &status, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) || deletedAt.Valid {
		middleware.ErrorResponse(w, http.StatusNotFound, "Invitation not found")
		return
	}
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to query voter: %w", err))
		return
	}

	// the token is bound to the address it was mailed to
	if err := auth.ValidateInvitationToken(req.VoterID, email, req.Token, h.cfg.InviteSalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid invitation token")
		return
	}

	if _, err := election.Transition(status, models.VoterDeclined); err != nil {
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	}

	if _, err := h.db.ExecContext(r.Context(), `
		UPDATE voter SET status = $1 WHERE id = $2
	`, models.VoterDeclined, req.VoterID); err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to decline invitation: %w", err))
		return
	}

	slog.Info("invitation declined", "voter_id", req.VoterID)

	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"voter_id": req.VoterID,
		"status":   models.VoterDeclined,
	})
}
