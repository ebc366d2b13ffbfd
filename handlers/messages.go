// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bricesuazo/eboto-sub002/auth"
	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/middleware"
	"github.com/bricesuazo/eboto-sub002/models"
)

type MessageHandler struct {
	base
}

func NewMessageHandler(conn *sql.DB, cfg cliparse.Config) *MessageHandler {
	return &MessageHandler{base{db: conn, cfg: cfg}}
}

// participant is the caller's standing in an election's conversations
type participant struct {
	election     models.Election
	accountID    string
	commissioner bool
	voter        bool
}

func (h *MessageHandler) participant(r *http.Request) (participant, error) {
	accountID, err := middleware.RequireAccount(r)
	if err != nil {
		return participant{}, err
	}
	e, err := h.election(r.Context(), h.db, r.PathValue("slug"))
	if err != nil {
		return participant{}, err
	}
	isComm, err := h.isCommissioner(r.Context(), h.db, e.ID, accountID)
	if err != nil {
		return participant{}, err
	}
	entry, found, err := h.findRosterEntry(r.Context(), h.db, e.ID, accountID)
	if err != nil {
		return participant{}, err
	}
	p := participant{
		election:     e,
		accountID:    accountID,
		commissioner: isComm,
		voter:        found && entry.Status != models.VoterDeclined,
	}
	if !p.commissioner && !p.voter {
		return participant{}, middleware.Forbidden("Only voters and commissioners can message")
	}
	return p, nil
}

// room loads a room of the election the participant may read
func (h *MessageHandler) room(r *http.Request, p participant) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := h.db.QueryRowContext(r.Context(), `
		SELECT c.id, c.election_id, c.voter_account_id, a.name, c.title, c.created_at, c.last_message_at
		FROM chat_room c
		JOIN account a ON a.id = c.voter_account_id
		WHERE c.id = $1 AND c.election_id = $2
	`, r.PathValue("room"), p.election.ID).Scan(&room.ID, &room.ElectionID, &room.VoterAccountID,
		&room.VoterName, &room.Title, &room.CreatedAt, &room.LastMessageAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, middleware.NotFound("Room not found")
	}
	if err != nil {
		return models.ChatRoom{}, fmt.Errorf("failed to query room: %w", err)
	}
	if !p.commissioner && room.VoterAccountID != p.accountID {
		return models.ChatRoom{}, middleware.Forbidden("Not your conversation")
	}
	return room, nil
}

// ListRooms handles GET /elections/{slug}/rooms. Commissioners see every
// room, voters only their own.
func (h *MessageHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	p, err := h.participant(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	query := `
		SELECT c.id, c.election_id, c.voter_account_id, a.name, c.title, c.created_at, c.last_message_at
		FROM chat_room c
		JOIN account a ON a.id = c.voter_account_id
		WHERE c.election_id = $1`
	args := []any{p.election.ID}
	if !p.commissioner {
		query += ` AND c.voter_account_id = $2`
		args = append(args, p.accountID)
	}
	query += ` ORDER BY c.last_message_at DESC, c.id`

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to query rooms: %w", err))
		return
	}
	defer rows.Close()

	rooms := []models.ChatRoom{}
	for rows.Next() {
		var room models.ChatRoom
		if err := rows.Scan(&room.ID, &room.ElectionID, &room.VoterAccountID, &room.VoterName,
			&room.Title, &room.CreatedAt, &room.LastMessageAt); err != nil {
			middleware.WriteError(w, r, fmt.Errorf("failed to scan room: %w", err))
			return
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, rooms)
}

// CreateRoom handles POST /elections/{slug}/rooms. Only voters open rooms.
func (h *MessageHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	p, err := h.participant(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if !p.voter {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only voters can open a conversation")
		return
	}

	var req models.CreateRoomRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	account, err := h.accountByID(r.Context(), h.db, p.accountID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	now := h.now()
	room := models.ChatRoom{
		ID:             auth.NewID(),
		ElectionID:     p.election.ID,
		VoterAccountID: p.accountID,
		VoterName:      account.Name,
		Title:          req.Title,
		CreatedAt:      now,
		LastMessageAt:  now,
	}
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(r.Context(), `
			INSERT INTO chat_room (id, election_id, voter_account_id, title, created_at, last_message_at)
			VALUES ($1, $2, $3, $4, $5, $5)
		`, room.ID, room.ElectionID, room.VoterAccountID, room.Title, now); err != nil {
			return fmt.Errorf("failed to insert room: %w", err)
		}
		if _, err := tx.ExecContext(r.Context(), `
			INSERT INTO chat_message (id, room_id, account_id, body, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, auth.NewID(), room.ID, p.accountID, req.Message, now); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		return nil
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("room created", "election_id", room.ElectionID, "room_id", room.ID, "account_id", p.accountID)

	middleware.JSONResponse(w, http.StatusCreated, room)
}

// ListMessages handles GET /elections/{slug}/rooms/{room}/messages
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	p, err := h.participant(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	room, err := h.room(r, p)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT m.id, m.room_id, m.account_id, a.name, m.body, m.created_at
		FROM chat_message m
		JOIN account a ON a.id = m.account_id
		WHERE m.room_id = $1
		ORDER BY m.created_at, m.id
	`, room.ID)
	if err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to query messages: %w", err))
		return
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.AccountID, &m.Author, &m.Body, &m.CreatedAt); err != nil {
			middleware.WriteError(w, r, fmt.Errorf("failed to scan message: %w", err))
			return
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, messages)
}

// PostMessage handles POST /elections/{slug}/rooms/{room}/messages
func (h *MessageHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	p, err := h.participant(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	room, err := h.room(r, p)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req models.PostMessageRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	account, err := h.accountByID(r.Context(), h.db, p.accountID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	m := models.ChatMessage{
		ID:        auth.NewID(),
		RoomID:    room.ID,
		AccountID: p.accountID,
		Author:    account.Name,
		Body:      req.Message,
		CreatedAt: h.now(),
	}
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(r.Context(), `
			INSERT INTO chat_message (id, room_id, account_id, body, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, m.ID, m.RoomID, m.AccountID, m.Body, m.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		if _, err := tx.ExecContext(r.Context(), `
			UPDATE chat_room SET last_message_at = $1 WHERE id = $2
		`, m.CreatedAt, room.ID); err != nil {
			return fmt.Errorf("failed to touch room: %w", err)
		}
		return nil
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("message posted", "room_id", room.ID, "message_id", m.ID, "account_id", p.accountID)

	middleware.JSONResponse(w, http.StatusCreated, m)
}
