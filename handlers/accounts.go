// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bricesuazo/eboto-sub002/auth"
	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/db"
	"github.com/bricesuazo/eboto-sub002/middleware"
	"github.com/bricesuazo/eboto-sub002/models"
)

type AccountHandler struct {
	base
}

func NewAccountHandler(conn *sql.DB, cfg cliparse.Config) *AccountHandler {
	return &AccountHandler{base{db: conn, cfg: cfg}}
}

// Register handles POST /auth/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) || errors.Is(err, auth.ErrPasswordTooLong) {
			middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		middleware.WriteError(w, r, err)
		return
	}

	account := models.Account{
		ID:        auth.NewID(),
		Email:     auth.NormalizeEmail(req.Email),
		Name:      req.Name,
		CreatedAt: h.now(),
	}

	var accepted int64
	err = h.inTx(r.Context(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(r.Context(), `
			INSERT INTO account (id, email, name, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, account.ID, account.Email, account.Name, hash, account.CreatedAt)
		if db.IsUniqueViolation(err) {
			return middleware.Conflict("Email already registered")
		}
		if err != nil {
			return err
		}

		// Pending roster rows for this email become accepted voters
		res, err := tx.ExecContext(r.Context(), `
			UPDATE voter
			SET status = $1, accepted_at = $2
			WHERE email = $3 AND status IN ($4, $5)
		`, models.VoterAccepted, account.CreatedAt, account.Email, models.VoterAdded, models.VoterInvited)
		if err != nil {
			return err
		}
		accepted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	token, err := auth.IssueToken(account.ID, h.cfg.JWTSecret, h.cfg.TokenTTL, account.CreatedAt)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("account registered", "account_id", account.ID, "accepted_invitations", accepted)

	middleware.JSONResponse(w, http.StatusCreated, models.AuthResponse{
		Account: account,
		Token:   token,
	})
}

// Login handles POST /auth/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	account, err := h.accountByEmail(r.Context(), h.db, auth.NormalizeEmail(req.Email))
	var httpErr *middleware.HTTPError
	if errors.As(err, &httpErr) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if err := auth.CheckPassword(account.PasswordHash, req.Password); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	token, err := auth.IssueToken(account.ID, h.cfg.JWTSecret, h.cfg.TokenTTL, h.now())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("account signed in", "account_id", account.ID)

	middleware.JSONResponse(w, http.StatusOK, models.AuthResponse{
		Account: account,
		Token:   token,
	})
}

// Me handles GET /auth/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.RequireAccount(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	account, err := h.accountByID(r.Context(), h.db, accountID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, account)
}
