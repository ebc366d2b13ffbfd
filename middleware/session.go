// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/bricesuazo/eboto-sub002/auth"
)

type contextKey struct{}

var accountKey = contextKey{}

// Authenticate resolves an optional "Authorization: Bearer" session token.
// Browsers cannot set headers on websocket upgrades, so an access_token
// query parameter is accepted in its place. Requests without a token
// continue anonymously; a malformed or expired token is rejected.
func Authenticate(secret string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := r.URL.Query().Get("access_token")
			if header == "" && token == "" {
				next(w, r)
				return
			}

			if header != "" {
				var ok bool
				token, ok = strings.CutPrefix(header, "Bearer ")
				if !ok || token == "" {
					ErrorResponse(w, http.StatusUnauthorized, "Authorization header must be a bearer token")
					return
				}
			}

			accountID, err := auth.ParseToken(token, secret)
			if err != nil {
				ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}

			next(w, r.WithContext(WithAccount(r.Context(), accountID)))
		}
	}
}

// WithAccount stores the authenticated account ID in ctx
func WithAccount(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountKey, accountID)
}

// AccountID returns the authenticated account ID, or "" for anonymous
// requests
func AccountID(r *http.Request) string {
	id, _ := r.Context().Value(accountKey).(string)
	return id
}

// RequireAccount returns the authenticated account ID or a 401 HTTPError
func RequireAccount(r *http.Request) (string, error) {
	id := AccountID(r)
	if id == "" {
		return "", Unauthorized("Sign in required")
	}
	return id, nil
}
