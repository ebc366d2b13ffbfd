// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Sessions

Session tokens are HS256 JWTs (github.com/golang-jwt/jwt/v5) whose subject
is the account ID:

	token, err := auth.IssueToken(accountID, cfg.JWTSecret, cfg.TokenTTL, time.Now())
	accountID, err := auth.ParseToken(token, cfg.JWTSecret)

Tokens must carry an expiry and the eboto issuer.

# Passwords

Passwords are stored as bcrypt hashes (golang.org/x/crypto/bcrypt):

	hash, err := auth.HashPassword(password)
	err := auth.CheckPassword(hash, password)

# Invitation Tokens

Invitation links carry an HMAC-SHA256 over the voter ID and its email, so a
link stops working once the row is readdressed:

	token := auth.GenerateInvitationToken(voterID, email, salt)
	err := auth.ValidateInvitationToken(voterID, email, token, salt)

Like the session secret, the salt never leaves the server, so the token can
be validated without storing it.

# IDs

Primary keys are UUIDv4 strings (github.com/google/uuid):

	id := auth.NewID()

# IP Hashing

Ballots record a salted hash of the caller IP, never the IP itself:

	hash := auth.HashIP(ipAddress, salt)
*/
package auth
