// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

// Package notify delivers voter invitations.
package notify

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
)

// Invitation is one message to a voter
type Invitation struct {
	VoterID      string
	Email        string
	ElectionName string
	ElectionSlug string
	Link         string
}

// Notifier sends invitations. Implementations must be safe for concurrent
// use.
type Notifier interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

// InvitationLink builds the link a voter follows to accept or decline
func InvitationLink(baseURL, electionSlug, voterID, token string) string {
	q := url.Values{}
	q.Set("voter", voterID)
	q.Set("token", token)
	return baseURL + "/invitations/" + url.PathEscape(electionSlug) + "?" + q.Encode()
}

// LogNotifier writes invitations to the structured log instead of sending
// mail
type LogNotifier struct{}

func (LogNotifier) SendInvitation(_ context.Context, inv Invitation) error {
	slog.Info("invitation sent",
		"voter_id", inv.VoterID,
		"email", inv.Email,
		"election", inv.ElectionSlug,
		"link", inv.Link,
	)
	return nil
}

// Recorder keeps invitations in memory; tests use it to inspect deliveries
type Recorder struct {
	mu   sync.Mutex
	sent []Invitation
}

func (r *Recorder) SendInvitation(_ context.Context, inv Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, inv)
	return nil
}

// Sent returns a copy of the recorded invitations
func (r *Recorder) Sent() []Invitation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Invitation, len(r.sent))
	copy(out, r.sent)
	return out
}
