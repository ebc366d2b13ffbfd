// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bricesuazo/eboto-sub002/cliparse"
	"github.com/bricesuazo/eboto-sub002/election"
	"github.com/bricesuazo/eboto-sub002/middleware"
	"github.com/bricesuazo/eboto-sub002/models"
	"github.com/bricesuazo/eboto-sub002/realtime"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = wsPongWait * 9 / 10
)

type ResultsHandler struct {
	base
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

func NewResultsHandler(conn *sql.DB, cfg cliparse.Config, hub *realtime.Hub) *ResultsHandler {
	return &ResultsHandler{
		base: base{db: conn, cfg: cfg},
		hub:  hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// same origin rule as the JSON API
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(cfg.BaseURL, r)
			},
		},
	}
}

// TallyLoader computes tallies straight from storage; the realtime hub
// polls it
func TallyLoader(conn *sql.DB, cfg cliparse.Config) realtime.Loader {
	b := base{db: conn, cfg: cfg}
	return b.tally
}

func (b base) tally(ctx context.Context, electionID string) (models.Tally, error) {
	positions, err := b.positions(ctx, b.db, electionID)
	if err != nil {
		return models.Tally{}, err
	}
	candidates, err := b.candidates(ctx, b.db, electionID, "")
	if err != nil {
		return models.Tally{}, err
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT v.ballot_id, v.position_id, v.candidate_id
		FROM vote v
		JOIN ballot b ON b.id = v.ballot_id
		WHERE b.election_id = $1
	`, electionID)
	if err != nil {
		return models.Tally{}, fmt.Errorf("failed to query votes: %w", err)
	}
	votes := []election.VoteRecord{}
	for rows.Next() {
		var rec election.VoteRecord
		var candidateID sql.NullString
		if err := rows.Scan(&rec.BallotID, &rec.PositionID, &candidateID); err != nil {
			rows.Close()
			return models.Tally{}, fmt.Errorf("failed to scan vote: %w", err)
		}
		rec.CandidateID = candidateID.String
		votes = append(votes, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return models.Tally{}, err
	}

	var voted, total int
	err = b.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM ballot WHERE election_id = $1),
			(SELECT COUNT(*) FROM voter WHERE election_id = $1 AND status <> $2)
	`, electionID, models.VoterDeclined).Scan(&voted, &total)
	if err != nil {
		return models.Tally{}, fmt.Errorf("failed to count voters: %w", err)
	}

	return election.ComputeTally(electionID, positions, candidates, votes, voted, total, b.now()), nil
}

// resultsElection resolves {slug} for a caller allowed to see the tally
func (h *ResultsHandler) resultsElection(r *http.Request) (models.Election, error) {
	e, v, err := h.visibleElection(r)
	if err != nil {
		return models.Election{}, err
	}
	if !election.CanViewResults(e, v, e.Status) {
		return models.Election{}, middleware.Forbidden("Results are hidden until the election ends")
	}
	return e, nil
}

// GetRealtime handles GET /elections/{slug}/realtime
func (h *ResultsHandler) GetRealtime(w http.ResponseWriter, r *http.Request) {
	e, err := h.resultsElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	tally, err := h.tally(r.Context(), e.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, tally)
}

// StreamRealtime handles GET /elections/{slug}/realtime/ws. The tally is
// pushed on connect and whenever the hub recomputes it.
func (h *ResultsHandler) StreamRealtime(w http.ResponseWriter, r *http.Request) {
	e, err := h.resultsElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request
		slog.Warn("websocket upgrade failed", "election_id", e.ID, "error", err)
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(e.ID)
	defer sub.Close()

	slog.Info("realtime subscriber connected", "election_id", e.ID, "watching", h.hub.Watching())
	defer slog.Info("realtime subscriber disconnected", "election_id", e.ID)

	// Clients only send control frames; reading keeps pongs flowing and
	// notices when they go away.
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case tally, ok := <-sub.C:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(tally); err != nil {
				slog.Debug("realtime write failed", "election_id", e.ID, "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// GetStats handles GET /elections/{slug}/stats
func (h *ResultsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	e, _, err := h.commissionerElection(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	fields, err := h.voterFields(r.Context(), h.db, e.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	voters, err := h.roster(r.Context(), h.db, e.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	rostered := election.FilterRoster(voters, models.VoterAdded, models.VoterInvited, models.VoterAccepted)

	middleware.JSONResponse(w, http.StatusOK, election.ComputeFieldStats(fields, rostered))
}
