// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bricesuazo/eboto-sub002/models"
)

// Loader computes the current tally of an election
type Loader func(ctx context.Context, electionID string) (models.Tally, error)

// Hub runs one polling loop per watched election and fans each tally out to
// every subscriber of that election. A loop starts with its first
// subscriber and stops with its last.
type Hub struct {
	load     Loader
	interval time.Duration

	mu     sync.Mutex
	feeds  map[string]*feed
	closed bool
}

type feed struct {
	subs   map[*Subscription]struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// Subscription receives tallies on C until Close is called. C holds at
// most one pending tally; a slow reader only ever sees the latest one.
type Subscription struct {
	C <-chan models.Tally

	ch         chan models.Tally
	hub        *Hub
	electionID string
	once       sync.Once
}

func NewHub(load Loader, interval time.Duration) *Hub {
	return &Hub{
		load:     load,
		interval: interval,
		feeds:    make(map[string]*feed),
	}
}

// Subscribe starts watching an election. The first tally is delivered as
// soon as it is computed.
func (h *Hub) Subscribe(electionID string) *Subscription {
	ch := make(chan models.Tally, 1)
	sub := &Subscription{C: ch, ch: ch, hub: h, electionID: electionID}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return sub
	}

	f, ok := h.feeds[electionID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		f = &feed{
			subs:   make(map[*Subscription]struct{}),
			cancel: cancel,
			done:   make(chan struct{}),
		}
		h.feeds[electionID] = f
		go h.run(ctx, electionID, f)
	} else {
		// Late joiners should not wait a whole interval
		go h.refresh(electionID, f)
	}
	f.subs[sub] = struct{}{}

	return sub
}

// Close stops delivery to this subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}

func (h *Hub) unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.feeds[s.electionID]
	if !ok {
		return
	}
	if _, ok := f.subs[s]; !ok {
		return
	}
	delete(f.subs, s)
	close(s.ch)

	if len(f.subs) == 0 {
		delete(h.feeds, s.electionID)
		f.cancel()
	}
}

// Watching returns the number of elections with a running loop
func (h *Hub) Watching() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.feeds)
}

// Close stops every loop and closes every subscription
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	feeds := h.feeds
	h.feeds = make(map[string]*feed)
	for _, f := range feeds {
		f.cancel()
		for s := range f.subs {
			close(s.ch)
		}
		f.subs = nil
	}
	h.mu.Unlock()

	for _, f := range feeds {
		<-f.done
	}
}

func (h *Hub) run(ctx context.Context, electionID string, f *feed) {
	defer close(f.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.tick(ctx, electionID, f)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.tick(ctx, electionID, f)
		}
	}
}

func (h *Hub) refresh(electionID string, f *feed) {
	ctx, cancel := context.WithTimeout(context.Background(), h.interval)
	defer cancel()
	h.tick(ctx, electionID, f)
}

func (h *Hub) tick(ctx context.Context, electionID string, f *feed) {
	tally, err := h.load(ctx, electionID)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("realtime tally failed", "election_id", electionID, "error", err)
		}
		return
	}
	h.broadcast(f, tally)
}

func (h *Hub) broadcast(f *feed, tally models.Tally) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range f.subs {
		select {
		case s.ch <- tally:
		default:
			// Replace the stale pending tally
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- tally:
			default:
			}
		}
	}
}
