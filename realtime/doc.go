// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

/*
Package realtime pushes periodically re-queried election tallies to
watchers.

	hub := realtime.NewHub(loadTally, cfg.RealtimeInterval)
	sub := hub.Subscribe(electionID)
	defer sub.Close()
	for tally := range sub.C {
		// write tally to the websocket
	}

However many clients watch an election, the hub queries its tally once per
interval. The loop starts with the first subscriber, stops with the last,
and a load error only skips that tick.
*/
package realtime
