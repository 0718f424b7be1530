// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/urbanpulse/urbanpulse/internal/metrics"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin enforcement happens in the CORS middleware; the dashboard
	// may be served from a different port than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamProgress upgrades the connection to a WebSocket and streams
// training progress events for one domain until the client disconnects
// or the server shuts down. Events arrive once per epoch.
func (h *Handler) StreamProgress(w http.ResponseWriter, r *http.Request) {
	d, ok := h.domainParam(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.ProgressSubscribers.Inc()
	defer metrics.ProgressSubscribers.Dec()

	events, err := h.bus.Subscribe(r.Context(), d)
	if err != nil {
		h.logger.Error().Err(err).Str("domain", string(d)).Msg("Progress subscription failed")
		return
	}

	// Discard client frames so control messages keep being processed
	// and closure is detected promptly.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
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
		case ev, open := <-events:
			if !open {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug().Err(err).Str("domain", string(d)).Msg("Progress stream write failed")
				return
			}
		case <-ping.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-clientGone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
