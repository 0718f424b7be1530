// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/urbanpulse/urbanpulse/internal/forecast"
)

// dialProgress opens a progress stream for a domain against the test server.
func dialProgress(t *testing.T, env *testEnv, domain string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/v1/models/" + domain + "/progress"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStreamProgressDeliversEpochs(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	conn := dialProgress(t, env, "traffic")

	// Give the subscription a moment to attach before publishing.
	time.Sleep(50 * time.Millisecond)

	for i := 1; i <= 3; i++ {
		env.bus.Publish(forecast.ProgressEvent{
			Domain:   forecast.DomainTraffic,
			Epoch:    i,
			Loss:     0.5 / float64(i),
			Accuracy: 0.2 * float64(i),
		})
	}

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	for want := 1; want <= 3; want++ {
		var ev forecast.ProgressEvent
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read event %d: %v", want, err)
		}
		if ev.Epoch != want {
			t.Fatalf("epoch = %d, want %d", ev.Epoch, want)
		}
		if ev.Domain != forecast.DomainTraffic {
			t.Fatalf("domain = %q, want traffic", ev.Domain)
		}
	}
}

func TestStreamProgressDuringRealTraining(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	conn := dialProgress(t, env, "energy")
	time.Sleep(50 * time.Millisecond)

	resp, err := http.Post(env.server.URL+"/api/v1/models/energy/train", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /train: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("train status = %d, want 202", resp.StatusCode)
	}

	if err := conn.SetReadDeadline(time.Now().Add(30 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}

	last := 0
	for last < 50 {
		var ev forecast.ProgressEvent
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read after epoch %d: %v", last, err)
		}
		if ev.Epoch != last+1 {
			t.Fatalf("epoch = %d, want %d", ev.Epoch, last+1)
		}
		last = ev.Epoch
	}
}

func TestStreamProgressUnknownDomain(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/v1/models/water/progress"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		conn.Close()
		t.Fatal("dial succeeded for unknown domain, want handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("handshake response = %+v, want 400", resp)
	}
	resp.Body.Close()
}
