// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package progress

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/urbanpulse/urbanpulse/internal/forecast"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()

	b := NewBus(zerolog.Nop())
	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return b
}

func TestTopic(t *testing.T) {
	t.Parallel()

	if got := Topic(forecast.DomainTraffic); got != "training.progress.traffic" {
		t.Errorf("Topic(traffic) = %q, want %q", got, "training.progress.traffic")
	}
	if got := Topic(forecast.DomainEnergy); got != "training.progress.energy" {
		t.Errorf("Topic(energy) = %q, want %q", got, "training.progress.energy")
	}
}

func TestBusPublishSubscribeOrdering(t *testing.T) {
	t.Parallel()

	b := newTestBus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := b.Subscribe(ctx, forecast.DomainTraffic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	const epochs = 50
	go func() {
		for i := 1; i <= epochs; i++ {
			b.Publish(forecast.ProgressEvent{
				Domain:   forecast.DomainTraffic,
				Epoch:    i,
				Loss:     1.0 / float64(i),
				Accuracy: float64(i) / epochs,
			})
		}
	}()

	for want := 1; want <= epochs; want++ {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("channel closed before epoch %d", want)
			}
			if ev.Epoch != want {
				t.Fatalf("epoch = %d, want %d", ev.Epoch, want)
			}
			if ev.Domain != forecast.DomainTraffic {
				t.Fatalf("domain = %q, want traffic", ev.Domain)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for epoch %d", want)
		}
	}
}

func TestBusOrderingWithMultipleSubscribers(t *testing.T) {
	t.Parallel()

	b := newTestBus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, err := b.Subscribe(ctx, forecast.DomainEnergy)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	second, err := b.Subscribe(ctx, forecast.DomainEnergy)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	const epochs = 50
	for i := 1; i <= epochs; i++ {
		b.Publish(forecast.ProgressEvent{Domain: forecast.DomainEnergy, Epoch: i})
	}

	for name, events := range map[string]<-chan forecast.ProgressEvent{"first": first, "second": second} {
		for want := 1; want <= epochs; want++ {
			select {
			case ev, ok := <-events:
				if !ok {
					t.Fatalf("%s subscriber closed before epoch %d", name, want)
				}
				if ev.Epoch != want {
					t.Fatalf("%s subscriber epoch = %d, want %d", name, ev.Epoch, want)
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %s subscriber epoch %d", name, want)
			}
		}
	}
}

func TestBusDomainsAreIsolated(t *testing.T) {
	t.Parallel()

	b := newTestBus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	traffic, err := b.Subscribe(ctx, forecast.DomainTraffic)
	if err != nil {
		t.Fatalf("Subscribe(traffic) error = %v", err)
	}
	energy, err := b.Subscribe(ctx, forecast.DomainEnergy)
	if err != nil {
		t.Fatalf("Subscribe(energy) error = %v", err)
	}

	b.Publish(forecast.ProgressEvent{Domain: forecast.DomainEnergy, Epoch: 1})

	select {
	case ev := <-energy:
		if ev.Domain != forecast.DomainEnergy {
			t.Fatalf("energy subscriber got domain %q", ev.Domain)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for energy event")
	}

	select {
	case ev := <-traffic:
		t.Fatalf("traffic subscriber received %+v, want nothing", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBusSubscribeCancellation(t *testing.T) {
	t.Parallel()

	b := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := b.Subscribe(ctx, forecast.DomainTraffic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel did not close after context cancellation")
		}
	}
}
