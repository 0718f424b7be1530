// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

// Package progress fans training progress events out to any number of
// subscribers over an in-process Watermill pub/sub.
//
// The trainer emits one event per epoch through forecast.ProgressSink;
// subscribers (the websocket stream, tests) consume a typed channel per
// domain. Per-epoch ordering is preserved per subscriber.
package progress

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/urbanpulse/urbanpulse/internal/forecast"
)

// topicPrefix namespaces training progress topics, one per domain.
const topicPrefix = "training.progress."

// subscriberBuffer is the per-subscriber event backlog. A full training
// run fits, so acking never waits on the consumer.
const subscriberBuffer = 64

// Bus is the in-process progress event transport. Safe for concurrent use.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger zerolog.Logger
}

// NewBus creates a progress bus. Publishing blocks until every current
// subscriber acks, which keeps epoch events in publish order; subscriber
// goroutines ack before handing the event to their consumer, so a slow
// consumer never stalls the training loop.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBus(logger zerolog.Logger) *Bus {
	logger = logger.With().Str("component", "progress").Logger()
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            64,
			BlockPublishUntilSubscriberAck: true,
		}, newWatermillLogger(logger)),
		logger: logger,
	}
}

// Topic returns the progress topic for a domain.
func Topic(d forecast.Domain) string {
	return topicPrefix + string(d)
}

// Publish sends one progress event to the domain's topic. It implements
// forecast.ProgressSink; publish failures are logged, not returned, so a
// slow observer can never fail a training run.
func (b *Bus) Publish(ev forecast.ProgressEvent) {
	payload, err := json.Marshal(&ev)
	if err != nil {
		b.logger.Error().Err(err).Msg("marshal progress event")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(Topic(ev.Domain), msg); err != nil {
		b.logger.Error().
			Err(err).
			Str("domain", string(ev.Domain)).
			Int("epoch", ev.Epoch).
			Msg("publish progress event")
	}
}

// Subscribe returns a typed channel of progress events for a domain.
// The channel closes when ctx is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, d forecast.Domain) (<-chan forecast.ProgressEvent, error) {
	messages, err := b.pubsub.Subscribe(ctx, Topic(d))
	if err != nil {
		return nil, fmt.Errorf("subscribe %s progress: %w", d, err)
	}

	events := make(chan forecast.ProgressEvent, subscriberBuffer)
	go func() {
		defer close(events)
		for msg := range messages {
			var ev forecast.ProgressEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				b.logger.Error().Err(err).Msg("decode progress event")
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// Close shuts the bus down, closing all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
