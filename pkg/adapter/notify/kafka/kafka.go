// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package kafka publishes the route and participant events on a Kafka
// topic, so the notification collaborators may consume them.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

// Publisher sends every event as one JSON message. Messages are keyed
// by their route ID, so the events of one route keep their order on a
// single partition.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewPublisher connects to the brokers and returns a Publisher which
// must be closed after use.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Return.Successes = true // required by SyncProducer
	cfg.Net.DialTimeout = 10 * time.Second
	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating sync producer: %w", err)
	}
	return NewPublisherWithProducer(p, topic), nil
}

// NewPublisherWithProducer wraps an existing producer. The Publisher
// owns p and closes it in Close.
func NewPublisherWithProducer(p sarama.SyncProducer, topic string) *Publisher {
	return &Publisher{producer: p, topic: topic}
}

// Publish sends e and waits for its acknowledgement.
func (p *Publisher) Publish(ctx context.Context, e model.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(e.RouteID.String()),
		Value: sarama.ByteEncoder(b),
	})
	if err != nil {
		return fmt.Errorf("sending %q event: %w", e.Kind, err)
	}
	log.Debug(
		ctx, "event is published",
		slog.String("kind", string(e.Kind)),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset),
	)
	return nil
}

// Close closes the underlying producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
