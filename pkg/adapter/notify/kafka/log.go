// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package kafka

import (
	"context"
	"log/slog"

	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

// LogPublisher writes the events into the log. It is used when no
// Kafka broker is configured.
type LogPublisher struct{}

// Publish logs e with the info level.
func (LogPublisher) Publish(ctx context.Context, e model.Event) error {
	attrs := []slog.Attr{
		slog.String("kind", string(e.Kind)),
		log.UUID("route", e.RouteID),
		log.UUID("actor", e.ActorID),
		slog.Time("at", e.At),
	}
	if e.ParticipantID != nil {
		attrs = append(attrs, log.UUID("participant", *e.ParticipantID))
	}
	log.Info(ctx, "event", attrs...)
	return nil
}
