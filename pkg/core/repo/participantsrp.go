// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

// ParticipantsQueryer lists the participants queries.
type ParticipantsQueryer interface {
	// Create stores p, assigning its ID if it is uuid.Nil.
	Create(ctx context.Context, p *model.Participant) (*model.Participant, error)

	Get(ctx context.Context, pid uuid.UUID) (*model.Participant, error)

	// ListByRoute returns the participants of the rid route ordered by
	// their join time and then by their ID. If active is true, only the
	// CONFIRMED and PICKED_UP participants are returned.
	ListByRoute(ctx context.Context, rid uuid.UUID, active bool) ([]*model.Participant, error)

	// ListStale returns the CONFIRMED participants whose routes have
	// a travel date before the given day.
	ListStale(ctx context.Context, before time.Time) ([]*model.Participant, error)

	// SwapStatus moves the pid participant from the `from` status to
	// the `to` status. It reports false (and changes nothing) if the
	// participant was not in the `from` status anymore.
	SwapStatus(ctx context.Context, pid uuid.UUID, from, to model.ParticipantStatus) (bool, error)

	// UpdateShares stores the given price shares, keyed by the
	// participant IDs.
	UpdateShares(ctx context.Context, shares map[uuid.UUID]model.Money) error
}

// Participants is the route participants repository.
type Participants interface {
	Conn(Conn) ParticipantsQueryer
	Tx(Tx) ParticipantsQueryer
}
