// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// ParticipantStatus is the state of a Participant in its route.
type ParticipantStatus string

// Valid values for the ParticipantStatus.
const (
	// ParticipantPending exists only in memory while the capacity is
	// being reserved. It is never persisted, so it does not imply
	// any waiting queue.
	ParticipantPending   ParticipantStatus = "pending"
	ParticipantConfirmed ParticipantStatus = "confirmed"
	ParticipantPickedUp  ParticipantStatus = "picked_up"
	ParticipantDelivered ParticipantStatus = "delivered"
	ParticipantCancelled ParticipantStatus = "cancelled"
)

// Active reports if a participant in the s status holds a claim on
// its route capacity.
func (s ParticipantStatus) Active() bool {
	return s == ParticipantConfirmed || s == ParticipantPickedUp
}

// Billable reports if a participant in the s status pays a share of
// its route cost. Delivered participants keep paying their share even
// though their capacity is released.
func (s ParticipantStatus) Billable() bool {
	return s.Active() || s == ParticipantDelivered
}

// Terminal reports if no further transition may leave the s status.
func (s ParticipantStatus) Terminal() bool {
	return s == ParticipantDelivered || s == ParticipantCancelled
}

var participantTransitions = map[ParticipantStatus][]ParticipantStatus{
	ParticipantPending:   {ParticipantConfirmed, ParticipantCancelled},
	ParticipantConfirmed: {ParticipantPickedUp, ParticipantCancelled},
	ParticipantPickedUp:  {ParticipantDelivered, ParticipantCancelled},
}

// CanMoveTo reports if a participant may move from the s status to the
// t status. Terminal statuses have no outgoing transition.
func (s ParticipantStatus) CanMoveTo(t ParticipantStatus) bool {
	return slices.Contains(participantTransitions[s], t)
}

// Participant binds one shipper (and optionally one of its requests)
// to one route. Its weight reservation is held by the ledger and is
// referenced by ReservationID.
type Participant struct {
	ID            uuid.UUID         `json:"id"`
	RouteID       uuid.UUID         `json:"route_id"`
	RequesterID   uuid.UUID         `json:"requester_id"`
	RequestID     *uuid.UUID        `json:"request_id,omitempty"`
	ReservationID uuid.UUID         `json:"-"`
	Weight        Weight            `json:"weight"`
	Status        ParticipantStatus `json:"status"`
	JoinedAt      time.Time         `json:"joined_at"`

	// Share is the agreed pro-rata price share, as recomputed by the
	// last membership change of its route.
	Share Money `json:"share"`
}

// Reservation is the ParticipantHandle of the capacity ledger. It
// records a committed weight on a route and whether it is released.
type Reservation struct {
	ID       uuid.UUID `json:"id"`
	RouteID  uuid.UUID `json:"route_id"`
	Weight   Weight    `json:"weight"`
	Released bool      `json:"released"`
}
