// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names a domain event which is published for the
// notification collaborator.
type EventKind string

// Published event kinds.
const (
	EventParticipantJoined    EventKind = "participant.joined"
	EventParticipantCancelled EventKind = "participant.cancelled"
	EventParticipantPickedUp  EventKind = "participant.picked_up"
	EventParticipantDelivered EventKind = "participant.delivered"
	EventRouteStarted         EventKind = "route.started"
	EventRouteCompleted       EventKind = "route.completed"
	EventRouteCancelled       EventKind = "route.cancelled"
)

// Event is a fact about a route or one of its participants.
type Event struct {
	Kind          EventKind  `json:"kind"`
	RouteID       uuid.UUID  `json:"route_id"`
	ParticipantID *uuid.UUID `json:"participant_id,omitempty"`
	ActorID       uuid.UUID  `json:"actor_id"`
	At            time.Time  `json:"at"`
}
