// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// RouteStatus is the state of a Route. The OPEN and FULL states are
// toggled by the capacity ledger alone, while other transitions are
// commanded by the route driver.
type RouteStatus string

// Valid values for the RouteStatus.
const (
	RouteOpen       RouteStatus = "open"        // accepting joins
	RouteFull       RouteStatus = "full"        // no capacity left
	RouteInProgress RouteStatus = "in_progress" // trip has started
	RouteCompleted  RouteStatus = "completed"   // terminal
	RouteCancelled  RouteStatus = "cancelled"   // terminal
)

// Terminal reports if no further transition may leave the s status.
func (s RouteStatus) Terminal() bool {
	return s == RouteCompleted || s == RouteCancelled
}

var routeTransitions = map[RouteStatus][]RouteStatus{
	RouteOpen:       {RouteFull, RouteInProgress, RouteCancelled},
	RouteFull:       {RouteOpen, RouteInProgress, RouteCancelled},
	RouteInProgress: {RouteCompleted, RouteCancelled},
}

// CanMoveTo reports if a route may move from the s status to the t
// status. Terminal statuses have no outgoing transition.
func (s RouteStatus) CanMoveTo(t RouteStatus) bool {
	return slices.Contains(routeTransitions[s], t)
}

// Route is a driver-published trip with a finite cargo capacity which
// other shippers may join. Committed and Version are owned by the
// capacity ledger; other components must treat them as read-only.
type Route struct {
	ID          uuid.UUID   `json:"id"`
	DriverID    uuid.UUID   `json:"driver_id"`
	VehicleID   *uuid.UUID  `json:"vehicle_id,omitempty"`
	VehicleType VehicleType `json:"vehicle_type"`
	TravelDate  time.Time   `json:"travel_date"`
	Start       Coordinate  `json:"start"`
	End         Coordinate  `json:"end"`
	Capacity    Weight      `json:"capacity"`
	PricePerKm  Money       `json:"price_per_km"`
	Status      RouteStatus `json:"status"`

	// Committed is the sum of reserved weights of the active
	// participants. It never exceeds Capacity.
	Committed Weight `json:"committed"`

	// Version is incremented by every update of the route row, so
	// concurrent writers can detect lost updates (compare-and-swap).
	Version int64 `json:"-"`

	// ClosedOut is set when the driver closes out an in-progress trip
	// while some participants are still on board. Delivering the last
	// of them completes the route.
	ClosedOut bool      `json:"closed_out"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the driver-provided fields of r.
func (r *Route) Validate() error {
	if err := r.VehicleType.Validate(); err != nil {
		return err
	}
	switch {
	case r.Capacity <= 0:
		return errors.New("capacity must be positive")
	case r.PricePerKm < 0:
		return errors.New("price per km must not be negative")
	case r.TravelDate.IsZero():
		return errors.New("travel date is required")
	}
	if err := r.Start.Validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := r.End.Validate(); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	return nil
}

// Remaining returns the capacity which is not committed yet.
func (r *Route) Remaining() Weight {
	return r.Capacity - r.Committed
}

// Departed reports if the travel date of r is before the calendar day
// of now.
func (r *Route) Departed(now time.Time) bool {
	return Day(r.TravelDate).Before(Day(now))
}

// RouteUpdate describes a compare-and-swap update of a route row. The
// update is applied only if the stored version still equals Version,
// and then the stored version is incremented.
type RouteUpdate struct {
	ID        uuid.UUID
	Version   int64
	Committed Weight
	Status    RouteStatus
	ClosedOut bool
}

// Update returns a RouteUpdate which keeps all mutable fields of r
// and expects its current version.
func (r *Route) Update() RouteUpdate {
	return RouteUpdate{
		ID:        r.ID,
		Version:   r.Version,
		Committed: r.Committed,
		Status:    r.Status,
		ClosedOut: r.ClosedOut,
	}
}

// RouteFilter restricts the routes which are listed by a repository.
// Zero values mean no restriction. The travel date window is half-open,
// so From is included and To is not; a window of whole calendar days
// ends at the midnight after its last day.
type RouteFilter struct {
	Statuses  []RouteStatus
	From, To  time.Time // travel date in [From, To)
	DriverID  uuid.UUID
	MinRemain Weight
}
