// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

// RoutesQueryer lists the routes queries which may be executed with
// either a connection or an ongoing transaction.
type RoutesQueryer interface {
	// Create stores r, assigning its ID, Version, and CreatedAt.
	Create(ctx context.Context, r *model.Route) (*model.Route, error)

	// Get returns the rid route or a cerr.NotFound error which wraps
	// model.ErrNotFound.
	Get(ctx context.Context, rid uuid.UUID) (*model.Route, error)

	// List returns the routes which match f, ordered by travel date
	// and then by their ID.
	List(ctx context.Context, f model.RouteFilter) ([]*model.Route, error)

	// Swap applies u if and only if the stored version of the route
	// still equals u.Version. It reports whether the update was
	// applied. A missing route is reported as a cerr.NotFound error.
	Swap(ctx context.Context, u model.RouteUpdate) (bool, error)

	// Lock blocks until no other transaction holds the lock of the rid
	// route and then holds it until the ongoing transaction ends. It is
	// used to serialize the membership changes of one route, while the
	// capacity bookkeeping relies on Swap alone. Lock may only be used
	// by a transaction-based queryer.
	Lock(ctx context.Context, rid uuid.UUID) error
}

// Routes is the routes repository.
type Routes interface {
	Conn(Conn) RoutesQueryer
	Tx(Tx) RoutesQueryer
}

// ReservationsQueryer lists the reservations queries.
type ReservationsQueryer interface {
	Create(ctx context.Context, r *model.Reservation) (*model.Reservation, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Reservation, error)

	// MarkReleased flags the id reservation as released. It reports
	// false if the reservation was already released, so concurrent
	// releases of one reservation can be told apart.
	MarkReleased(ctx context.Context, id uuid.UUID) (bool, error)
}

// Reservations is the capacity reservations repository.
type Reservations interface {
	Conn(Conn) ReservationsQueryer
	Tx(Tx) ReservationsQueryer
}
