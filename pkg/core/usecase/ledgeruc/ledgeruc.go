// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ledgeruc contains the route capacity ledger UseCase. The
// ledger is the only component which may change the committed weight
// of a route. It guarantees that the committed weight never exceeds
// the route capacity, even when many reservations race for the same
// route, and toggles the route between the OPEN and FULL states as a
// consequence of its remaining capacity.
//
// Every writer of a route takes its lock within the transaction, so
// a writer never observes the uncommitted weight of another one, and
// the updates are also guarded by a compare-and-swap over the route
// version. Routes are independent, so operations on different routes
// never wait for each other.
package ledgeruc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/cerr"
	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// DefaultReserveRetries is the number of compare-and-swap attempts of
// a reservation when WithReserveRetries is not given.
const DefaultReserveRetries = 8

// UseCase represents the capacity ledger use case. It holds a database
// connection pool and the routes and reservations repositories.
type UseCase struct {
	pool         repo.Pool
	routes       repo.Routes
	reservations repo.Reservations

	retries int
	now     func() time.Time
}

// New instantiates a ledger use case.
func New(
	p repo.Pool,
	routes repo.Routes,
	reservations repo.Reservations,
	opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{pool: p, routes: routes, reservations: reservations}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if uc.retries == 0 {
		uc.retries = DefaultReserveRetries
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc, nil
}

// Reserve commits w kilograms of the rid route capacity and returns
// the reservation which acts as the handle for a later Release.
// It fails without side effects with an error wrapping
// model.ErrCapacityExceeded if less than w is remaining, or
// model.ErrRouteNotOpen if the route is not OPEN or its travel date
// is over. Reserve is the authoritative capacity check; a stale view
// which promised enough capacity does not matter.
func (l *UseCase) Reserve(
	ctx context.Context, rid uuid.UUID, w model.Weight,
) (*model.Reservation, error) {
	if w <= 0 {
		return nil, cerr.BadRequest(
			fmt.Errorf("reserving %d: %w", w, model.ErrInvalidWeight),
		)
	}
	for attempt := 1; attempt <= l.retries; attempt++ {
		res, err := l.tryReserve(ctx, rid, w)
		if !errors.Is(err, model.ErrConcurrencyConflict) {
			return res, err
		}
		log.Debug(
			ctx, "reservation lost a race, retrying",
			log.UUID("route", rid),
			slog.Int("attempt", attempt),
		)
	}
	log.Warn(
		ctx, "reservation retries are exhausted",
		log.UUID("route", rid),
		slog.Int64("weight", int64(w)),
	)
	return nil, cerr.Conflict(fmt.Errorf(
		"route %s is contended after %d attempts: %w",
		rid, l.retries, model.ErrCapacityExceeded,
	))
}

func (l *UseCase) tryReserve(
	ctx context.Context, rid uuid.UUID, w model.Weight,
) (res *model.Reservation, err error) {
	err = l.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			res, err = l.ReserveTx(ctx, tx, rid, w)
			return err
		})
	})
	if err != nil {
		res = nil
	}
	return
}

// ReserveTx makes one attempt to reserve w kilograms of the rid route
// as part of the ongoing tx transaction. In addition to the Reserve
// failures, it returns model.ErrConcurrencyConflict (unwrapped) if the
// route was updated concurrently, so the caller may roll back and
// retry the whole transaction. The route lock is taken (if tx does not
// hold it already) and kept until tx is finished.
func (l *UseCase) ReserveTx(
	ctx context.Context, tx repo.Tx, rid uuid.UUID, w model.Weight,
) (*model.Reservation, error) {
	if w <= 0 {
		return nil, cerr.BadRequest(
			fmt.Errorf("reserving %d: %w", w, model.ErrInvalidWeight),
		)
	}
	routes := l.routes.Tx(tx)
	if err := routes.Lock(ctx, rid); err != nil {
		return nil, fmt.Errorf("locking route: %w", err)
	}
	r, err := routes.Get(ctx, rid)
	if err != nil {
		return nil, fmt.Errorf("fetching route: %w", err)
	}
	switch {
	case r.Status != model.RouteOpen:
		return nil, cerr.Conflict(fmt.Errorf(
			"route %s is %s: %w", rid, r.Status, model.ErrRouteNotOpen,
		))
	case r.Departed(l.now()):
		return nil, cerr.Conflict(fmt.Errorf(
			"route %s travelled on %s: %w", rid,
			r.TravelDate.Format(time.DateOnly), model.ErrRouteNotOpen,
		))
	case w > r.Remaining():
		return nil, cerr.Conflict(fmt.Errorf(
			"reserving %d out of %d remaining: %w",
			w, r.Remaining(), model.ErrCapacityExceeded,
		))
	}
	u := r.Update()
	u.Committed += w
	if u.Committed == r.Capacity {
		u.Status = model.RouteFull
	}
	ok, err := routes.Swap(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("updating route: %w", err)
	}
	if !ok {
		return nil, model.ErrConcurrencyConflict
	}
	res, err := l.reservations.Tx(tx).Create(ctx, &model.Reservation{
		RouteID: rid,
		Weight:  w,
	})
	if err != nil {
		return nil, fmt.Errorf("creating reservation: %w", err)
	}
	return res, nil
}

// Release returns the weight of the id reservation to its route. It is
// idempotent: releasing an already released reservation is a no-op.
// A FULL route becomes OPEN again, while the status of routes in other
// states is kept. Release never gives up because of concurrent writers
// (each lost race means that another update of the route succeeded),
// but it stops if ctx is done.
func (l *UseCase) Release(ctx context.Context, id uuid.UUID) error {
	for {
		err := l.tryRelease(ctx, id)
		if !errors.Is(err, model.ErrConcurrencyConflict) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("releasing %s: %w", id, err)
		}
	}
}

func (l *UseCase) tryRelease(ctx context.Context, id uuid.UUID) error {
	return l.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			return l.ReleaseTx(ctx, tx, id)
		})
	})
}

// ReleaseTx makes one attempt to release the id reservation as part of
// the ongoing tx transaction. If the route was updated concurrently,
// it returns model.ErrConcurrencyConflict (unwrapped) and the caller
// must roll back, so the reservation is not left marked as released.
// Like ReserveTx, it keeps the route lock until tx is finished.
func (l *UseCase) ReleaseTx(
	ctx context.Context, tx repo.Tx, id uuid.UUID,
) error {
	reservations := l.reservations.Tx(tx)
	res, err := reservations.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching reservation: %w", err)
	}
	routes := l.routes.Tx(tx)
	if err := routes.Lock(ctx, res.RouteID); err != nil {
		return fmt.Errorf("locking route: %w", err)
	}
	first, err := reservations.MarkReleased(ctx, id)
	if err != nil {
		return fmt.Errorf("marking reservation: %w", err)
	}
	if !first {
		return nil
	}
	r, err := routes.Get(ctx, res.RouteID)
	if err != nil {
		return fmt.Errorf("fetching route: %w", err)
	}
	u := r.Update()
	u.Committed -= res.Weight
	if u.Committed < 0 {
		return fmt.Errorf("route %s would commit %d", r.ID, u.Committed)
	}
	if r.Status == model.RouteFull && u.Committed < r.Capacity {
		u.Status = model.RouteOpen
	}
	ok, err := routes.Swap(ctx, u)
	if err != nil {
		return fmt.Errorf("updating route: %w", err)
	}
	if !ok {
		return model.ErrConcurrencyConflict
	}
	return nil
}

// Retries returns the configured number of compare-and-swap attempts,
// so callers which wrap ReserveTx in their own transactions may use
// the same budget.
func (l *UseCase) Retries() int {
	return l.retries
}

// RemainingCapacity returns the capacity of the rid route which is
// not committed yet. The result may be stale as soon as it is returned;
// callers which need a guarantee must call Reserve and treat its
// failure as authoritative.
func (l *UseCase) RemainingCapacity(
	ctx context.Context, rid uuid.UUID,
) (model.Weight, error) {
	r, err := l.route(ctx, rid)
	if err != nil {
		return 0, err
	}
	return r.Remaining(), nil
}

// TotalCommitted returns the sum of the reserved weights of the active
// participants of the rid route.
func (l *UseCase) TotalCommitted(
	ctx context.Context, rid uuid.UUID,
) (model.Weight, error) {
	r, err := l.route(ctx, rid)
	if err != nil {
		return 0, err
	}
	return r.Committed, nil
}

func (l *UseCase) route(
	ctx context.Context, rid uuid.UUID,
) (r *model.Route, err error) {
	err = l.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		r, err = l.routes.Conn(c).Get(ctx, rid)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching route %s: %w", rid, err)
	}
	return r, nil
}
