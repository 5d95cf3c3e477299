// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routesuc contains the routes UseCase which lets drivers
// publish and drive their routes and lets shippers join them. It owns
// the state machines of routes and participants, while all capacity
// changes are delegated to the ledger use case.
//
// Every membership change of a route runs in one transaction which
// holds the route lock. The reservation, the participant status, the
// request status, and the price shares of that route are therefore
// committed together, and a cancellation cannot race a pick up of the
// same participant.
package routesuc

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
	"github.com/m33pooh/plookaraid/pkg/core/notify"
	"github.com/m33pooh/plookaraid/pkg/core/pricing"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/ledgeruc"
)

// UseCase represents the routes use case. It holds a database
// connection pool, the repositories of routes and their related
// entities, and the ledger which owns the routes capacity.
type UseCase struct {
	pool         repo.Pool
	routes       repo.Routes
	participants repo.Participants
	requests     repo.Requests
	vehicles     repo.Vehicles
	ledger       *ledgeruc.UseCase

	publisher notify.Publisher
	now       func() time.Time
}

// New instantiates a routes use case.
func New(
	p repo.Pool,
	routes repo.Routes,
	participants repo.Participants,
	requests repo.Requests,
	vehicles repo.Vehicles,
	ledger *ledgeruc.UseCase,
	opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{
		pool:         p,
		routes:       routes,
		participants: participants,
		requests:     requests,
		vehicles:     vehicles,
		ledger:       ledger,
	}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if uc.publisher == nil {
		uc.publisher = notify.Discard{}
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc, nil
}

// Details describes a route, its participants which are visible to
// the caller, and its pricing figures.
type Details struct {
	Route        *model.Route         `json:"route"`
	Participants []*model.Participant `json:"participants"`
	DistanceKm   float64              `json:"distance_km"`
	TotalCost    model.Money          `json:"total_cost"`
}

// CreateRoute publishes r as a new OPEN route of the caller driver.
// If r refers to a vehicle, it must be owned by the caller, have the
// same type, and carry at least the route capacity. A zero price per
// km is taken from that vehicle.
func (uc *UseCase) CreateRoute(
	ctx context.Context, caller model.Caller, r *model.Route,
) (created *model.Route, err error) {
	if caller.Role != model.RoleDriver {
		return nil, unauthorized("only drivers may publish routes")
	}
	rr := *r
	rr.DriverID = caller.ID
	rr.Status = model.RouteOpen
	rr.Committed = 0
	rr.ClosedOut = false
	rr.TravelDate = model.Day(r.TravelDate)
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		if rr.VehicleID != nil {
			v, err := uc.vehicles.Conn(c).Get(ctx, *rr.VehicleID)
			if err != nil {
				return fmt.Errorf("fetching vehicle: %w", err)
			}
			if err := vehicleFits(caller, &rr, v); err != nil {
				return err
			}
		}
		if err := rr.Validate(); err != nil {
			return cerr.BadRequest(fmt.Errorf("invalid route: %w", err))
		}
		if rr.Departed(uc.now()) {
			return cerr.BadRequest(fmt.Errorf(
				"travel date %s is over: %w",
				rr.TravelDate.Format(time.DateOnly), model.ErrRouteNotOpen,
			))
		}
		created, err = uc.routes.Conn(c).Create(ctx, &rr)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating route: %w", err)
	}
	log.Info(
		ctx, "route is published",
		log.UUID("route", created.ID),
		log.UUID("driver", caller.ID),
		slog.Int64("capacity", int64(created.Capacity)),
	)
	return created, nil
}

func vehicleFits(caller model.Caller, r *model.Route, v *model.Vehicle) error {
	if v.OwnerID != caller.ID {
		return unauthorized("vehicle %s is not owned by the driver", v.ID)
	}
	if r.VehicleType == model.VehicleTypeInvalid {
		r.VehicleType = v.Type
	}
	if r.PricePerKm == 0 {
		r.PricePerKm = v.PricePerKm
	}
	switch {
	case r.VehicleType != v.Type:
		return cerr.BadRequest(errors.New("vehicle type does not match"))
	case r.Capacity > v.Capacity:
		return cerr.BadRequest(fmt.Errorf(
			"capacity %d is more than the vehicle capacity %d",
			r.Capacity, v.Capacity,
		))
	}
	return nil
}

// GetRoute returns the rid route with its pricing figures. The route
// driver observes all participants, while other callers only observe
// their own participants.
func (uc *UseCase) GetRoute(
	ctx context.Context, caller model.Caller, rid uuid.UUID,
) (*Details, error) {
	d := &Details{}
	err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		r, err := uc.routes.Conn(c).Get(ctx, rid)
		if err != nil {
			return err
		}
		ps, err := uc.participants.Conn(c).ListByRoute(ctx, rid, false)
		if err != nil {
			return fmt.Errorf("listing participants: %w", err)
		}
		d.Route = r
		d.Participants = make([]*model.Participant, 0, len(ps))
		for _, p := range ps {
			if caller.ID == r.DriverID || caller.Role == model.RoleSystem ||
				caller.ID == p.RequesterID {
				d.Participants = append(d.Participants, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching route %s: %w", rid, err)
	}
	d.DistanceKm = pricing.RouteDistance(d.Route)
	d.TotalCost = pricing.TotalRouteCost(d.Route)
	return d, nil
}

// Quote returns the price share which a rider of w kilograms would
// pay if it joins the rid route now. The quote is not binding, since
// other riders may join or leave before that rider. A weight which
// does not fit in the remaining capacity of the ledger is rejected.
func (uc *UseCase) Quote(
	ctx context.Context, rid uuid.UUID, w model.Weight,
) (model.Money, error) {
	if w <= 0 {
		return 0, cerr.BadRequest(
			fmt.Errorf("quoting %d: %w", w, model.ErrInvalidWeight),
		)
	}
	remaining, err := uc.ledger.RemainingCapacity(ctx, rid)
	if err != nil {
		return 0, err
	}
	if w > remaining {
		return 0, cerr.Conflict(fmt.Errorf(
			"quoting %d out of %d remaining: %w",
			w, remaining, model.ErrCapacityExceeded,
		))
	}
	var q model.Money
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		r, err := uc.routes.Conn(c).Get(ctx, rid)
		if err != nil {
			return err
		}
		ps, err := uc.participants.Conn(c).ListByRoute(ctx, rid, false)
		if err != nil {
			return fmt.Errorf("listing participants: %w", err)
		}
		q = pricing.ParticipantShare(r, &model.Participant{
			ID:     uuid.New(),
			Weight: w,
			Status: model.ParticipantPending,
		}, ps)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("quoting route %s: %w", rid, err)
	}
	return q, nil
}

// withRoute runs f in a transaction which holds the rid route lock and
// passes the current state of that route to f. It retries the whole
// transaction while f fails with model.ErrConcurrencyConflict, as many
// times as the ledger retries a reservation.
func (uc *UseCase) withRoute(
	ctx context.Context,
	rid uuid.UUID,
	f func(ctx context.Context, tx repo.Tx, r *model.Route) error,
) error {
	attempts := uc.ledger.Retries()
	for attempt := 1; ; attempt++ {
		err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
			return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
				q := uc.routes.Tx(tx)
				if err := q.Lock(ctx, rid); err != nil {
					return fmt.Errorf("locking route: %w", err)
				}
				r, err := q.Get(ctx, rid)
				if err != nil {
					return fmt.Errorf("fetching route: %w", err)
				}
				return f(ctx, tx, r)
			})
		})
		if !errors.Is(err, model.ErrConcurrencyConflict) {
			return err
		}
		if attempt == attempts {
			return cerr.Conflict(fmt.Errorf(
				"route %s after %d attempts: %w", rid, attempts, err,
			))
		}
		log.Debug(
			ctx, "route update lost a race, retrying",
			log.UUID("route", rid),
			slog.Int("attempt", attempt),
		)
	}
}

// swapRoute moves r to the to status, keeping its committed weight.
func (uc *UseCase) swapRoute(
	ctx context.Context, tx repo.Tx, r *model.Route,
	to model.RouteStatus, closedOut bool,
) error {
	if !r.Status.CanMoveTo(to) {
		return invalidRouteTransition(ctx, r, to)
	}
	u := r.Update()
	u.Status = to
	u.ClosedOut = closedOut
	ok, err := uc.routes.Tx(tx).Swap(ctx, u)
	if err != nil {
		return fmt.Errorf("updating route: %w", err)
	}
	if !ok {
		return model.ErrConcurrencyConflict
	}
	r.Status, r.ClosedOut = to, closedOut
	r.Version++
	return nil
}

// recomputeShares stores the price shares of all participants of r.
// Cancelled participants pay nothing. The caller must hold the r route
// lock.
func (uc *UseCase) recomputeShares(
	ctx context.Context, tx repo.Tx, r *model.Route,
) (map[uuid.UUID]model.Money, error) {
	q := uc.participants.Tx(tx)
	ps, err := q.ListByRoute(ctx, r.ID, false)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	shares := pricing.Shares(r, ps)
	for _, p := range ps {
		if _, ok := shares[p.ID]; !ok {
			shares[p.ID] = 0
		}
	}
	if err := q.UpdateShares(ctx, shares); err != nil {
		return nil, fmt.Errorf("updating shares: %w", err)
	}
	return shares, nil
}

func (uc *UseCase) publish(
	ctx context.Context,
	kind model.EventKind,
	rid uuid.UUID,
	pid *uuid.UUID,
	actor model.Caller,
) {
	e := model.Event{
		Kind:          kind,
		RouteID:       rid,
		ParticipantID: pid,
		ActorID:       actor.ID,
		At:            uc.now().UTC(),
	}
	if err := uc.publisher.Publish(ctx, e); err != nil {
		log.Warn(
			ctx, "cannot publish event",
			slog.String("kind", string(kind)),
			log.UUID("route", rid),
			log.Err("err", err),
		)
	}
}

func unauthorized(format string, args ...any) error {
	return cerr.Authorization(fmt.Errorf(
		format+": %w", append(args, model.ErrUnauthorized)...,
	))
}

func invalidRouteTransition(
	ctx context.Context, r *model.Route, to model.RouteStatus,
) error {
	log.Warn(
		ctx, "invalid route transition",
		log.UUID("route", r.ID),
		slog.String("from", string(r.Status)),
		slog.String("to", string(to)),
	)
	return cerr.Conflict(fmt.Errorf(
		"route %s from %s to %s: %w",
		r.ID, r.Status, to, model.ErrInvalidStateTransition,
	))
}

func invalidParticipantTransition(
	ctx context.Context, p *model.Participant, to model.ParticipantStatus,
) error {
	log.Warn(
		ctx, "invalid participant transition",
		log.UUID("participant", p.ID),
		slog.String("from", string(p.Status)),
		slog.String("to", string(to)),
	)
	return cerr.Conflict(fmt.Errorf(
		"participant %s from %s to %s: %w",
		p.ID, p.Status, to, model.ErrInvalidStateTransition,
	))
}
