// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package routesuc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// StartRoute moves an OPEN or FULL route of the caller driver to the
// IN_PROGRESS status. No participant may join it anymore, while the
// confirmed participants may be picked up.
func (uc *UseCase) StartRoute(
	ctx context.Context, caller model.Caller, rid uuid.UUID,
) (*model.Route, error) {
	r, err := uc.driverCommand(ctx, caller, rid, func(
		ctx context.Context, tx repo.Tx, r *model.Route,
	) error {
		return uc.swapRoute(ctx, tx, r, model.RouteInProgress, false)
	})
	if err != nil {
		return nil, fmt.Errorf("starting route %s: %w", rid, err)
	}
	uc.publish(ctx, model.EventRouteStarted, rid, nil, caller)
	return r, nil
}

// CloseOutRoute declares that the IN_PROGRESS trip of the caller
// driver is over. The route becomes COMPLETED right away if none of its
// participants is active, otherwise, it is marked as closed out and
// delivering its last active participant completes it.
func (uc *UseCase) CloseOutRoute(
	ctx context.Context, caller model.Caller, rid uuid.UUID,
) (*model.Route, error) {
	r, err := uc.driverCommand(ctx, caller, rid, func(
		ctx context.Context, tx repo.Tx, r *model.Route,
	) error {
		if r.Status != model.RouteInProgress || r.ClosedOut {
			return invalidRouteTransition(ctx, r, model.RouteCompleted)
		}
		active, err := uc.participants.Tx(tx).ListByRoute(ctx, rid, true)
		if err != nil {
			return fmt.Errorf("listing participants: %w", err)
		}
		if len(active) > 0 {
			log.Info(
				ctx, "route is closed out with cargo on board",
				log.UUID("route", rid),
				slog.Int("active", len(active)),
			)
			u := r.Update()
			u.ClosedOut = true
			ok, err := uc.routes.Tx(tx).Swap(ctx, u)
			if err != nil {
				return fmt.Errorf("updating route: %w", err)
			}
			if !ok {
				return model.ErrConcurrencyConflict
			}
			r.ClosedOut = true
			r.Version++
			return nil
		}
		return uc.swapRoute(ctx, tx, r, model.RouteCompleted, true)
	})
	if err != nil {
		return nil, fmt.Errorf("closing out route %s: %w", rid, err)
	}
	if r.Status == model.RouteCompleted {
		uc.publish(ctx, model.EventRouteCompleted, rid, nil, caller)
	}
	return r, nil
}

// CancelRoute cancels a non-terminal route of the caller driver. All
// of its active participants are cancelled by force and their capacity
// is released, so the route bookkeeping stays consistent. Cancelling
// participants which are already picked up contradicts their cargo
// being on board; it is permitted for the driver, but logged as a
// warning.
func (uc *UseCase) CancelRoute(
	ctx context.Context, caller model.Caller, rid uuid.UUID,
) (*model.Route, error) {
	var cancelled []uuid.UUID
	r, err := uc.driverCommand(ctx, caller, rid, func(
		ctx context.Context, tx repo.Tx, r *model.Route,
	) error {
		cancelled = cancelled[:0]
		if err := uc.swapRoute(ctx, tx, r, model.RouteCancelled, r.ClosedOut); err != nil {
			return err
		}
		active, err := uc.participants.Tx(tx).ListByRoute(ctx, rid, true)
		if err != nil {
			return fmt.Errorf("listing participants: %w", err)
		}
		for _, p := range active {
			if p.Status == model.ParticipantPickedUp {
				log.Warn(
					ctx, "cancelling route with cargo on board",
					log.UUID("route", rid),
					log.UUID("participant", p.ID),
					slog.Int64("weight", int64(p.Weight)),
				)
			}
			if err := uc.cancel(ctx, tx, p); err != nil {
				return err
			}
			cancelled = append(cancelled, p.ID)
		}
		if _, err := uc.recomputeShares(ctx, tx, r); err != nil {
			return err
		}
		// the ledger has updated the route while releasing capacity
		rr, err := uc.routes.Tx(tx).Get(ctx, rid)
		if err != nil {
			return fmt.Errorf("fetching route: %w", err)
		}
		*r = *rr
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancelling route %s: %w", rid, err)
	}
	log.Info(
		ctx, "route is cancelled",
		log.UUID("route", rid),
		slog.Int("participants", len(cancelled)),
	)
	for _, pid := range cancelled {
		pid := pid
		uc.publish(ctx, model.EventParticipantCancelled, rid, &pid, caller)
	}
	uc.publish(ctx, model.EventRouteCancelled, rid, nil, caller)
	return r, nil
}

// driverCommand runs f while holding the rid route lock, after making
// sure that the caller is the route driver, and returns the route as
// it is left by f.
func (uc *UseCase) driverCommand(
	ctx context.Context,
	caller model.Caller,
	rid uuid.UUID,
	f func(ctx context.Context, tx repo.Tx, r *model.Route) error,
) (route *model.Route, err error) {
	err = uc.withRoute(ctx, rid, func(
		ctx context.Context, tx repo.Tx, r *model.Route,
	) error {
		if caller.ID != r.DriverID || caller.Role != model.RoleDriver {
			return unauthorized("route %s is not driven by the caller", rid)
		}
		if err := f(ctx, tx, r); err != nil {
			return err
		}
		route = r
		return nil
	})
	return route, err
}
