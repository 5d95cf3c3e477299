// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

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
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// JoinRoute reserves w kilograms of the rid route for the caller and
// returns its CONFIRMED participant. If requestID is not nil, that
// request of the caller is matched with the new participant and a zero
// w stands for the request weight. Nothing is stored if the route has
// not enough capacity (model.ErrCapacityExceeded) or is not open
// (model.ErrRouteNotOpen).
func (uc *UseCase) JoinRoute(
	ctx context.Context,
	caller model.Caller,
	rid uuid.UUID,
	w model.Weight,
	requestID *uuid.UUID,
) (*model.Participant, error) {
	if caller.Role == model.RoleSystem {
		return nil, unauthorized("system may not join routes")
	}
	var joined *model.Participant
	err := uc.withRoute(ctx, rid, func(
		ctx context.Context, tx repo.Tx, r *model.Route,
	) error {
		if r.DriverID == caller.ID {
			return unauthorized("driver may not join its own route")
		}
		p := &model.Participant{
			RouteID:     rid,
			RequesterID: caller.ID,
			RequestID:   requestID,
			Weight:      w,
			Status:      model.ParticipantPending,
			JoinedAt:    uc.now().UTC(),
		}
		if requestID != nil {
			if err := uc.claimRequest(ctx, tx, caller, p); err != nil {
				return err
			}
		}
		res, err := uc.ledger.ReserveTx(ctx, tx, rid, p.Weight)
		if err != nil {
			return err
		}
		p.ReservationID = res.ID
		p.Status = model.ParticipantConfirmed
		p, err = uc.participants.Tx(tx).Create(ctx, p)
		if err != nil {
			return fmt.Errorf("creating participant: %w", err)
		}
		shares, err := uc.recomputeShares(ctx, tx, r)
		if err != nil {
			return err
		}
		p.Share = shares[p.ID]
		joined = p
		return nil
	})
	switch {
	case errors.Is(err, model.ErrConcurrencyConflict):
		return nil, cerr.Conflict(fmt.Errorf(
			"joining route %s: %w: %w",
			rid, model.ErrCapacityExceeded, err,
		))
	case err != nil:
		return nil, fmt.Errorf("joining route %s: %w", rid, err)
	}
	log.Info(
		ctx, "participant joined",
		log.UUID("route", rid),
		log.UUID("participant", joined.ID),
		slog.Int64("weight", int64(joined.Weight)),
	)
	uc.publish(ctx, model.EventParticipantJoined, rid, &joined.ID, caller)
	return joined, nil
}

// claimRequest moves the request of p from OPEN to MATCHED, so no
// other participant may claim it, and fills the weight of p if it is
// zero.
func (uc *UseCase) claimRequest(
	ctx context.Context,
	tx repo.Tx,
	caller model.Caller,
	p *model.Participant,
) error {
	q := uc.requests.Tx(tx)
	req, err := q.Get(ctx, *p.RequestID)
	if err != nil {
		return fmt.Errorf("fetching request: %w", err)
	}
	switch {
	case req.ShipperID != caller.ID:
		return unauthorized("request %s is not owned by the caller", req.ID)
	case !req.Shareable:
		return cerr.BadRequest(fmt.Errorf(
			"request %s: %w", req.ID, model.ErrRequestNotShareable,
		))
	case p.Weight == 0:
		p.Weight = req.Weight
	case p.Weight > req.Weight:
		return cerr.BadRequest(fmt.Errorf(
			"weight %d is more than the request weight %d: %w",
			p.Weight, req.Weight, model.ErrInvalidWeight,
		))
	}
	ok, err := q.SwapStatus(ctx, req.ID, model.RequestOpen, model.RequestMatched)
	if err != nil {
		return fmt.Errorf("claiming request: %w", err)
	}
	if !ok {
		return cerr.Conflict(fmt.Errorf(
			"request %s is %s: %w", req.ID, req.Status, model.ErrRequestTaken,
		))
	}
	return nil
}

// CancelParticipant cancels the pid participant and releases its
// capacity, so a FULL route becomes OPEN again. A CONFIRMED participant
// may be cancelled by its requester, the route driver, or the system.
// A PICKED_UP participant may be cancelled by the route driver alone.
// Cancelling a terminal participant fails with
// model.ErrInvalidStateTransition.
func (uc *UseCase) CancelParticipant(
	ctx context.Context, caller model.Caller, pid uuid.UUID,
) error {
	rid, err := uc.participantRoute(ctx, pid)
	if err != nil {
		return err
	}
	err = uc.withRoute(ctx, rid, func(
		ctx context.Context, tx repo.Tx, r *model.Route,
	) error {
		p, err := uc.participants.Tx(tx).Get(ctx, pid)
		if err != nil {
			return fmt.Errorf("fetching participant: %w", err)
		}
		if !p.Status.CanMoveTo(model.ParticipantCancelled) {
			return invalidParticipantTransition(
				ctx, p, model.ParticipantCancelled,
			)
		}
		driver := caller.ID == r.DriverID && caller.Role != model.RoleSystem
		switch {
		case p.Status == model.ParticipantPickedUp && !driver:
			return unauthorized(
				"only the driver may cancel a picked up participant",
			)
		case driver, caller.Role == model.RoleSystem:
		case caller.ID != p.RequesterID:
			return unauthorized("participant %s is not the caller's", pid)
		}
		if err := uc.cancel(ctx, tx, p); err != nil {
			return err
		}
		_, err = uc.recomputeShares(ctx, tx, r)
		return err
	})
	if err != nil {
		return fmt.Errorf("cancelling participant %s: %w", pid, err)
	}
	log.Info(
		ctx, "participant cancelled",
		log.UUID("route", rid),
		log.UUID("participant", pid),
		slog.String("role", string(caller.Role)),
	)
	uc.publish(ctx, model.EventParticipantCancelled, rid, &pid, caller)
	return nil
}

// cancel moves p to CANCELLED, releases its reservation, and reopens
// its request. The caller must hold the route lock and recompute the
// price shares afterwards.
func (uc *UseCase) cancel(
	ctx context.Context, tx repo.Tx, p *model.Participant,
) error {
	ok, err := uc.participants.Tx(tx).SwapStatus(
		ctx, p.ID, p.Status, model.ParticipantCancelled,
	)
	if err != nil {
		return fmt.Errorf("updating participant: %w", err)
	}
	if !ok {
		return invalidParticipantTransition(
			ctx, p, model.ParticipantCancelled,
		)
	}
	if err := uc.ledger.ReleaseTx(ctx, tx, p.ReservationID); err != nil {
		return err
	}
	if p.RequestID == nil {
		return nil
	}
	q := uc.requests.Tx(tx)
	for _, from := range []model.RequestStatus{
		model.RequestMatched, model.RequestInTransit,
	} {
		ok, err := q.SwapStatus(ctx, *p.RequestID, from, model.RequestOpen)
		if err != nil {
			return fmt.Errorf("reopening request: %w", err)
		}
		if ok {
			break
		}
	}
	return nil
}

// AdvanceParticipant moves the pid participant forward to the target
// status, which must be PICKED_UP or DELIVERED, in that order. Only the
// route driver may advance participants and picking up requires the
// route to be IN_PROGRESS. A delivery releases the capacity of the
// participant and completes a closed out route if no other participant
// is still on board.
func (uc *UseCase) AdvanceParticipant(
	ctx context.Context,
	caller model.Caller,
	pid uuid.UUID,
	target model.ParticipantStatus,
) error {
	rid, err := uc.participantRoute(ctx, pid)
	if err != nil {
		return err
	}
	completed := false
	err = uc.withRoute(ctx, rid, func(
		ctx context.Context, tx repo.Tx, r *model.Route,
	) error {
		completed = false
		if caller.ID != r.DriverID || caller.Role == model.RoleSystem {
			return unauthorized("only the driver may advance participants")
		}
		q := uc.participants.Tx(tx)
		p, err := q.Get(ctx, pid)
		if err != nil {
			return fmt.Errorf("fetching participant: %w", err)
		}
		switch {
		case target != model.ParticipantPickedUp &&
			target != model.ParticipantDelivered,
			!p.Status.CanMoveTo(target):
			return invalidParticipantTransition(ctx, p, target)
		case target == model.ParticipantPickedUp &&
			r.Status != model.RouteInProgress:
			log.Warn(
				ctx, "pick up before the route is started",
				log.UUID("route", r.ID),
				log.UUID("participant", pid),
			)
			return cerr.Conflict(fmt.Errorf(
				"route %s is %s: %w",
				r.ID, r.Status, model.ErrInvalidStateTransition,
			))
		}
		ok, err := q.SwapStatus(ctx, pid, p.Status, target)
		if err != nil {
			return fmt.Errorf("updating participant: %w", err)
		}
		if !ok {
			return invalidParticipantTransition(ctx, p, target)
		}
		if err := uc.followRequest(ctx, tx, p, target); err != nil {
			return err
		}
		if target == model.ParticipantPickedUp {
			return nil
		}
		if err := uc.ledger.ReleaseTx(ctx, tx, p.ReservationID); err != nil {
			return err
		}
		completed, err = uc.completeIfDone(ctx, tx, rid)
		return err
	})
	if err != nil {
		return fmt.Errorf("advancing participant %s: %w", pid, err)
	}
	log.Info(
		ctx, "participant advanced",
		log.UUID("route", rid),
		log.UUID("participant", pid),
		slog.String("status", string(target)),
	)
	kind := model.EventParticipantPickedUp
	if target == model.ParticipantDelivered {
		kind = model.EventParticipantDelivered
	}
	uc.publish(ctx, kind, rid, &pid, caller)
	if completed {
		uc.publish(ctx, model.EventRouteCompleted, rid, nil, caller)
	}
	return nil
}

// followRequest keeps the request of p in step with its participant.
func (uc *UseCase) followRequest(
	ctx context.Context,
	tx repo.Tx,
	p *model.Participant,
	target model.ParticipantStatus,
) error {
	if p.RequestID == nil {
		return nil
	}
	from, to := model.RequestMatched, model.RequestInTransit
	if target == model.ParticipantDelivered {
		from, to = model.RequestInTransit, model.RequestCompleted
	}
	_, err := uc.requests.Tx(tx).SwapStatus(ctx, *p.RequestID, from, to)
	if err != nil {
		return fmt.Errorf("updating request: %w", err)
	}
	return nil
}

// completeIfDone moves the rid route to COMPLETED if it is closed out
// and has no active participant anymore.
func (uc *UseCase) completeIfDone(
	ctx context.Context, tx repo.Tx, rid uuid.UUID,
) (bool, error) {
	r, err := uc.routes.Tx(tx).Get(ctx, rid)
	if err != nil {
		return false, fmt.Errorf("fetching route: %w", err)
	}
	if !r.ClosedOut || r.Status != model.RouteInProgress {
		return false, nil
	}
	active, err := uc.participants.Tx(tx).ListByRoute(ctx, rid, true)
	if err != nil {
		return false, fmt.Errorf("listing participants: %w", err)
	}
	if len(active) > 0 {
		return false, nil
	}
	if err := uc.swapRoute(ctx, tx, r, model.RouteCompleted, true); err != nil {
		return false, err
	}
	return true, nil
}

func (uc *UseCase) participantRoute(
	ctx context.Context, pid uuid.UUID,
) (rid uuid.UUID, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		p, err := uc.participants.Conn(c).Get(ctx, pid)
		if err != nil {
			return err
		}
		rid = p.RouteID
		return nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("fetching participant %s: %w", pid, err)
	}
	return rid, nil
}

// ExpireStale cancels, on behalf of the system, every CONFIRMED
// participant whose route travel date is before the day of now. It
// returns the number of cancelled participants. Participants which
// are advanced or cancelled concurrently are skipped.
func (uc *UseCase) ExpireStale(
	ctx context.Context, now time.Time,
) (n int, err error) {
	var stale []*model.Participant
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		stale, err = uc.participants.Conn(c).ListStale(ctx, model.Day(now))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("listing stale participants: %w", err)
	}
	var errs []error
	for _, p := range stale {
		err := uc.CancelParticipant(ctx, model.SystemCaller, p.ID)
		switch {
		case err == nil:
			n++
		case errors.Is(err, model.ErrInvalidStateTransition),
			errors.Is(err, model.ErrUnauthorized):
			log.Debug(
				ctx, "stale participant has moved on",
				log.UUID("participant", p.ID),
			)
		default:
			errs = append(errs, err)
		}
	}
	log.Info(
		ctx, "stale participants are expired",
		slog.Int("expired", n),
		slog.Int("failed", len(errs)),
		slog.String("before", model.Day(now).Format(time.DateOnly)),
	)
	return n, errors.Join(errs...)
}
