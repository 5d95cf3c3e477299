// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package matchinguc contains the route matching UseCase. It searches
// the OPEN routes which may carry a shareable cargo request and ranks
// them by their detour, remaining capacity, and price quote.
//
// Searching is read-only and may observe a stale view of the routes.
// A stale candidate is harmless, because joining it goes through the
// capacity ledger which rejects the join if the capacity is gone.
package matchinguc

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/cerr"
	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/pricing"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// Defaults of the matching settings.
const (
	DefaultDateToleranceDays = 0
	DefaultDetourFactor      = 2.0
)

// epsilonKm absorbs the floating point error of the detour
// computation, so a route which passes exactly through the pickup and
// dropoff locations has no detour.
const epsilonKm = 1e-9

// UseCase represents the route matching use case. It holds a database
// connection pool and the routes and requests repositories. The routes
// repository may serve a cached view of the routes.
type UseCase struct {
	pool     repo.Pool
	routes   repo.Routes
	requests repo.Requests

	tolerance *int
	factor    *float64
	now       func() time.Time
}

// Candidate is one route which may carry a cargo request.
type Candidate struct {
	Route *model.Route `json:"route"`

	// DetourKm is the extra distance which the route driver has to
	// travel in order to pick up and drop off the cargo.
	DetourKm  float64      `json:"detour_km"`
	Remaining model.Weight `json:"remaining"`
	Quote     model.Money  `json:"quote"`
}

// New instantiates a matching use case.
func New(
	p repo.Pool, routes repo.Routes, requests repo.Requests, opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{pool: p, routes: routes, requests: requests}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if uc.tolerance == nil {
		d := DefaultDateToleranceDays
		uc.tolerance = &d
	}
	if uc.factor == nil {
		f := DefaultDetourFactor
		uc.factor = &f
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc, nil
}

// SearchRequest finds the candidate routes of the qid cargo request of
// the caller. The request must be OPEN and shareable.
func (uc *UseCase) SearchRequest(
	ctx context.Context, caller model.Caller, qid uuid.UUID,
) ([]Candidate, error) {
	var req *model.Request
	err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) (err error) {
		req, err = uc.requests.Conn(c).Get(ctx, qid)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching request %s: %w", qid, err)
	}
	if req.ShipperID != caller.ID && caller.Role != model.RoleSystem {
		return nil, cerr.Authorization(fmt.Errorf(
			"request %s is not the caller's: %w", qid, model.ErrUnauthorized,
		))
	}
	if req.Status != model.RequestOpen {
		return nil, cerr.Conflict(fmt.Errorf(
			"request %s is %s: %w", qid, req.Status, model.ErrRequestTaken,
		))
	}
	return uc.Search(ctx, req)
}

// Search finds the OPEN routes which may carry the req cargo request.
// A route is a candidate if its travel date is within the tolerance of
// the requested date, it has enough remaining capacity, and its detour
// is at most the detour factor times the direct pickup to dropoff
// distance. Candidates are ordered by their detour (ascending), their
// remaining capacity (descending), their quote (ascending), and their
// ID, so equal inputs always give the same order.
func (uc *UseCase) Search(
	ctx context.Context, req *model.Request,
) ([]Candidate, error) {
	if !req.Shareable {
		return nil, cerr.BadRequest(fmt.Errorf(
			"request %s: %w", req.ID, model.ErrRequestNotShareable,
		))
	}
	if req.Weight <= 0 {
		return nil, cerr.BadRequest(fmt.Errorf(
			"request %s: %w", req.ID, model.ErrInvalidWeight,
		))
	}
	day := model.Day(req.RequestedDate)
	tol := *uc.tolerance
	f := model.RouteFilter{
		Statuses:  []model.RouteStatus{model.RouteOpen},
		From:      day.AddDate(0, 0, -tol),
		To:        day.AddDate(0, 0, tol+1),
		MinRemain: req.Weight,
	}
	if today := model.Day(uc.now()); f.From.Before(today) {
		f.From = today
	}
	var routes []*model.Route
	err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) (err error) {
		routes, err = uc.routes.Conn(c).List(ctx, f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing routes: %w", err)
	}
	direct := pricing.Distance(req.Pickup, req.Dropoff)
	limit := *uc.factor*direct + epsilonKm
	cs := make([]Candidate, 0, len(routes))
	for _, r := range routes {
		// the view may be stale, so the filter is checked again;
		// Committed is only written by the ledger, so Remaining is
		// the same figure as ledgeruc.RemainingCapacity
		if r.Status != model.RouteOpen || r.Remaining() < req.Weight ||
			r.DriverID == req.ShipperID {
			continue
		}
		detour := Detour(r, req)
		if detour > limit {
			continue
		}
		cs = append(cs, Candidate{
			Route:     r,
			DetourKm:  detour,
			Remaining: r.Remaining(),
			Quote:     pricing.Quote(r, r.Committed, req.Weight),
		})
	}
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		switch {
		case a.DetourKm != b.DetourKm:
			return a.DetourKm < b.DetourKm
		case a.Remaining != b.Remaining:
			return a.Remaining > b.Remaining
		case a.Quote != b.Quote:
			return a.Quote < b.Quote
		}
		return a.Route.ID.String() < b.Route.ID.String()
	})
	log.Debug(
		ctx, "routes are matched",
		log.UUID("request", req.ID),
		slog.Int("listed", len(routes)),
		slog.Int("candidates", len(cs)),
	)
	return cs, nil
}

// Detour returns the extra kilometers which the r route has to travel
// in order to go from its start to the pickup, then to the dropoff,
// and finally to its end, instead of going directly. It is never
// negative.
func Detour(r *model.Route, req *model.Request) float64 {
	via := pricing.Distance(r.Start, req.Pickup) +
		pricing.Distance(req.Pickup, req.Dropoff) +
		pricing.Distance(req.Dropoff, r.End)
	d := via - pricing.RouteDistance(r)
	if d < epsilonKm {
		return 0
	}
	return d
}
