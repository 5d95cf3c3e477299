// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package requestsuc contains the cargo requests UseCase. Shippers
// create requests, and the routes use case moves them along with the
// participants which carry them.
package requestsuc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/cerr"
	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// UseCase represents the cargo requests use case.
type UseCase struct {
	pool     repo.Pool
	requests repo.Requests
}

// New instantiates a cargo requests use case.
func New(p repo.Pool, requests repo.Requests) (*UseCase, error) {
	return &UseCase{pool: p, requests: requests}, nil
}

// Create stores r as an OPEN request of the caller.
func (uc *UseCase) Create(
	ctx context.Context, caller model.Caller, r *model.Request,
) (created *model.Request, err error) {
	if caller.Role == model.RoleSystem {
		return nil, cerr.Authorization(fmt.Errorf(
			"system may not create requests: %w", model.ErrUnauthorized,
		))
	}
	rr := *r
	rr.ID = uuid.Nil
	rr.ShipperID = caller.ID
	rr.Status = model.RequestOpen
	rr.RequestedDate = model.Day(r.RequestedDate)
	if err := rr.Validate(); err != nil {
		return nil, cerr.BadRequest(fmt.Errorf("invalid request: %w", err))
	}
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		created, err = uc.requests.Conn(c).Create(ctx, &rr)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	log.Info(
		ctx, "request is created",
		log.UUID("request", created.ID),
		slog.Bool("shareable", created.Shareable),
		slog.Int64("weight", int64(created.Weight)),
	)
	return created, nil
}

// Get returns the qid request of the caller.
func (uc *UseCase) Get(
	ctx context.Context, caller model.Caller, qid uuid.UUID,
) (r *model.Request, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		r, err = uc.requests.Conn(c).Get(ctx, qid)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching request %s: %w", qid, err)
	}
	if r.ShipperID != caller.ID && caller.Role != model.RoleSystem {
		return nil, cerr.Authorization(fmt.Errorf(
			"request %s is not the caller's: %w", qid, model.ErrUnauthorized,
		))
	}
	return r, nil
}

// Cancel withdraws the OPEN qid request of the caller. A matched
// request must be released by cancelling its participant first.
func (uc *UseCase) Cancel(
	ctx context.Context, caller model.Caller, qid uuid.UUID,
) error {
	r, err := uc.Get(ctx, caller, qid)
	if err != nil {
		return err
	}
	var ok bool
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		ok, err = uc.requests.Conn(c).SwapStatus(
			ctx, qid, model.RequestOpen, model.RequestCancelled,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("cancelling request %s: %w", qid, err)
	}
	if !ok {
		log.Warn(
			ctx, "invalid request transition",
			log.UUID("request", qid),
			slog.String("from", string(r.Status)),
		)
		return cerr.Conflict(fmt.Errorf(
			"request %s is %s: %w",
			qid, r.Status, model.ErrInvalidStateTransition,
		))
	}
	return nil
}
