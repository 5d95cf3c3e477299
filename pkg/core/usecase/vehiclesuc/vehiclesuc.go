// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package vehiclesuc contains the vehicles UseCase which lets drivers
// register and maintain their own vehicles.
package vehiclesuc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/cerr"
	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// UseCase represents the vehicles use case.
type UseCase struct {
	pool     repo.Pool
	vehicles repo.Vehicles
}

// New instantiates a vehicles use case.
func New(p repo.Pool, vehicles repo.Vehicles) (*UseCase, error) {
	return &UseCase{pool: p, vehicles: vehicles}, nil
}

// Create registers v as a vehicle of the caller driver.
func (uc *UseCase) Create(
	ctx context.Context, caller model.Caller, v *model.Vehicle,
) (created *model.Vehicle, err error) {
	if caller.Role != model.RoleDriver {
		return nil, cerr.Authorization(fmt.Errorf(
			"only drivers may register vehicles: %w", model.ErrUnauthorized,
		))
	}
	vv := *v
	vv.ID = uuid.Nil
	vv.OwnerID = caller.ID
	if err := vv.Validate(); err != nil {
		return nil, cerr.BadRequest(fmt.Errorf("invalid vehicle: %w", err))
	}
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		created, err = uc.vehicles.Conn(c).Create(ctx, &vv)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating vehicle: %w", err)
	}
	log.Info(
		ctx, "vehicle is registered",
		log.UUID("vehicle", created.ID),
		log.UUID("owner", caller.ID),
	)
	return created, nil
}

// List returns the vehicles of the caller.
func (uc *UseCase) List(
	ctx context.Context, caller model.Caller,
) (vs []*model.Vehicle, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		vs, err = uc.vehicles.Conn(c).ListByOwner(ctx, caller.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}
	return vs, nil
}

// Update overwrites the v.ID vehicle of the caller with v.
func (uc *UseCase) Update(
	ctx context.Context, caller model.Caller, v *model.Vehicle,
) (updated *model.Vehicle, err error) {
	vv := *v
	vv.OwnerID = caller.ID
	if err := vv.Validate(); err != nil {
		return nil, cerr.BadRequest(fmt.Errorf("invalid vehicle: %w", err))
	}
	err = uc.owned(ctx, caller, v.ID, func(ctx context.Context, q repo.VehiclesQueryer) (err error) {
		updated, err = q.Update(ctx, &vv)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("updating vehicle %s: %w", v.ID, err)
	}
	return updated, nil
}

// Delete removes the vid vehicle of the caller. Routes which refer to
// that vehicle are kept.
func (uc *UseCase) Delete(
	ctx context.Context, caller model.Caller, vid uuid.UUID,
) error {
	err := uc.owned(ctx, caller, vid, func(ctx context.Context, q repo.VehiclesQueryer) error {
		return q.Delete(ctx, vid)
	})
	if err != nil {
		return fmt.Errorf("deleting vehicle %s: %w", vid, err)
	}
	log.Info(ctx, "vehicle is deleted", log.UUID("vehicle", vid))
	return nil
}

// owned runs f in a transaction, after making sure that the vid
// vehicle is owned by the caller.
func (uc *UseCase) owned(
	ctx context.Context,
	caller model.Caller,
	vid uuid.UUID,
	f func(ctx context.Context, q repo.VehiclesQueryer) error,
) error {
	return uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			q := uc.vehicles.Tx(tx)
			v, err := q.Get(ctx, vid)
			if err != nil {
				return err
			}
			if v.OwnerID != caller.ID {
				return cerr.Authorization(fmt.Errorf(
					"vehicle %s is not the caller's: %w",
					vid, model.ErrUnauthorized,
				))
			}
			return f(ctx, q)
		})
	})
}
