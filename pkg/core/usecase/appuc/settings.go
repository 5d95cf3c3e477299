// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package appuc

import (
	"context"
	"fmt"

	"github.com/m33pooh/plookaraid/pkg/core/cerr"
	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// UpdateSettings updates the mutable settings in the database, with
// help of a settings repository instance, according to the given `s`
// settings. Only the system caller (i.e., an operator) may update them.
// This leads to preparation of a fresh Builder instance which is used
// for creation of fresh use case objects. Thereafter, new visible
// settings and use case objects will be changed atomically to their
// fresh values.
//
// UpdateSettings and Reload methods are synchronized using a mutex
// so only one long-running attempt for querying/updating the mutable
// settings may exist, while other goroutines may fetch the old settings
// and use case objects without any blocking. When the operation could
// complete successfully and new use case objects were created, a second
// read-write lock will be used in order to pause other goroutines and
// switch all use case objects to new instances. The order of these
// locks ensures a deadlock-free implementation.
//
// The returned `vs` visible settings and `minb` and `maxb` boundary
// values are shared with other callers and must not be modified.
func (app *UseCase) UpdateSettings(
	ctx context.Context, caller model.Caller, s *model.Settings,
) (vs *model.VisibleSettings, minb, maxb *model.Settings, err error) {
	if caller.Role != model.RoleSystem {
		return nil, nil, nil, cerr.Authorization(fmt.Errorf(
			"only operators may update settings: %w",
			model.ErrUnauthorized,
		))
	}
	app.mutex.Lock()
	defer app.mutex.Unlock()
	var managed managedUseCases
	err = app.pool.Conn(
		ctx, func(ctx context.Context, c repo.Conn) error {
			return c.Tx(
				ctx, func(ctx context.Context, tx repo.Tx) error {
					q := app.settingsRepo.Tx(tx)
					var b Builder
					b, vs, minb, maxb, err = q.Update(ctx, s)
					if err != nil {
						return fmt.Errorf("database update: %w", err)
					}
					managed, err = app.newManagedUseCases(b)
					if err != nil {
						return fmt.Errorf("creating use cases: %w", err)
					}
					return nil
				},
			)
		},
	)
	if err != nil {
		err = fmt.Errorf("delegating update to settings repo: %w", err)
		return nil, nil, nil, err
	}
	app.updateAll(vs, minb, maxb, managed)
	log.Info(ctx, "settings are updated")
	return vs, minb, maxb, nil
}

// Reload queries the settings repository in order to fetch the current
// effective mutable settings. Those settings will override the base
// settings which were read from a configuration file (and possibly
// overridden by environment variables) in order to create a fresh
// Builder instance. Thereafter, that Builder instance will be used for
// creation of fresh use case objects and the new visible settings and
// use case objects will be changed atomically to their fresh values.
// See UpdateSettings for the locking details.
func (app *UseCase) Reload(ctx context.Context) error {
	app.mutex.Lock()
	defer app.mutex.Unlock()
	var (
		b          Builder
		vs         *model.VisibleSettings
		minb, maxb *model.Settings
		err        error
	)
	err = app.pool.Conn(
		ctx, func(ctx context.Context, c repo.Conn) error {
			q := app.settingsRepo.Conn(c)
			b, vs, minb, maxb, err = q.Fetch(ctx)
			return err
		},
	)
	if err != nil {
		return fmt.Errorf("reloading by settings repo: %w", err)
	}
	managed, err := app.newManagedUseCases(b)
	if err != nil {
		return fmt.Errorf("creating use cases: %w", err)
	}
	app.updateAll(vs, minb, maxb, managed)
	return nil
}

// newManagedUseCases creates all relevant use case objects using the
// given Builder instance. The updateAll is not called directly because
// after a successful instantiation of all use case objects, we may
// need to wait for a database transaction to commit yet.
func (app *UseCase) newManagedUseCases(
	b Builder,
) (managedUseCases, error) {
	var (
		m   managedUseCases
		err error
	)
	a := app.adapters
	if m.ledger, err = b.NewLedgerUseCase(app.pool, a); err != nil {
		return managedUseCases{}, fmt.Errorf("creating ledger use case: %w", err)
	}
	m.routes, err = b.NewRoutesUseCase(app.pool, a, m.ledger)
	if err != nil {
		return managedUseCases{}, fmt.Errorf("creating routes use case: %w", err)
	}
	if m.matching, err = b.NewMatchingUseCase(app.pool, a); err != nil {
		return managedUseCases{}, fmt.Errorf("creating matching use case: %w", err)
	}
	if m.vehicles, err = b.NewVehiclesUseCase(app.pool, a); err != nil {
		return managedUseCases{}, fmt.Errorf("creating vehicles use case: %w", err)
	}
	if m.requests, err = b.NewRequestsUseCase(app.pool, a); err != nil {
		return managedUseCases{}, fmt.Errorf("creating requests use case: %w", err)
	}
	return m, nil
}
