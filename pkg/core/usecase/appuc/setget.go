// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package appuc

import (
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/ledgeruc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/matchinguc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/requestsuc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/routesuc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/vehiclesuc"
)

// Settings returns a copy of visible settings which are currently in
// effect, in addition to their boundary values. The effective settings
// and use case objects which are built based on them may be updated
// atomically, while they are exposed by a series of getter methods. At
// least one of Reload or UpdateSettings methods must be called before
// this (and other use case objects getter methods) may be called.
func (app *UseCase) Settings() (vs model.VisibleSettings, minb, maxb *model.Settings) {
	app.rwlock.RLock()
	defer app.rwlock.RUnlock()
	return *app.settings, app.minb, app.maxb
}

// updateAll atomically updates the visible settings and all other use
// case objects which are built based on these settings. This method
// minimizes the scope which needs to take a writing lock (after
// instantiating all relevant use case objects).
func (app *UseCase) updateAll(
	vs *model.VisibleSettings,
	minb, maxb *model.Settings,
	managed managedUseCases,
) {
	app.rwlock.Lock()
	defer app.rwlock.Unlock()
	app.settings = vs
	app.minb, app.maxb = minb, maxb
	app.managed = managed
}

// LedgerUseCase returns the currently effective capacity ledger.
func (app *UseCase) LedgerUseCase() *ledgeruc.UseCase {
	app.rwlock.RLock()
	defer app.rwlock.RUnlock()
	return app.managed.ledger
}

// RoutesUseCase returns the currently effective routes use case.
func (app *UseCase) RoutesUseCase() *routesuc.UseCase {
	app.rwlock.RLock()
	defer app.rwlock.RUnlock()
	return app.managed.routes
}

// MatchingUseCase returns the currently effective matching use case.
func (app *UseCase) MatchingUseCase() *matchinguc.UseCase {
	app.rwlock.RLock()
	defer app.rwlock.RUnlock()
	return app.managed.matching
}

func (app *UseCase) VehiclesUseCase() *vehiclesuc.UseCase {
	app.rwlock.RLock()
	defer app.rwlock.RUnlock()
	return app.managed.vehicles
}

func (app *UseCase) RequestsUseCase() *requestsuc.UseCase {
	app.rwlock.RLock()
	defer app.rwlock.RUnlock()
	return app.managed.requests
}
