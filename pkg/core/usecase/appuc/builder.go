// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package appuc

import (
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/ledgeruc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/matchinguc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/requestsuc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/routesuc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/vehiclesuc"
)

// Builder interface represents the expectations from the application
// use case builders. All use cases which can be instantiated by a
// configuration struct have one NewX method here which takes the
// database connection pool and their adapter dependencies. The
// configuration struct implements this interface, takes the adapters,
// and creates use case objects based on its contained settings.
// When new settings are loaded from a database, they may override some
// of the configuration settings, hence, produce a new Builder instance.
type Builder interface {
	// NewAppUseCase creates a new application use case. This use case
	// needs a SettingsRepo in order to fetch or update the mutable
	// settings from the database. It also needs to take all adapters
	// which may be required by other use cases, because it passes them
	// to the Builder instance again after reloading or updating the
	// settings.
	NewAppUseCase(p repo.Pool, s SettingsRepo, a Adapters) (*UseCase, error)

	// NewLedgerUseCase creates the capacity ledger.
	NewLedgerUseCase(p repo.Pool, a Adapters) (*ledgeruc.UseCase, error)

	// NewRoutesUseCase creates the routes use case which delegates all
	// capacity changes to the given ledger.
	NewRoutesUseCase(
		p repo.Pool, a Adapters, ledger *ledgeruc.UseCase,
	) (*routesuc.UseCase, error)

	// NewMatchingUseCase creates the route matching use case which
	// searches the a.RouteView repository.
	NewMatchingUseCase(p repo.Pool, a Adapters) (*matchinguc.UseCase, error)

	NewVehiclesUseCase(p repo.Pool, a Adapters) (*vehiclesuc.UseCase, error)
	NewRequestsUseCase(p repo.Pool, a Adapters) (*requestsuc.UseCase, error)
}
