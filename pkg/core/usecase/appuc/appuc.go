// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package appuc contains the application UseCase which supports the
// settings fetching and updating requests, allows the application to be
// reloaded based on the mutable settings which are stored in the
// database, and maintains and provides visible settings and use case
// objects (with atomic replacement support) so they may be used by
// the resources packages.
package appuc

import (
	"errors"
	"sync"

	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/notify"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/ledgeruc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/matchinguc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/requestsuc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/routesuc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/vehiclesuc"
)

// Adapters groups the repositories and other adapter instances which
// are required by the managed use cases. They are kept by the
// application use case, so they may be passed to a Builder again
// whenever the settings are reloaded.
type Adapters struct {
	Routes       repo.Routes
	Reservations repo.Reservations
	Participants repo.Participants
	Requests     repo.Requests
	Vehicles     repo.Vehicles

	// RouteView is the possibly cached and stale routes repository
	// which is used for searching candidate routes. It defaults to
	// Routes if it is left nil.
	RouteView repo.Routes

	// Publisher receives the domain events of the routes. Events are
	// discarded if it is left nil.
	Publisher notify.Publisher
}

// Validate ensures that all mandatory repositories are present and
// fills the optional ones with their defaults.
func (a *Adapters) Validate() error {
	if a.Routes == nil || a.Reservations == nil ||
		a.Participants == nil || a.Requests == nil || a.Vehicles == nil {
		return errors.New("all repositories are required")
	}
	if a.RouteView == nil {
		a.RouteView = a.Routes
	}
	if a.Publisher == nil {
		a.Publisher = notify.Discard{}
	}
	return nil
}

// UseCase represents an application use case. It holds a database
// connection pool, settings repository instance, and all adapters
// which are required by other supported use cases. Therefore, it can
// pass these adapters to a use case builder object (which is realized
// by the effective configuration instance) in order to create the
// supported use case objects (during a Reload or UpdateSettings
// operation).
type UseCase struct {
	pool         repo.Pool
	settingsRepo SettingsRepo
	adapters     Adapters

	// mutex serializes the UpdateSettings and Reload methods, so a
	// goroutine which has fetched older settings cannot publish them
	// after a goroutine which has fetched newer settings. Readers are
	// not blocked by it; they use the following rwlock.
	mutex sync.Mutex

	// rwlock is locked for writing by updateAll whenever the new state
	// including the visible settings and use case objects are prepared
	// and should be published atomically, while it is locked by all
	// getter methods for reading in order to access the published state
	// (i.e., visible settings and use case objects).
	rwlock sync.RWMutex

	settings   *model.VisibleSettings // cached visible settings
	minb, maxb *model.Settings        // cached boundary values
	managed    managedUseCases
}

// managedUseCases holds the use case objects which are replaced
// together after each settings change.
type managedUseCases struct {
	ledger   *ledgeruc.UseCase
	routes   *routesuc.UseCase
	matching *matchinguc.UseCase
	vehicles *vehiclesuc.UseCase
	requests *requestsuc.UseCase
}

// New instantiates an application use case object. The Reload method
// of this object should be called at least once, so it can create
// other supported use case objects, before their corresponding getter
// methods are invoked (otherwise, they may return nil).
func New(p repo.Pool, s SettingsRepo, a Adapters) (*UseCase, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &UseCase{
		pool:         p,
		settingsRepo: s,
		adapters:     a,
	}, nil
}
