// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/m33pooh/plookaraid/pkg/adapter/db/memory"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/participantsrp"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/requestsrp"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/reservationsrp"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/routesrp"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/settingsrp"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/vehiclesrp"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/appuc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/schemauc"
)

// Backend groups the connection pool and adapters of one database
// driver, besides the optional cache and events publisher.
type Backend struct {
	Pool     schemauc.Pool
	Adapters appuc.Adapters
	Settings SettingsStore

	closers []func() error
}

// OpenBackend connects to the configured database as the normal role
// and instantiates the repositories of its driver. The routes read
// view is served from Redis if c.Cache is enabled and the events are
// published to Kafka if c.Kafka has some brokers. The returned Backend
// must be closed after use.
func (c *Config) OpenBackend(ctx context.Context) (*Backend, error) {
	b := &Backend{}
	switch c.Database.Driver {
	case DriverMemory:
		b.Pool = memory.NewPool(memory.NewStore(nil))
		b.Adapters = appuc.Adapters{
			Routes:       memory.Routes{},
			Reservations: memory.Reservations{},
			Participants: memory.Participants{},
			Requests:     memory.Requests{},
			Vehicles:     memory.Vehicles{},
		}
		b.Settings = memory.Settings{}
	default:
		p, err := c.Database.ConnectionPool(ctx, repo.NormalRole)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		b.Pool = p
		b.Adapters = appuc.Adapters{
			Routes:       routesrp.New(),
			Reservations: reservationsrp.New(),
			Participants: participantsrp.New(),
			Requests:     requestsrp.New(),
			Vehicles:     vehiclesrp.New(),
		}
		b.Settings = settingsrp.New()
	}
	b.closers = append(b.closers, b.Pool.Close)

	view, closeCache := c.Cache.WrapRoutes(b.Adapters.Routes)
	b.Adapters.RouteView = view
	b.closers = append(b.closers, closeCache)

	pub, closePub, err := c.Kafka.NewPublisher()
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Adapters.Publisher = pub
	b.closers = append(b.closers, closePub)
	return b, nil
}

// Close releases the resources of b in the reverse order of their
// creation and joins their errors.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
