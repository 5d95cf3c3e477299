// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"github.com/m33pooh/plookaraid/pkg/adapter/config/settings"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/appuc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/ledgeruc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/matchinguc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/requestsuc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/routesuc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/vehiclesuc"
)

// Usecases contains the configuration settings for all use cases.
type Usecases struct {
	Ledger   Ledger   // capacity ledger settings
	Matching Matching // route matching settings
}

// Ledger contains the configuration settings of the capacity ledger.
// Nil fields ask the use case to pick its defaults. The Min and Max
// fields are the inclusive boundaries which the mutable value may take
// at runtime; a nil boundary means no limit.
type Ledger struct {
	ReserveRetries    *int `yaml:"reserve-retries,omitempty"`
	MinReserveRetries *int `yaml:"reserve-retries-minimum,omitempty"`
	MaxReserveRetries *int `yaml:"reserve-retries-maximum,omitempty"`
}

// Matching contains the configuration settings of the route matching.
type Matching struct {
	DateToleranceDays    *int `yaml:"date-tolerance-days,omitempty"`
	MinDateToleranceDays *int `yaml:"date-tolerance-days-minimum,omitempty"`
	MaxDateToleranceDays *int `yaml:"date-tolerance-days-maximum,omitempty"`

	DetourFactor    *float64 `yaml:"detour-factor,omitempty"`
	MinDetourFactor *float64 `yaml:"detour-factor-minimum,omitempty"`
	MaxDetourFactor *float64 `yaml:"detour-factor-maximum,omitempty"`
}

// ValidateAndNormalize fails if a configured value is out of its own
// range. Values which are fetched from the database are clamped
// instead, see the settings repository.
func (u *Usecases) ValidateAndNormalize() error {
	return u.verifyRanges(nil)
}

// verifyRanges clamps the out of range settings. If warn is nil, the
// first clamped setting is returned as an error. Otherwise, warn is
// called for each clamped setting and nil is returned.
func (u *Usecases) verifyRanges(warn func(error)) error {
	l, m := &u.Ledger, &u.Matching
	errs := make([]error, 0, 3)
	if e := settings.VerifyRange(
		"ledger.reserve-retries",
		&l.ReserveRetries, l.MinReserveRetries, l.MaxReserveRetries,
	); e != nil {
		errs = append(errs, e)
	}
	if e := settings.VerifyRange(
		"matching.date-tolerance-days",
		&m.DateToleranceDays, m.MinDateToleranceDays, m.MaxDateToleranceDays,
	); e != nil {
		errs = append(errs, e)
	}
	if e := settings.VerifyRange(
		"matching.detour-factor",
		&m.DetourFactor, m.MinDetourFactor, m.MaxDetourFactor,
	); e != nil {
		errs = append(errs, e)
	}
	if warn == nil {
		if len(errs) > 0 {
			return errs[0]
		}
		return nil
	}
	for _, err := range errs {
		warn(err)
	}
	return nil
}

// Clone creates a deep copy of u.
func (u Usecases) Clone() Usecases {
	return Usecases{
		Ledger: Ledger{
			ReserveRetries:    settings.Clone(u.Ledger.ReserveRetries),
			MinReserveRetries: settings.Clone(u.Ledger.MinReserveRetries),
			MaxReserveRetries: settings.Clone(u.Ledger.MaxReserveRetries),
		},
		Matching: Matching{
			DateToleranceDays:    settings.Clone(u.Matching.DateToleranceDays),
			MinDateToleranceDays: settings.Clone(u.Matching.MinDateToleranceDays),
			MaxDateToleranceDays: settings.Clone(u.Matching.MaxDateToleranceDays),
			DetourFactor:         settings.Clone(u.Matching.DetourFactor),
			MinDetourFactor:      settings.Clone(u.Matching.MinDetourFactor),
			MaxDetourFactor:      settings.Clone(u.Matching.MaxDetourFactor),
		},
	}
}

// NewUseCase instantiates a new capacity ledger based on the settings
// in the `l` struct.
func (l Ledger) NewUseCase(
	p repo.Pool, routes repo.Routes, rs repo.Reservations,
) (*ledgeruc.UseCase, error) {
	opts := make([]ledgeruc.Option, 0, 1)
	if l.ReserveRetries != nil {
		opts = append(opts, ledgeruc.WithReserveRetries(*l.ReserveRetries))
	}
	return ledgeruc.New(p, routes, rs, opts...)
}

// NewUseCase instantiates a new route matching use case based on the
// settings in the `m` struct.
func (m Matching) NewUseCase(
	p repo.Pool, view repo.Routes, requests repo.Requests,
) (*matchinguc.UseCase, error) {
	opts := make([]matchinguc.Option, 0, 2)
	if m.DateToleranceDays != nil {
		opts = append(opts, matchinguc.WithDateTolerance(*m.DateToleranceDays))
	}
	if m.DetourFactor != nil {
		opts = append(opts, matchinguc.WithDetourFactor(*m.DetourFactor))
	}
	return matchinguc.New(p, view, requests, opts...)
}

// NewAppUseCase instantiates a new application use case. The Config
// struct acts as the appuc.Builder of all other use cases.
func (c *Config) NewAppUseCase(
	p repo.Pool, s appuc.SettingsRepo, a appuc.Adapters,
) (*appuc.UseCase, error) {
	return appuc.New(p, s, a)
}

// NewLedgerUseCase instantiates the capacity ledger.
func (c *Config) NewLedgerUseCase(
	p repo.Pool, a appuc.Adapters,
) (*ledgeruc.UseCase, error) {
	return c.Usecases.Ledger.NewUseCase(p, a.Routes, a.Reservations)
}

// NewRoutesUseCase instantiates the routes use case which publishes
// its events by a.Publisher.
func (c *Config) NewRoutesUseCase(
	p repo.Pool, a appuc.Adapters, ledger *ledgeruc.UseCase,
) (*routesuc.UseCase, error) {
	return routesuc.New(
		p, a.Routes, a.Participants, a.Requests, a.Vehicles, ledger,
		routesuc.WithPublisher(a.Publisher),
	)
}

// NewMatchingUseCase instantiates the route matching use case which
// searches the possibly cached a.RouteView.
func (c *Config) NewMatchingUseCase(
	p repo.Pool, a appuc.Adapters,
) (*matchinguc.UseCase, error) {
	return c.Usecases.Matching.NewUseCase(p, a.RouteView, a.Requests)
}

func (c *Config) NewVehiclesUseCase(
	p repo.Pool, a appuc.Adapters,
) (*vehiclesuc.UseCase, error) {
	return vehiclesuc.New(p, a.Vehicles)
}

func (c *Config) NewRequestsUseCase(
	p repo.Pool, a appuc.Adapters,
) (*requestsuc.UseCase, error) {
	return requestsuc.New(p, a.Requests)
}
