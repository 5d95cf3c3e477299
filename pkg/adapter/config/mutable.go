// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"errors"

	"github.com/m33pooh/plookaraid/pkg/adapter/config/settings"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

// Mutate updates c using the mutable settings of s. A nil field of s
// is meaningful and clears its counterpart, so the use case default is
// taken. The s.ImmutableSettings pointer must be nil. Boundaries are
// not verified here.
func (c *Config) Mutate(s model.Settings) error {
	if s.ImmutableSettings != nil {
		return errors.New("immutable settings must not be set")
	}
	u := &c.Usecases
	u.Ledger.ReserveRetries = settings.Clone(s.Ledger.ReserveRetries)
	u.Matching.DateToleranceDays = settings.Clone(
		s.Matching.DateToleranceDays,
	)
	u.Matching.DetourFactor = settings.Clone(s.Matching.DetourFactor)
	return nil
}

// Serializable reports the mutable settings of c, so they may be
// stored in the database. The ImmutableSettings pointer is nil.
func (c *Config) Serializable() *model.Settings {
	u := c.Usecases
	s := &model.Settings{}
	s.Ledger.ReserveRetries = settings.Clone(u.Ledger.ReserveRetries)
	s.Matching.DateToleranceDays = settings.Clone(
		u.Matching.DateToleranceDays,
	)
	s.Matching.DetourFactor = settings.Clone(u.Matching.DetourFactor)
	return s
}

// Visible reports the settings which end-users may query. Despite the
// Serializable, the ImmutableSettings pointer is non-nil.
func (c *Config) Visible() *model.VisibleSettings {
	m := c.Usecases.Matching
	v := &model.VisibleSettings{
		ImmutableSettings: &model.ImmutableSettings{
			Logger: *c.Gin.Logger,
		},
	}
	v.Matching.DateToleranceDays = settings.Clone(m.DateToleranceDays)
	v.Matching.DetourFactor = settings.Clone(m.DetourFactor)
	return v
}

// Bounds reports the minimum and maximum acceptable values of the
// mutable settings. Nil fields have no limit.
func (c *Config) Bounds() (minb, maxb *model.Settings) {
	l, m := c.Usecases.Ledger, c.Usecases.Matching
	minb, maxb = &model.Settings{}, &model.Settings{}
	minb.Ledger.ReserveRetries = settings.Clone(l.MinReserveRetries)
	maxb.Ledger.ReserveRetries = settings.Clone(l.MaxReserveRetries)
	minb.Matching.DateToleranceDays = settings.Clone(m.MinDateToleranceDays)
	maxb.Matching.DateToleranceDays = settings.Clone(m.MaxDateToleranceDays)
	minb.Matching.DetourFactor = settings.Clone(m.MinDetourFactor)
	maxb.Matching.DetourFactor = settings.Clone(m.MaxDetourFactor)
	return minb, maxb
}
