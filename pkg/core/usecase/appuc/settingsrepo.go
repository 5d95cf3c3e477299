// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package appuc

import (
	"context"

	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// SettingsRepo specifies the settings repository expectations, allowing
// the mutable settings to be serialized and stored in the database or
// queried from the database and deserialized again. In both paths, a
// clone of the base configuration settings (which must be passed to
// and kept in the settings repository instance during its
// instantiation) is updated by the mutable settings. The base settings
// are usually read from a configuration file and some of them may be
// overridden by relevant environment variables. The merged result is
// returned to the use cases layer as an instance of the Builder
// interface, so it may be used for creation of new use case objects.
type SettingsRepo interface {
	Conn(repo.Conn) SettingsConnQueryer
	Tx(repo.Tx) SettingsTxQueryer
}

// SettingsConnQueryer lists the settings queries which require a
// connection. The Builder of a Fetch may only be used after the query
// has finished, so it does not run within a caller transaction.
type SettingsConnQueryer interface {
	// Fetch queries the mutable settings, merges them into a clone of
	// the base settings, and returns the fresh configuration instance
	// as a Builder in addition to its visible settings. The boundary
	// values are taken from the base settings. If the database settings
	// were out of the acceptable range of values, they will take the
	// nearest boundary value and that adjustment will be logged as a
	// warning. A database without stored settings leaves the base
	// settings unchanged.
	Fetch(ctx context.Context) (
		b Builder,
		vs *model.VisibleSettings,
		minb, maxb *model.Settings,
		err error,
	)
}

// SettingsTxQueryer lists the settings queries which require an open
// transaction.
type SettingsTxQueryer interface {
	// Update merges `s` into a clone of the base settings, stores the
	// mutable settings, and returns the fresh configuration instance as
	// a Builder in addition to its visible settings and the boundary
	// values. The `s` settings must fall in the acceptable range of
	// values, otherwise, a cerr.BadRequest error is returned and the
	// settings are kept unchanged.
	Update(ctx context.Context, s *model.Settings) (
		b Builder,
		vs *model.VisibleSettings,
		minb, maxb *model.Settings,
		err error,
	)
}
