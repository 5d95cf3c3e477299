// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"context"
	"slices"

	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// Settings keeps the serialized mutable settings of a Store.
type Settings struct{}

// Load returns the stored settings, or nil if they were never stored.
func (Settings) Load(_ context.Context, c repo.Conn) ([]byte, error) {
	q := connQueryer(c)
	defer q.lock()()
	return slices.Clone(q.s.settings), nil
}

// Persist replaces the stored settings by data.
func (Settings) Persist(_ context.Context, tx repo.Tx, data []byte) error {
	q := txQueryer(tx)
	defer q.lock()()
	old := q.s.settings
	q.onRollback(func() {
		q.s.settings = old
	})
	q.s.settings = slices.Clone(data)
	return nil
}
