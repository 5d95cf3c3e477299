// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import "context"

// TxHandler is called with an open transaction. Returning a nil error
// commits the transaction, while a non-nil error (or a panic) rolls it
// back.
type TxHandler func(context.Context, Tx) error

// Conn represents one connection of a Pool. Repositories take a Conn
// (or a Tx) and unwrap it into their adapter-specific type, so the
// use cases layer only decides the transaction boundaries.
type Conn interface {
	Tx(ctx context.Context, handler TxHandler) error

	// IsConn method prevents a non-Conn object (such as a Tx) to
	// mistakenly implement the Conn interface.
	IsConn()
}
