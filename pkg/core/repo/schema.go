// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import "context"

// SchemaQueryer lists the schema management queries which are used
// when a fresh database is initialized.
type SchemaQueryer interface {
	// CreateTables creates all tables and indices if they are missing.
	CreateTables(ctx context.Context) error

	// CreateRole creates the r login role if it is missing and sets
	// its password. The hashedPass must be a SCRAM hash string, so the
	// plaintext password never appears in a DDL statement.
	CreateRole(ctx context.Context, r Role, hashedPass string) error

	// GrantPrivileges grants the data manipulation privileges on all
	// tables to the r role.
	GrantPrivileges(ctx context.Context, r Role) error
}

// Schema is the schema management repository. Its queries must run in
// a transaction, so a failed initialization leaves nothing behind.
type Schema interface {
	Tx(Tx) SchemaQueryer
}
