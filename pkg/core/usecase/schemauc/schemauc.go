// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package schemauc contains the database initialization UseCase. It
// creates the tables of a fresh database and the login role which is
// used by the web server, renewing the passwords of the admin and
// normal roles, so no default password survives an initialization.
package schemauc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"github.com/m33pooh/plookaraid/pkg/core/scram"
)

// DefaultIterations is the SCRAM iteration count which is used for
// hashing the renewed passwords, as recommended by RFC 7677.
const DefaultIterations = 15000

// Pool is a connection pool which must be closed after use.
type Pool interface {
	repo.Pool
	Close() error
}

// Settings lists the configuration which is required for initializing
// a database. It is implemented by the configuration adapter.
type Settings interface {
	// ConnectionPool connects to the database as the r role, using
	// its currently recorded password.
	ConnectionPool(ctx context.Context, r repo.Role) (Pool, error)

	// NewSchemaRepo instantiates a schema repository for the
	// configured database.
	NewSchemaRepo() repo.Schema

	// Hasher returns the password hasher of the configured database
	// authentication method.
	Hasher() scram.Hasher

	// RenewPasswords generates new passwords for roles, records them
	// in a temporary passwords file, and passes them to change, so it
	// may update them in the database. The returned finalizer must be
	// called after change has been committed, so the temporary file
	// replaces the main passwords file.
	RenewPasswords(
		ctx context.Context,
		change func(
			ctx context.Context, roles []repo.Role, passwords []string,
		) error,
		roles ...repo.Role,
	) (finalizer func() error, err error)
}

// UseCase represents the database initialization use case.
type UseCase struct {
	settings   Settings
	schemaRepo repo.Schema
	iters      int
}

// New instantiates a database initialization use case.
func New(s Settings) *UseCase {
	return &UseCase{
		settings:   s,
		schemaRepo: s.NewSchemaRepo(),
		iters:      DefaultIterations,
	}
}

// InitDB creates the missing tables and indices, creates the normal
// role (if it is missing), renews the admin and normal role passwords,
// and grants the data manipulation privileges to the normal role. All
// changes are made in one transaction of the admin role, so a failed
// initialization keeps the old passwords usable.
func (uc *UseCase) InitDB(ctx context.Context) error {
	p, err := uc.settings.ConnectionPool(ctx, repo.AdminRole)
	if err != nil {
		return fmt.Errorf("creating DB pool for admin: %w", err)
	}
	defer p.Close()
	var finalizer func() error
	err = p.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			q := uc.schemaRepo.Tx(tx)
			if err := q.CreateTables(ctx); err != nil {
				return fmt.Errorf("creating tables: %w", err)
			}
			finalizer, err = uc.settings.RenewPasswords(
				ctx,
				func(
					ctx context.Context,
					roles []repo.Role,
					passwords []string,
				) error {
					return uc.createRoles(ctx, q, roles, passwords)
				},
				repo.AdminRole, repo.NormalRole,
			)
			if err != nil {
				return fmt.Errorf("renewing passwords: %w", err)
			}
			if err := q.GrantPrivileges(ctx, repo.NormalRole); err != nil {
				return fmt.Errorf("granting normal role privs: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("admin connection: %w", err)
	}
	if err := finalizer(); err != nil {
		return fmt.Errorf("finalizing passwords renewal: %w", err)
	}
	log.Info(ctx, "database is initialized")
	return nil
}

func (uc *UseCase) createRoles(
	ctx context.Context,
	q repo.SchemaQueryer,
	roles []repo.Role,
	passwords []string,
) error {
	h := uc.settings.Hasher()
	for i, r := range roles {
		hashed, err := h.Hash(passwords[i], "", uc.iters)
		if err != nil {
			return fmt.Errorf("hashing %q password: %w", r, err)
		}
		if err := q.CreateRole(ctx, r, hashed); err != nil {
			return fmt.Errorf("creating %q role: %w", r, err)
		}
		log.Debug(ctx, "role password is renewed", slog.String("role", string(r)))
	}
	return nil
}
