// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package schemarp creates the tables and the login roles of a fresh
// PostgreSQL database. All statements are idempotent, so a database
// may be initialized again in order to renew its passwords.
package schemarp

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

//go:embed schema.sql
var schemaSQL string

// Repo represents the schema repository instance. Its role names are
// suffixed by roleSuffix, so parallel tests may use one DBMS.
type Repo struct {
	roleSuffix repo.Role
}

func New(roleSuffix repo.Role) *Repo {
	return &Repo{roleSuffix: roleSuffix}
}

func (schema *Repo) Tx(tx repo.Tx) repo.SchemaQueryer {
	return txQueryer{Tx: tx.(*postgres.Tx), roleSuffix: schema.roleSuffix}
}

type txQueryer struct {
	*postgres.Tx
	roleSuffix repo.Role
}

func (tq txQueryer) CreateTables(ctx context.Context) error {
	if err := tq.GORM(ctx).Exec(schemaSQL).Error; err != nil {
		return fmt.Errorf("running schema.sql: %w", err)
	}
	return nil
}

// CreateRole creates the r login role unless it exists, and sets its
// password. The role name and hashed password are quoted because DDL
// statements take no bind parameters.
func (tq txQueryer) CreateRole(
	ctx context.Context, r repo.Role, hashedPass string,
) error {
	name := string(r + tq.roleSuffix)
	var exists bool
	err := tq.GORM(ctx).Raw(
		"SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = ?)", name,
	).Scan(&exists).Error
	if err != nil {
		return fmt.Errorf("checking %q role: %w", name, err)
	}
	ident := pgx.Identifier{name}.Sanitize()
	if !exists {
		if err := tq.GORM(ctx).Exec("CREATE ROLE " + ident + " LOGIN").Error; err != nil {
			return fmt.Errorf("creating %q role: %w", name, err)
		}
	}
	pass := "'" + strings.ReplaceAll(hashedPass, "'", "''") + "'"
	err = tq.GORM(ctx).Exec("ALTER ROLE " + ident + " WITH LOGIN PASSWORD " + pass).Error
	if err != nil {
		return fmt.Errorf("setting %q password: %w", name, err)
	}
	return nil
}

// GrantPrivileges grants the data manipulation (but not the DDL)
// privileges on all tables of the public schema to the r role.
func (tq txQueryer) GrantPrivileges(ctx context.Context, r repo.Role) error {
	ident := pgx.Identifier{string(r + tq.roleSuffix)}.Sanitize()
	for _, q := range []string{
		"GRANT USAGE ON SCHEMA public TO " + ident,
		"GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO " + ident,
	} {
		if err := tq.GORM(ctx).Exec(q).Error; err != nil {
			return fmt.Errorf("granting privileges: %w", err)
		}
	}
	return nil
}
