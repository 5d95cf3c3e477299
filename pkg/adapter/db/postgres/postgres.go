// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package postgres is a database adapter for the PostgreSQL DBMS.
// It implements the repo.Pool, repo.Conn, and repo.Tx interfaces on
// top of GORM and the pgx driver. The repository packages, named like
// routesrp, implement their queries once as generic functions of a
// Queryer, so they may run on a connection or in a transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/m33pooh/plookaraid/pkg/core/cerr"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"gorm.io/gorm"
)

// Queryer is satisfied by a connection or a transaction which can
// provide a GORM session for running the repository queries.
type Queryer interface {
	*Conn | *Tx
	GORM(ctx context.Context) *gorm.DB
}

// These are the PostgreSQL error codes which are classified by the
// Classify function.
const (
	codeForeignKeyViolation  = "23503"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// ActiveRequestIndex is the name of the unique index which keeps at
// most one active participant per cargo request.
const ActiveRequestIndex = "participants_active_request"

// Classify wraps the err error of a query so its integrity violations
// are reported like the core layer expects. Other errors are wrapped
// as they are, so they become internal server errors.
func Classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		if pgErr.ConstraintName == ActiveRequestIndex {
			return cerr.Conflict(fmt.Errorf("%w: %w", model.ErrRequestTaken, err))
		}
		return cerr.Conflict(err)
	case codeCheckViolation:
		if pgErr.TableName == "routes" {
			return cerr.Conflict(fmt.Errorf("%w: %w", model.ErrCapacityExceeded, err))
		}
		return cerr.BadRequest(err)
	case codeForeignKeyViolation:
		return cerr.NotFound(fmt.Errorf("%w: %w", model.ErrNotFound, err))
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %w", model.ErrConcurrencyConflict, err)
	}
	return err
}

// NotFound reports that no kind entity with the id ID exists.
func NotFound(kind string, id uuid.UUID) error {
	return cerr.NotFound(fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound))
}

// IsNotFound reports whether err is the GORM error of a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
