// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routesrp implements the routes repository on PostgreSQL.
// The route version column implements the compare-and-swap of the
// capacity ledger, so an update never blocks on another one.
package routesrp

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// Repo represents the routes repository instance.
type Repo struct {
}

// New instantiates a routes repository.
func New() *Repo {
	return &Repo{}
}

// Conn takes a Conn interface instance, unwraps it as required,
// and returns a RoutesQueryer interface which (with access to the
// implementation-dependent connection object) can run the queries.
func (routes *Repo) Conn(c repo.Conn) repo.RoutesQueryer {
	return queryer[*postgres.Conn]{q: c.(*postgres.Conn)}
}

// Tx takes a Tx interface instance, unwraps it as required,
// and returns a RoutesQueryer interface which (with access to the
// implementation-dependent transaction object) can run the queries.
func (routes *Repo) Tx(tx repo.Tx) repo.RoutesQueryer {
	return queryer[*postgres.Tx]{q: tx.(*postgres.Tx)}
}

type queryer[Q postgres.Queryer] struct {
	q Q
}

func (qq queryer[Q]) Create(ctx context.Context, r *model.Route) (*model.Route, error) {
	return Create(ctx, qq.q, r)
}

func (qq queryer[Q]) Get(ctx context.Context, rid uuid.UUID) (*model.Route, error) {
	return Get(ctx, qq.q, rid)
}

func (qq queryer[Q]) List(ctx context.Context, f model.RouteFilter) ([]*model.Route, error) {
	return List(ctx, qq.q, f)
}

func (qq queryer[Q]) Swap(ctx context.Context, u model.RouteUpdate) (bool, error) {
	return Swap(ctx, qq.q, u)
}

func (qq queryer[Q]) Lock(ctx context.Context, rid uuid.UUID) error {
	tx, ok := any(qq.q).(*postgres.Tx)
	if !ok {
		return errors.New("locking a route requires a transaction")
	}
	return Lock(ctx, tx, rid)
}
