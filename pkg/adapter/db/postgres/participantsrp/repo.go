// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package participantsrp implements the route participants repository
// on PostgreSQL. A partial unique index keeps at most one active
// participant per cargo request, so a concurrent second join of one
// request fails with model.ErrRequestTaken.
package participantsrp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

type Repo struct {
}

func New() *Repo {
	return &Repo{}
}

func (participants *Repo) Conn(c repo.Conn) repo.ParticipantsQueryer {
	return queryer[*postgres.Conn]{q: c.(*postgres.Conn)}
}

func (participants *Repo) Tx(tx repo.Tx) repo.ParticipantsQueryer {
	return queryer[*postgres.Tx]{q: tx.(*postgres.Tx)}
}

type queryer[Q postgres.Queryer] struct {
	q Q
}

func (qq queryer[Q]) Create(ctx context.Context, p *model.Participant) (*model.Participant, error) {
	return Create(ctx, qq.q, p)
}

func (qq queryer[Q]) Get(ctx context.Context, pid uuid.UUID) (*model.Participant, error) {
	return Get(ctx, qq.q, pid)
}

func (qq queryer[Q]) ListByRoute(ctx context.Context, rid uuid.UUID, active bool) ([]*model.Participant, error) {
	return ListByRoute(ctx, qq.q, rid, active)
}

func (qq queryer[Q]) ListStale(ctx context.Context, before time.Time) ([]*model.Participant, error) {
	return ListStale(ctx, qq.q, before)
}

func (qq queryer[Q]) SwapStatus(ctx context.Context, pid uuid.UUID, from, to model.ParticipantStatus) (bool, error) {
	return SwapStatus(ctx, qq.q, pid, from, to)
}

func (qq queryer[Q]) UpdateShares(ctx context.Context, shares map[uuid.UUID]model.Money) error {
	return UpdateShares(ctx, qq.q, shares)
}
