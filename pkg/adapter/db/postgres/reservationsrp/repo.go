// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package reservationsrp implements the capacity reservations
// repository on PostgreSQL.
package reservationsrp

import (
	"context"
	"fmt"

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

func (reservations *Repo) Conn(c repo.Conn) repo.ReservationsQueryer {
	return queryer[*postgres.Conn]{q: c.(*postgres.Conn)}
}

func (reservations *Repo) Tx(tx repo.Tx) repo.ReservationsQueryer {
	return queryer[*postgres.Tx]{q: tx.(*postgres.Tx)}
}

type queryer[Q postgres.Queryer] struct {
	q Q
}

type gReservation struct {
	ID       uuid.UUID `gorm:"primaryKey;type:uuid"`
	RouteID  uuid.UUID `gorm:"type:uuid"`
	Weight   int64
	Released bool
}

func (gr *gReservation) TableName() string {
	return "reservations"
}

func (gr *gReservation) Model() *model.Reservation {
	return &model.Reservation{
		ID:       gr.ID,
		RouteID:  gr.RouteID,
		Weight:   model.Weight(gr.Weight),
		Released: gr.Released,
	}
}

func (qq queryer[Q]) Create(
	ctx context.Context, r *model.Reservation,
) (*model.Reservation, error) {
	gr := gReservation{
		ID:       r.ID,
		RouteID:  r.RouteID,
		Weight:   int64(r.Weight),
		Released: r.Released,
	}
	if gr.ID == uuid.Nil {
		gr.ID = uuid.New()
	}
	if err := qq.q.GORM(ctx).Create(&gr).Error; err != nil {
		return nil, fmt.Errorf("inserting reservation: %w", postgres.Classify(err))
	}
	return gr.Model(), nil
}

func (qq queryer[Q]) Get(
	ctx context.Context, id uuid.UUID,
) (*model.Reservation, error) {
	var gr gReservation
	err := qq.q.GORM(ctx).Take(&gr, "id = ?", id).Error
	switch {
	case postgres.IsNotFound(err):
		return nil, postgres.NotFound("reservation", id)
	case err != nil:
		return nil, fmt.Errorf("selecting reservation: %w", err)
	}
	return gr.Model(), nil
}

// MarkReleased sets the released flag only if it was not set, so
// exactly one of the concurrent callers observes true.
func (qq queryer[Q]) MarkReleased(
	ctx context.Context, id uuid.UUID,
) (bool, error) {
	res := qq.q.GORM(ctx).Model(&gReservation{}).Where(
		"id = ? AND NOT released", id,
	).Update("released", true)
	if err := res.Error; err != nil {
		return false, fmt.Errorf("releasing reservation: %w", postgres.Classify(err))
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	if _, err := qq.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}
