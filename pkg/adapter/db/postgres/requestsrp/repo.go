// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package requestsrp implements the shipper cargo requests repository
// on PostgreSQL.
package requestsrp

import (
	"context"
	"fmt"
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

func (requests *Repo) Conn(c repo.Conn) repo.RequestsQueryer {
	return queryer[*postgres.Conn]{q: c.(*postgres.Conn)}
}

func (requests *Repo) Tx(tx repo.Tx) repo.RequestsQueryer {
	return queryer[*postgres.Tx]{q: tx.(*postgres.Tx)}
}

type queryer[Q postgres.Queryer] struct {
	q Q
}

type gRequest struct {
	ID             uuid.UUID `gorm:"primaryKey;type:uuid"`
	ShipperID      uuid.UUID `gorm:"type:uuid"`
	CargoType      string
	Weight         int64
	PickupLat      float64
	PickupLon      float64
	DropoffLat     float64
	DropoffLon     float64
	PickupAddress  string
	DropoffAddress string
	RequestedDate  time.Time
	Shareable      bool
	Status         string
	OfferedPrice   *int64
	CreatedAt      time.Time
}

func (gr *gRequest) TableName() string {
	return "requests"
}

func (gr *gRequest) Model() *model.Request {
	r := &model.Request{
		ID:             gr.ID,
		ShipperID:      gr.ShipperID,
		CargoType:      gr.CargoType,
		Weight:         model.Weight(gr.Weight),
		Pickup:         model.Coordinate{Lat: gr.PickupLat, Lon: gr.PickupLon},
		Dropoff:        model.Coordinate{Lat: gr.DropoffLat, Lon: gr.DropoffLon},
		PickupAddress:  gr.PickupAddress,
		DropoffAddress: gr.DropoffAddress,
		RequestedDate:  gr.RequestedDate.UTC(),
		Shareable:      gr.Shareable,
		Status:         model.RequestStatus(gr.Status),
		CreatedAt:      gr.CreatedAt.UTC(),
	}
	if gr.OfferedPrice != nil {
		p := model.Money(*gr.OfferedPrice)
		r.OfferedPrice = &p
	}
	return r
}

func (qq queryer[Q]) Create(
	ctx context.Context, r *model.Request,
) (*model.Request, error) {
	gr := gRequest{
		ID:             r.ID,
		ShipperID:      r.ShipperID,
		CargoType:      r.CargoType,
		Weight:         int64(r.Weight),
		PickupLat:      r.Pickup.Lat,
		PickupLon:      r.Pickup.Lon,
		DropoffLat:     r.Dropoff.Lat,
		DropoffLon:     r.Dropoff.Lon,
		PickupAddress:  r.PickupAddress,
		DropoffAddress: r.DropoffAddress,
		RequestedDate:  r.RequestedDate,
		Shareable:      r.Shareable,
		Status:         string(r.Status),
		CreatedAt:      time.Now().UTC(),
	}
	if gr.ID == uuid.Nil {
		gr.ID = uuid.New()
	}
	if r.OfferedPrice != nil {
		p := int64(*r.OfferedPrice)
		gr.OfferedPrice = &p
	}
	if err := qq.q.GORM(ctx).Create(&gr).Error; err != nil {
		return nil, fmt.Errorf("inserting request: %w", postgres.Classify(err))
	}
	return gr.Model(), nil
}

func (qq queryer[Q]) Get(
	ctx context.Context, qid uuid.UUID,
) (*model.Request, error) {
	var gr gRequest
	err := qq.q.GORM(ctx).Take(&gr, "id = ?", qid).Error
	switch {
	case postgres.IsNotFound(err):
		return nil, postgres.NotFound("request", qid)
	case err != nil:
		return nil, fmt.Errorf("selecting request: %w", err)
	}
	return gr.Model(), nil
}

func (qq queryer[Q]) SwapStatus(
	ctx context.Context, qid uuid.UUID, from, to model.RequestStatus,
) (bool, error) {
	res := qq.q.GORM(ctx).Model(&gRequest{}).Where(
		"id = ? AND status = ?", qid, string(from),
	).Update("status", string(to))
	if err := res.Error; err != nil {
		return false, fmt.Errorf("updating request: %w", postgres.Classify(err))
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	if _, err := qq.Get(ctx, qid); err != nil {
		return false, err
	}
	return false, nil
}
