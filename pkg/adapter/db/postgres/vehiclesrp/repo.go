// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package vehiclesrp implements the vehicles repository on PostgreSQL.
package vehiclesrp

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

func (vehicles *Repo) Conn(c repo.Conn) repo.VehiclesQueryer {
	return queryer[*postgres.Conn]{q: c.(*postgres.Conn)}
}

func (vehicles *Repo) Tx(tx repo.Tx) repo.VehiclesQueryer {
	return queryer[*postgres.Tx]{q: tx.(*postgres.Tx)}
}

type queryer[Q postgres.Queryer] struct {
	q Q
}

type gVehicle struct {
	ID              uuid.UUID `gorm:"primaryKey;type:uuid"`
	OwnerID         uuid.UUID `gorm:"type:uuid"`
	Type            string
	Capacity        int64
	PricePerKm      int64
	ServiceRadiusKm float64
	Available       bool
	HomeLat         float64
	HomeLon         float64
}

func (gv *gVehicle) TableName() string {
	return "vehicles"
}

func fromModel(v *model.Vehicle) gVehicle {
	return gVehicle{
		ID:              v.ID,
		OwnerID:         v.OwnerID,
		Type:            v.Type.String(),
		Capacity:        int64(v.Capacity),
		PricePerKm:      int64(v.PricePerKm),
		ServiceRadiusKm: v.ServiceRadiusKm,
		Available:       v.Available,
		HomeLat:         v.Home.Lat,
		HomeLon:         v.Home.Lon,
	}
}

func (gv *gVehicle) Model() (*model.Vehicle, error) {
	vt, err := model.ParseVehicleType(gv.Type)
	if err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", gv.ID, err)
	}
	return &model.Vehicle{
		ID:              gv.ID,
		OwnerID:         gv.OwnerID,
		Type:            vt,
		Capacity:        model.Weight(gv.Capacity),
		PricePerKm:      model.Money(gv.PricePerKm),
		ServiceRadiusKm: gv.ServiceRadiusKm,
		Available:       gv.Available,
		Home:            model.Coordinate{Lat: gv.HomeLat, Lon: gv.HomeLon},
	}, nil
}

func (qq queryer[Q]) Create(
	ctx context.Context, v *model.Vehicle,
) (*model.Vehicle, error) {
	gv := fromModel(v)
	if gv.ID == uuid.Nil {
		gv.ID = uuid.New()
	}
	if err := qq.q.GORM(ctx).Create(&gv).Error; err != nil {
		return nil, fmt.Errorf("inserting vehicle: %w", postgres.Classify(err))
	}
	return gv.Model()
}

func (qq queryer[Q]) Get(
	ctx context.Context, vid uuid.UUID,
) (*model.Vehicle, error) {
	var gv gVehicle
	err := qq.q.GORM(ctx).Take(&gv, "id = ?", vid).Error
	switch {
	case postgres.IsNotFound(err):
		return nil, postgres.NotFound("vehicle", vid)
	case err != nil:
		return nil, fmt.Errorf("selecting vehicle: %w", err)
	}
	return gv.Model()
}

func (qq queryer[Q]) ListByOwner(
	ctx context.Context, owner uuid.UUID,
) ([]*model.Vehicle, error) {
	var gvs []gVehicle
	err := qq.q.GORM(ctx).Where("owner_id = ?", owner).Order("id").Find(&gvs).Error
	if err != nil {
		return nil, fmt.Errorf("selecting vehicles: %w", err)
	}
	vs := make([]*model.Vehicle, 0, len(gvs))
	for i := range gvs {
		v, err := gvs[i].Model()
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

// Update overwrites all columns of the v.ID vehicle but its owner.
func (qq queryer[Q]) Update(
	ctx context.Context, v *model.Vehicle,
) (*model.Vehicle, error) {
	gv := fromModel(v)
	res := qq.q.GORM(ctx).Model(&gVehicle{}).Where("id = ?", v.ID).Select(
		"type", "capacity", "price_per_km", "service_radius_km",
		"available", "home_lat", "home_lon",
	).Updates(&gv)
	if err := res.Error; err != nil {
		return nil, fmt.Errorf("updating vehicle: %w", postgres.Classify(err))
	}
	if res.RowsAffected != 1 {
		return nil, postgres.NotFound("vehicle", v.ID)
	}
	return qq.Get(ctx, v.ID)
}

func (qq queryer[Q]) Delete(ctx context.Context, vid uuid.UUID) error {
	res := qq.q.GORM(ctx).Delete(&gVehicle{}, "id = ?", vid)
	if err := res.Error; err != nil {
		return fmt.Errorf("deleting vehicle: %w", postgres.Classify(err))
	}
	if res.RowsAffected != 1 {
		return postgres.NotFound("vehicle", vid)
	}
	return nil
}
