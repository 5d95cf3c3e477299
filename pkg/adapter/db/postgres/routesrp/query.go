// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package routesrp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gRoute struct {
	ID          uuid.UUID  `gorm:"primaryKey;type:uuid"`
	DriverID    uuid.UUID  `gorm:"type:uuid"`
	VehicleID   *uuid.UUID `gorm:"type:uuid"`
	VehicleType string
	TravelDate  time.Time
	StartLat    float64
	StartLon    float64
	EndLat      float64
	EndLon      float64
	Capacity    int64
	PricePerKm  int64
	Status      string
	Committed   int64
	Version     int64
	ClosedOut   bool
	CreatedAt   time.Time
}

func (gr *gRoute) TableName() string {
	return "routes"
}

func fromModel(r *model.Route) gRoute {
	return gRoute{
		ID:          r.ID,
		DriverID:    r.DriverID,
		VehicleID:   r.VehicleID,
		VehicleType: r.VehicleType.String(),
		TravelDate:  r.TravelDate,
		StartLat:    r.Start.Lat,
		StartLon:    r.Start.Lon,
		EndLat:      r.End.Lat,
		EndLon:      r.End.Lon,
		Capacity:    int64(r.Capacity),
		PricePerKm:  int64(r.PricePerKm),
		Status:      string(r.Status),
		Committed:   int64(r.Committed),
		Version:     r.Version,
		ClosedOut:   r.ClosedOut,
		CreatedAt:   r.CreatedAt,
	}
}

func (gr *gRoute) Model() (*model.Route, error) {
	vt, err := model.ParseVehicleType(gr.VehicleType)
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", gr.ID, err)
	}
	return &model.Route{
		ID:          gr.ID,
		DriverID:    gr.DriverID,
		VehicleID:   gr.VehicleID,
		VehicleType: vt,
		TravelDate:  gr.TravelDate.UTC(),
		Start:       model.Coordinate{Lat: gr.StartLat, Lon: gr.StartLon},
		End:         model.Coordinate{Lat: gr.EndLat, Lon: gr.EndLon},
		Capacity:    model.Weight(gr.Capacity),
		PricePerKm:  model.Money(gr.PricePerKm),
		Status:      model.RouteStatus(gr.Status),
		Committed:   model.Weight(gr.Committed),
		Version:     gr.Version,
		ClosedOut:   gr.ClosedOut,
		CreatedAt:   gr.CreatedAt.UTC(),
	}, nil
}

// Create inserts r as a new route with its first version. The travel
// date is stored as the midnight (UTC) of its calendar day.
func Create[Q postgres.Queryer](
	ctx context.Context, q Q, r *model.Route,
) (*model.Route, error) {
	gr := fromModel(r)
	gr.TravelDate = model.Day(r.TravelDate)
	if gr.ID == uuid.Nil {
		gr.ID = uuid.New()
	}
	gr.Version = 1
	gr.CreatedAt = time.Now().UTC()
	if err := q.GORM(ctx).Create(&gr).Error; err != nil {
		return nil, fmt.Errorf("inserting route: %w", postgres.Classify(err))
	}
	return gr.Model()
}

func Get[Q postgres.Queryer](
	ctx context.Context, q Q, rid uuid.UUID,
) (*model.Route, error) {
	var gr gRoute
	err := q.GORM(ctx).Take(&gr, "id = ?", rid).Error
	switch {
	case postgres.IsNotFound(err):
		return nil, postgres.NotFound("route", rid)
	case err != nil:
		return nil, fmt.Errorf("selecting route: %w", err)
	}
	return gr.Model()
}

func List[Q postgres.Queryer](
	ctx context.Context, q Q, f model.RouteFilter,
) ([]*model.Route, error) {
	gdb := q.GORM(ctx).Model(&gRoute{})
	if len(f.Statuses) > 0 {
		ss := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			ss[i] = string(s)
		}
		gdb = gdb.Where("status IN ?", ss)
	}
	if !f.From.IsZero() {
		gdb = gdb.Where("travel_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		gdb = gdb.Where("travel_date < ?", f.To)
	}
	if f.DriverID != uuid.Nil {
		gdb = gdb.Where("driver_id = ?", f.DriverID)
	}
	if f.MinRemain > 0 {
		gdb = gdb.Where("capacity - committed >= ?", int64(f.MinRemain))
	}
	var grs []gRoute
	if err := gdb.Order("travel_date, id").Find(&grs).Error; err != nil {
		return nil, fmt.Errorf("selecting routes: %w", err)
	}
	rs := make([]*model.Route, 0, len(grs))
	for i := range grs {
		r, err := grs[i].Model()
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}

// Swap updates the mutable columns of the u.ID route and increments
// its version, if and only if its version still equals u.Version.
func Swap[Q postgres.Queryer](
	ctx context.Context, q Q, u model.RouteUpdate,
) (bool, error) {
	res := q.GORM(ctx).Model(&gRoute{}).Where(
		"id = ? AND version = ?", u.ID, u.Version,
	).Updates(map[string]any{
		"committed":  int64(u.Committed),
		"status":     string(u.Status),
		"closed_out": u.ClosedOut,
		"version":    gorm.Expr("version + 1"),
	})
	if err := res.Error; err != nil {
		return false, fmt.Errorf("updating route: %w", postgres.Classify(err))
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	var n int64
	err := q.GORM(ctx).Model(&gRoute{}).Where("id = ?", u.ID).Count(&n).Error
	switch {
	case err != nil:
		return false, fmt.Errorf("counting routes: %w", err)
	case n == 0:
		return false, postgres.NotFound("route", u.ID)
	}
	return false, nil
}

// Lock takes the row lock of the rid route, so it is held until tx
// commits or rolls back.
func Lock(ctx context.Context, tx *postgres.Tx, rid uuid.UUID) error {
	var gr gRoute
	err := tx.GORM(ctx).Clauses(
		clause.Locking{Strength: "UPDATE"},
	).Select("id").Take(&gr, "id = ?", rid).Error
	switch {
	case postgres.IsNotFound(err):
		return postgres.NotFound("route", rid)
	case err != nil:
		return fmt.Errorf("locking route: %w", postgres.Classify(err))
	}
	return nil
}
