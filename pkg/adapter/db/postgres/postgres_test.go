// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/internal/test/dbcontainer"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/participantsrp"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/requestsrp"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/reservationsrp"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/routesrp"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/schemarp"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/settingsrp"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/vehiclesrp"
	"github.com/m33pooh/plookaraid/pkg/core/cerr"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"github.com/stretchr/testify/suite"
)

type RepositoriesTestSuite struct {
	suite.Suite
	Ctx  context.Context
	Pool *postgres.Pool
}

func TestRepositoriesTestSuite(t *testing.T) {
	ctx := context.Background()
	_, pool, dfrs, ok := dbcontainer.New(ctx, 60*time.Second, t)
	for i := len(dfrs) - 1; i >= 0; i-- {
		defer dfrs[i]()
	}
	if !ok {
		return // errors are already logged
	}
	suite.Run(t, &RepositoriesTestSuite{Ctx: ctx, Pool: pool})
}

func (rts *RepositoriesTestSuite) SetupSuite() {
	rts.Require().NoError(rts.tx(func(ctx context.Context, tx repo.Tx) error {
		return schemarp.New("").Tx(tx).CreateTables(ctx)
	}))
	rts.Require().NoError(rts.tx(func(ctx context.Context, tx repo.Tx) error {
		return schemarp.New("").Tx(tx).CreateTables(ctx)
	}), "creating tables must be idempotent")
}

func (rts *RepositoriesTestSuite) tx(f repo.TxHandler) error {
	return rts.Pool.Conn(rts.Ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, f)
	})
}

func (rts *RepositoriesTestSuite) conn(f repo.ConnHandler) error {
	return rts.Pool.Conn(rts.Ctx, f)
}

func (rts *RepositoriesTestSuite) createRoute(capacity model.Weight) *model.Route {
	var r *model.Route
	rts.Require().NoError(rts.tx(func(ctx context.Context, tx repo.Tx) error {
		var err error
		r, err = routesrp.New().Tx(tx).Create(ctx, &model.Route{
			DriverID:    uuid.New(),
			VehicleType: model.VehicleTypeLorry,
			TravelDate:  time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC),
			Start:       model.Coordinate{Lat: 18.79, Lon: 98.98},
			End:         model.Coordinate{Lat: 13.75, Lon: 100.5},
			Capacity:    capacity,
			PricePerKm:  1500,
			Status:      model.RouteOpen,
		})
		return err
	}))
	return r
}

func (rts *RepositoriesTestSuite) TestRouteCompareAndSwap() {
	r := rts.createRoute(1000)
	rts.Equal(int64(1), r.Version)

	u := r.Update()
	u.Committed = 400
	var swapped bool
	rts.Require().NoError(rts.conn(func(ctx context.Context, c repo.Conn) error {
		var err error
		swapped, err = routesrp.New().Conn(c).Swap(ctx, u)
		return err
	}))
	rts.True(swapped)

	stale := r.Update()
	stale.Committed = 900
	rts.Require().NoError(rts.conn(func(ctx context.Context, c repo.Conn) error {
		var err error
		swapped, err = routesrp.New().Conn(c).Swap(ctx, stale)
		return err
	}))
	rts.False(swapped, "a stale version must not be applied")

	var got *model.Route
	rts.Require().NoError(rts.conn(func(ctx context.Context, c repo.Conn) error {
		var err error
		got, err = routesrp.New().Conn(c).Get(ctx, r.ID)
		return err
	}))
	rts.Equal(model.Weight(400), got.Committed)
	rts.Equal(int64(2), got.Version)

	missing := model.RouteUpdate{ID: uuid.New(), Version: 1}
	err := rts.conn(func(ctx context.Context, c repo.Conn) error {
		_, err := routesrp.New().Conn(c).Swap(ctx, missing)
		return err
	})
	rts.Equal(http.StatusNotFound, cerr.StatusCode(err))
}

func (rts *RepositoriesTestSuite) TestCapacityCheckIsClassified() {
	r := rts.createRoute(500)
	u := r.Update()
	u.Committed = 501
	err := rts.tx(func(ctx context.Context, tx repo.Tx) error {
		_, err := routesrp.New().Tx(tx).Swap(ctx, u)
		return err
	})
	rts.True(errors.Is(err, model.ErrCapacityExceeded), "got %v", err)
	rts.Equal(http.StatusConflict, cerr.StatusCode(err))
}

func (rts *RepositoriesTestSuite) TestRouteListAndLock() {
	r := rts.createRoute(800)
	var rs []*model.Route
	rts.Require().NoError(rts.conn(func(ctx context.Context, c repo.Conn) error {
		var err error
		rs, err = routesrp.New().Conn(c).List(ctx, model.RouteFilter{
			Statuses:  []model.RouteStatus{model.RouteOpen},
			DriverID:  r.DriverID,
			MinRemain: 800,
		})
		return err
	}))
	rts.Require().Len(rs, 1)
	rts.Equal(r.ID, rs[0].ID)

	for to, n := range map[int]int{1: 0, 2: 1} {
		rts.Require().NoError(rts.conn(func(ctx context.Context, c repo.Conn) error {
			var err error
			rs, err = routesrp.New().Conn(c).List(ctx, model.RouteFilter{
				From:     time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC),
				To:       time.Date(2030, 3, to, 0, 0, 0, 0, time.UTC),
				DriverID: r.DriverID,
			})
			return err
		}))
		rts.Len(rs, n, "the window end is exclusive")
	}

	rts.NoError(rts.tx(func(ctx context.Context, tx repo.Tx) error {
		return routesrp.New().Tx(tx).Lock(ctx, r.ID)
	}))
	err := rts.conn(func(ctx context.Context, c repo.Conn) error {
		return routesrp.New().Conn(c).Lock(ctx, r.ID)
	})
	rts.Error(err, "locking requires a transaction")
}

func (rts *RepositoriesTestSuite) TestActiveRequestIsUnique() {
	r := rts.createRoute(1000)
	shipper := uuid.New()
	var req *model.Request
	rts.Require().NoError(rts.tx(func(ctx context.Context, tx repo.Tx) error {
		var err error
		req, err = requestsrp.New().Tx(tx).Create(ctx, &model.Request{
			ShipperID:     shipper,
			CargoType:     "durian",
			Weight:        200,
			Pickup:        model.Coordinate{Lat: 18.8, Lon: 99},
			Dropoff:       model.Coordinate{Lat: 13.7, Lon: 100.5},
			RequestedDate: time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC),
			Shareable:     true,
			Status:        model.RequestOpen,
		})
		return err
	}))
	join := func() error {
		return rts.tx(func(ctx context.Context, tx repo.Tx) error {
			res, err := reservationsrp.New().Tx(tx).Create(ctx, &model.Reservation{
				RouteID: r.ID, Weight: 200,
			})
			if err != nil {
				return err
			}
			_, err = participantsrp.New().Tx(tx).Create(ctx, &model.Participant{
				RouteID:       r.ID,
				RequesterID:   shipper,
				RequestID:     &req.ID,
				ReservationID: res.ID,
				Weight:        200,
				Status:        model.ParticipantConfirmed,
			})
			return err
		})
	}
	rts.Require().NoError(join())
	err := join()
	rts.True(errors.Is(err, model.ErrRequestTaken), "got %v", err)
	rts.Equal(http.StatusConflict, cerr.StatusCode(err))

	var swapped bool
	rts.Require().NoError(rts.conn(func(ctx context.Context, c repo.Conn) error {
		var err error
		swapped, err = requestsrp.New().Conn(c).SwapStatus(
			ctx, req.ID, model.RequestOpen, model.RequestMatched,
		)
		return err
	}))
	rts.True(swapped)
}

func (rts *RepositoriesTestSuite) TestVehicleDeleteKeepsRoutes() {
	owner := uuid.New()
	var v *model.Vehicle
	rts.Require().NoError(rts.tx(func(ctx context.Context, tx repo.Tx) error {
		var err error
		v, err = vehiclesrp.New().Tx(tx).Create(ctx, &model.Vehicle{
			OwnerID:  owner,
			Type:     model.VehicleTypePickup,
			Capacity: 700,
			Home:     model.Coordinate{Lat: 18.79, Lon: 98.98},
		})
		if err != nil {
			return err
		}
		_, err = routesrp.New().Tx(tx).Create(ctx, &model.Route{
			DriverID:    owner,
			VehicleID:   &v.ID,
			VehicleType: v.Type,
			TravelDate:  time.Date(2030, 3, 2, 0, 0, 0, 0, time.UTC),
			Capacity:    v.Capacity,
			Status:      model.RouteOpen,
		})
		return err
	}))
	rts.Require().NoError(rts.tx(func(ctx context.Context, tx repo.Tx) error {
		return vehiclesrp.New().Tx(tx).Delete(ctx, v.ID)
	}))
	var rs []*model.Route
	rts.Require().NoError(rts.conn(func(ctx context.Context, c repo.Conn) error {
		var err error
		rs, err = routesrp.New().Conn(c).List(ctx, model.RouteFilter{DriverID: owner})
		return err
	}))
	rts.Require().Len(rs, 1)
	rts.Nil(rs[0].VehicleID)
}

func (rts *RepositoriesTestSuite) TestSettingsStore() {
	s := settingsrp.New()
	var data []byte
	rts.Require().NoError(rts.conn(func(ctx context.Context, c repo.Conn) error {
		var err error
		data, err = s.Load(ctx, c)
		return err
	}))
	rts.Nil(data)
	for _, v := range []string{`{"ledger":{"reserve_retries":3}}`, `{}`} {
		rts.Require().NoError(rts.tx(func(ctx context.Context, tx repo.Tx) error {
			return s.Persist(ctx, tx, []byte(v))
		}))
		rts.Require().NoError(rts.conn(func(ctx context.Context, c repo.Conn) error {
			var err error
			data, err = s.Load(ctx, c)
			return err
		}))
		rts.JSONEq(v, string(data))
	}
}
