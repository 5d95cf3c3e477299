// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package redisview_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/adapter/cache/redisview"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/memory"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// fakeRedis keeps the Get and Set commands in a map. Other commands
// are not expected and panic due to the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable
	storage map[string]string
	ttls    map[string]time.Duration
	down    bool
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.down {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := f.storage[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(
	ctx context.Context, key string, value any, ttl time.Duration,
) *redis.StatusCmd {
	if f.down {
		return redis.NewStatusResult("", errors.New("connection refused"))
	}
	f.storage[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

type ViewTestSuite struct {
	suite.Suite
	ctx  context.Context
	pool *memory.Pool
	rdb  *fakeRedis
	view *redisview.View
}

func TestViewTestSuite(t *testing.T) {
	suite.Run(t, new(ViewTestSuite))
}

func (vts *ViewTestSuite) SetupTest() {
	vts.ctx = context.Background()
	vts.pool = memory.NewPool(memory.NewStore(nil))
	vts.rdb = &fakeRedis{
		storage: map[string]string{},
		ttls:    map[string]time.Duration{},
	}
	vts.view = redisview.New(vts.rdb, memory.Routes{}, time.Minute)
}

func (vts *ViewTestSuite) createRoute(day int) *model.Route {
	var created *model.Route
	err := vts.pool.Conn(vts.ctx, func(ctx context.Context, c repo.Conn) error {
		var err error
		created, err = memory.Routes{}.Conn(c).Create(ctx, &model.Route{
			DriverID:    uuid.New(),
			VehicleType: model.VehicleTypeRefrigerated,
			TravelDate:  time.Date(2030, 1, day, 0, 0, 0, 0, time.UTC),
			Start:       model.Coordinate{Lat: 18.79, Lon: 98.98},
			End:         model.Coordinate{Lat: 13.75, Lon: 100.5},
			Capacity:    1000,
			PricePerKm:  1200,
			Status:      model.RouteOpen,
		})
		return err
	})
	vts.Require().NoError(err)
	return created
}

func (vts *ViewTestSuite) list(f model.RouteFilter) []*model.Route {
	var rs []*model.Route
	err := vts.pool.Conn(vts.ctx, func(ctx context.Context, c repo.Conn) error {
		var err error
		rs, err = vts.view.Conn(c).List(ctx, f)
		return err
	})
	vts.Require().NoError(err)
	return rs
}

func (vts *ViewTestSuite) TestListIsCached() {
	r := vts.createRoute(10)
	f := model.RouteFilter{Statuses: []model.RouteStatus{model.RouteOpen}}
	rs := vts.list(f)
	vts.Require().Len(rs, 1)
	vts.Equal(r.ID, rs[0].ID)
	vts.Contains(vts.rdb.storage, redisview.Key(f))
	vts.Equal(time.Minute, vts.rdb.ttls[redisview.Key(f)])

	vts.createRoute(11)
	rs = vts.list(f)
	vts.Require().Len(rs, 1, "stale list must be served until expiry")
	vts.Equal(r.Version, rs[0].Version, "version must survive the cache")
	vts.Equal(r.TravelDate, rs[0].TravelDate.UTC())

	delete(vts.rdb.storage, redisview.Key(f))
	vts.Len(vts.list(f), 2)
}

func (vts *ViewTestSuite) TestListFallsBackWhenRedisIsDown() {
	vts.createRoute(10)
	vts.rdb.down = true
	rs := vts.list(model.RouteFilter{})
	vts.Len(rs, 1)
	vts.Empty(vts.rdb.storage)
}

func (vts *ViewTestSuite) TestMalformedEntryIsReplaced() {
	vts.createRoute(10)
	f := model.RouteFilter{}
	vts.rdb.storage[redisview.Key(f)] = "not-json"
	vts.Len(vts.list(f), 1)
	vts.NotEqual("not-json", vts.rdb.storage[redisview.Key(f)])
}

func (vts *ViewTestSuite) TestTxBypassesCache() {
	vts.createRoute(10)
	err := vts.pool.Conn(vts.ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			rs, err := vts.view.Tx(tx).List(ctx, model.RouteFilter{})
			vts.Len(rs, 1)
			return err
		})
	})
	vts.Require().NoError(err)
	vts.Empty(vts.rdb.storage)
}

func TestKeyDistinguishesFilters(t *testing.T) {
	day := time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)
	driver := uuid.New()
	keys := map[string]bool{}
	for _, f := range []model.RouteFilter{
		{},
		{Statuses: []model.RouteStatus{model.RouteOpen}},
		{Statuses: []model.RouteStatus{model.RouteOpen, model.RouteFull}},
		{From: day},
		{To: day},
		{DriverID: driver},
		{MinRemain: 100},
	} {
		k := redisview.Key(f)
		require.False(t, keys[k], "duplicate key %q", k)
		keys[k] = true
	}
	assert.Equal(t, redisview.Key(model.RouteFilter{From: day}),
		redisview.Key(model.RouteFilter{From: day.In(time.FixedZone("ICT", 7*3600))}))
}
