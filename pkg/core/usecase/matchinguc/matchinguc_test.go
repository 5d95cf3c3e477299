// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package matchinguc_test

import (
	"context"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/memory"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/pricing"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/matchinguc"
	"github.com/stretchr/testify/suite"
)

var today = time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)

func clock() time.Time {
	return today
}

// at returns a coordinate which is km kilometers north of the equator
// and lon degrees east of the prime meridian.
func at(km, lon float64) model.Coordinate {
	return model.Coordinate{
		Lat: km / pricing.EarthRadiusKm * 180 / math.Pi,
		Lon: lon,
	}
}

type MatchingTestSuite struct {
	suite.Suite

	Ctx      context.Context
	Pool     repo.Pool
	Shipper  model.Caller
	Request  *model.Request
	Matching *matchinguc.UseCase
}

func TestMatchingTestSuite(t *testing.T) {
	suite.Run(t, &MatchingTestSuite{Ctx: context.Background()})
}

func (mts *MatchingTestSuite) SetupTest() {
	mts.Pool = memory.NewPool(memory.NewStore(clock))
	mts.Shipper = model.Caller{ID: uuid.New(), Role: model.RoleShipper}
	err := mts.Pool.Conn(mts.Ctx, func(ctx context.Context, c repo.Conn) (err error) {
		mts.Request, err = memory.Requests{}.Conn(c).Create(ctx, &model.Request{
			ShipperID:     mts.Shipper.ID,
			CargoType:     "rice",
			Weight:        3,
			Pickup:        at(10, 0),
			Dropoff:       at(40, 0),
			RequestedDate: today,
			Shareable:     true,
			Status:        model.RequestOpen,
		})
		return err
	})
	mts.Require().NoError(err)
	mts.Matching = mts.newMatching()
}

func (mts *MatchingTestSuite) newMatching(opts ...matchinguc.Option) *matchinguc.UseCase {
	opts = append(opts, matchinguc.WithClock(clock))
	uc, err := matchinguc.New(mts.Pool, memory.Routes{}, memory.Requests{}, opts...)
	mts.Require().NoError(err)
	return uc
}

type routeSpec struct {
	lon       float64
	capacity  model.Weight
	committed model.Weight
	status    model.RouteStatus
	days      int
	travel    time.Time // overrides days if set
	driver    uuid.UUID
}

func (mts *MatchingTestSuite) newRoute(s routeSpec) uuid.UUID {
	if s.status == "" {
		s.status = model.RouteOpen
	}
	if s.driver == uuid.Nil {
		s.driver = uuid.New()
	}
	if s.travel.IsZero() {
		s.travel = today.AddDate(0, 0, s.days)
	}
	var r *model.Route
	err := mts.Pool.Conn(mts.Ctx, func(ctx context.Context, c repo.Conn) (err error) {
		r, err = memory.Routes{}.Conn(c).Create(ctx, &model.Route{
			DriverID:    s.driver,
			VehicleType: model.VehicleTypePickup,
			TravelDate:  s.travel,
			Start:       at(0, s.lon),
			End:         at(50, s.lon),
			Capacity:    s.capacity,
			Committed:   s.committed,
			PricePerKm:  20,
			Status:      s.status,
		})
		return err
	})
	mts.Require().NoError(err)
	return r.ID
}

func ids(cs []matchinguc.Candidate) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Route.ID)
	}
	return out
}

func (mts *MatchingTestSuite) TestRanking() {
	roomy := mts.newRoute(routeSpec{capacity: 20})
	twinA := mts.newRoute(routeSpec{capacity: 10})
	twinB := mts.newRoute(routeSpec{capacity: 10})
	aside := mts.newRoute(routeSpec{capacity: 30, lon: 0.2})
	cheaper := mts.newRoute(routeSpec{capacity: 10, lon: 0.2, committed: 4, status: model.RouteOpen})
	_ = mts.newRoute(routeSpec{capacity: 30, lon: 5})
	_ = mts.newRoute(routeSpec{capacity: 10, committed: 10, status: model.RouteFull})
	_ = mts.newRoute(routeSpec{capacity: 10, committed: 8})
	_ = mts.newRoute(routeSpec{capacity: 10, days: 2})
	_ = mts.newRoute(routeSpec{capacity: 10, driver: mts.Shipper.ID})
	_ = mts.newRoute(routeSpec{capacity: 10, status: model.RouteInProgress})

	cs, err := mts.Matching.SearchRequest(mts.Ctx, mts.Shipper, mts.Request.ID)
	mts.Require().NoError(err)
	twins := []uuid.UUID{twinA, twinB}
	sort.Slice(twins, func(i, j int) bool {
		return twins[i].String() < twins[j].String()
	})
	mts.Equal([]uuid.UUID{roomy, twins[0], twins[1], aside, cheaper}, ids(cs))
	mts.Zero(cs[0].DetourKm)
	mts.Equal(model.Weight(20), cs[0].Remaining)
	mts.Equal(model.Money(1000), cs[0].Quote)
	mts.Greater(cs[3].DetourKm, 0.0)
	mts.Equal(cs[3].DetourKm, cs[4].DetourKm)
	mts.Equal(model.Money(428), cs[4].Quote, "floor(1000 * 3 / 7)")

	again, err := mts.Matching.Search(mts.Ctx, mts.Request)
	mts.Require().NoError(err)
	mts.Equal(cs, again, "search must be deterministic")
}

func (mts *MatchingTestSuite) TestDateToleranceAndDetourFactor() {
	later := mts.newRoute(routeSpec{capacity: 10, days: 2})
	past := mts.newRoute(routeSpec{capacity: 10, days: -1})
	aside := mts.newRoute(routeSpec{capacity: 10, lon: 0.2})

	cs, err := mts.Matching.Search(mts.Ctx, mts.Request)
	mts.Require().NoError(err)
	mts.Equal([]uuid.UUID{aside}, ids(cs))

	tolerant := mts.newMatching(matchinguc.WithDateTolerance(2))
	cs, err = tolerant.Search(mts.Ctx, mts.Request)
	mts.Require().NoError(err)
	mts.ElementsMatch([]uuid.UUID{aside, later}, ids(cs), "past routes stay hidden")
	mts.NotContains(ids(cs), past)

	strict := mts.newMatching(matchinguc.WithDetourFactor(0.5))
	cs, err = strict.Search(mts.Ctx, mts.Request)
	mts.Require().NoError(err)
	mts.Empty(cs, "a detour of about 29 km is more than 15 km")
}

func (mts *MatchingTestSuite) TestTravelDatesAreCalendarDays() {
	day := func(d, h, m int) time.Time {
		return time.Date(2025, time.March, d, h, m, 0, 0, time.UTC)
	}
	midnight := mts.newRoute(routeSpec{capacity: 10, travel: day(1, 0, 0)})
	evening := mts.newRoute(routeSpec{capacity: 10, travel: day(1, 23, 59)})
	tomorrow := mts.newRoute(routeSpec{capacity: 10, travel: day(2, 0, 30)})
	tomorrowNight := mts.newRoute(routeSpec{capacity: 10, travel: day(2, 23, 30)})
	afterTomorrow := mts.newRoute(routeSpec{capacity: 10, travel: day(3, 0, 0)})

	cs, err := mts.Matching.Search(mts.Ctx, mts.Request)
	mts.Require().NoError(err)
	mts.ElementsMatch([]uuid.UUID{midnight, evening}, ids(cs))

	tolerant := mts.newMatching(matchinguc.WithDateTolerance(1))
	cs, err = tolerant.Search(mts.Ctx, mts.Request)
	mts.Require().NoError(err)
	mts.ElementsMatch(
		[]uuid.UUID{midnight, evening, tomorrow, tomorrowNight}, ids(cs),
	)
	mts.NotContains(ids(cs), afterTomorrow)

	err = mts.Pool.Conn(mts.Ctx, func(ctx context.Context, c repo.Conn) error {
		r, err := memory.Routes{}.Conn(c).Get(ctx, tomorrowNight)
		if err == nil {
			mts.Equal(day(2, 0, 0), r.TravelDate, "stored as its calendar day")
		}
		return err
	})
	mts.Require().NoError(err)
}

func (mts *MatchingTestSuite) TestRejectedRequests() {
	other := model.Caller{ID: uuid.New(), Role: model.RoleShipper}
	_, err := mts.Matching.SearchRequest(mts.Ctx, other, mts.Request.ID)
	mts.ErrorIs(err, model.ErrUnauthorized)

	private := *mts.Request
	private.Shareable = false
	_, err = mts.Matching.Search(mts.Ctx, &private)
	mts.ErrorIs(err, model.ErrRequestNotShareable)

	err = mts.Pool.Conn(mts.Ctx, func(ctx context.Context, c repo.Conn) error {
		_, err := memory.Requests{}.Conn(c).SwapStatus(
			ctx, mts.Request.ID, model.RequestOpen, model.RequestMatched,
		)
		return err
	})
	mts.Require().NoError(err)
	_, err = mts.Matching.SearchRequest(mts.Ctx, mts.Shipper, mts.Request.ID)
	mts.ErrorIs(err, model.ErrRequestTaken)
}

func TestDetourOfRouteThroughTheCargo(t *testing.T) {
	r := &model.Route{Start: at(0, 0), End: at(50, 0)}
	req := &model.Request{Pickup: at(10, 0), Dropoff: at(40, 0)}
	if d := matchinguc.Detour(r, req); d != 0 {
		t.Fatalf("detour = %v, want 0", d)
	}
	back := &model.Request{Pickup: at(40, 0), Dropoff: at(10, 0)}
	if d := matchinguc.Detour(r, back); math.Abs(d-60) > 1e-6 {
		t.Fatalf("detour = %v, want 60", d)
	}
}
