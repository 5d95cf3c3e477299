// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ledgeruc_test

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/memory"
	"github.com/m33pooh/plookaraid/pkg/core/cerr"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/ledgeruc"
	"github.com/stretchr/testify/suite"
)

var today = time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time {
	return today
}

type LedgerTestSuite struct {
	suite.Suite

	Ctx    context.Context
	Pool   repo.Pool
	Ledger *ledgeruc.UseCase
}

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, &LedgerTestSuite{Ctx: context.Background()})
}

func (lts *LedgerTestSuite) SetupTest() {
	lts.Pool = memory.NewPool(memory.NewStore(clock))
	l, err := ledgeruc.New(
		lts.Pool, memory.Routes{}, memory.Reservations{},
		ledgeruc.WithClock(clock),
		ledgeruc.WithReserveRetries(64),
	)
	lts.Require().NoError(err)
	lts.Ledger = l
}

func (lts *LedgerTestSuite) newRoute(capacity model.Weight, travel time.Time) uuid.UUID {
	var r *model.Route
	err := lts.Pool.Conn(lts.Ctx, func(ctx context.Context, c repo.Conn) (err error) {
		r, err = memory.Routes{}.Conn(c).Create(ctx, &model.Route{
			DriverID:    uuid.New(),
			VehicleType: model.VehicleTypeLorry,
			TravelDate:  travel,
			Start:       model.Coordinate{Lat: 13.75, Lon: 100.5},
			End:         model.Coordinate{Lat: 18.79, Lon: 98.98},
			Capacity:    capacity,
			PricePerKm:  10,
			Status:      model.RouteOpen,
		})
		return err
	})
	lts.Require().NoError(err)
	return r.ID
}

func (lts *LedgerTestSuite) route(rid uuid.UUID) *model.Route {
	var r *model.Route
	err := lts.Pool.Conn(lts.Ctx, func(ctx context.Context, c repo.Conn) (err error) {
		r, err = memory.Routes{}.Conn(c).Get(ctx, rid)
		return err
	})
	lts.Require().NoError(err)
	return r
}

func (lts *LedgerTestSuite) TestReserveUntilFullAndRelease() {
	rid := lts.newRoute(10, today.AddDate(0, 0, 1))
	r1, err := lts.Ledger.Reserve(lts.Ctx, rid, 4)
	lts.Require().NoError(err)
	lts.Equal(model.Weight(4), r1.Weight)
	rem, err := lts.Ledger.RemainingCapacity(lts.Ctx, rid)
	lts.Require().NoError(err)
	lts.Equal(model.Weight(6), rem)

	_, err = lts.Ledger.Reserve(lts.Ctx, rid, 6)
	lts.Require().NoError(err)
	lts.Equal(model.RouteFull, lts.route(rid).Status)

	_, err = lts.Ledger.Reserve(lts.Ctx, rid, 1)
	lts.ErrorIs(err, model.ErrRouteNotOpen)

	lts.Require().NoError(lts.Ledger.Release(lts.Ctx, r1.ID))
	r := lts.route(rid)
	lts.Equal(model.RouteOpen, r.Status)
	lts.Equal(model.Weight(6), r.Committed)

	lts.Require().NoError(lts.Ledger.Release(lts.Ctx, r1.ID), "release twice")
	total, err := lts.Ledger.TotalCommitted(lts.Ctx, rid)
	lts.Require().NoError(err)
	lts.Equal(model.Weight(6), total, "second release must be a no-op")
}

func (lts *LedgerTestSuite) TestReserveFailsWithoutSideEffects() {
	rid := lts.newRoute(10, today)
	_, err := lts.Ledger.Reserve(lts.Ctx, rid, 11)
	lts.ErrorIs(err, model.ErrCapacityExceeded)
	lts.Equal(http.StatusConflict, cerr.StatusCode(err))

	_, err = lts.Ledger.Reserve(lts.Ctx, rid, 0)
	lts.ErrorIs(err, model.ErrInvalidWeight)
	lts.Equal(http.StatusBadRequest, cerr.StatusCode(err))

	r := lts.route(rid)
	lts.Equal(model.Weight(0), r.Committed)
	lts.Equal(int64(1), r.Version)
}

func (lts *LedgerTestSuite) TestReserveOnUnknownOrDepartedRoute() {
	_, err := lts.Ledger.Reserve(lts.Ctx, uuid.New(), 1)
	lts.ErrorIs(err, model.ErrNotFound)
	lts.Equal(http.StatusNotFound, cerr.StatusCode(err))

	rid := lts.newRoute(10, today.AddDate(0, 0, -1))
	_, err = lts.Ledger.Reserve(lts.Ctx, rid, 1)
	lts.ErrorIs(err, model.ErrRouteNotOpen)
}

func (lts *LedgerTestSuite) TestReleaseUnknownReservation() {
	err := lts.Ledger.Release(lts.Ctx, uuid.New())
	lts.ErrorIs(err, model.ErrNotFound)
}

func (lts *LedgerTestSuite) TestTwoRidersRaceForTheSameCapacity() {
	for i := 0; i < 50; i++ {
		rid := lts.newRoute(10, today)
		errs := make([]error, 2)
		var wg sync.WaitGroup
		for j := range errs {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				_, errs[j] = lts.Ledger.Reserve(lts.Ctx, rid, 6)
			}(j)
		}
		wg.Wait()
		failed := 0
		for _, err := range errs {
			if err != nil {
				lts.ErrorIs(err, model.ErrCapacityExceeded)
				failed++
			}
		}
		lts.Equal(1, failed, "exactly one of the riders must fail")
		r := lts.route(rid)
		lts.Equal(model.Weight(6), r.Committed)
		lts.Equal(model.RouteOpen, r.Status)
	}
}

func (lts *LedgerTestSuite) TestReserveWaitsForAnUnfinishedTransaction() {
	rid := lts.newRoute(10, today)
	reserved, abort := make(chan struct{}), make(chan struct{})
	errAborted := errors.New("aborted")
	txDone := make(chan error, 1)
	go func() {
		txDone <- lts.Pool.Conn(lts.Ctx, func(ctx context.Context, c repo.Conn) error {
			return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
				if _, err := lts.Ledger.ReserveTx(ctx, tx, rid, 6); err != nil {
					return err
				}
				close(reserved)
				<-abort
				return errAborted
			})
		})
	}()
	<-reserved

	type result struct {
		res *model.Reservation
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := lts.Ledger.Reserve(lts.Ctx, rid, 4)
		done <- result{res, err}
	}()
	select {
	case <-done:
		lts.FailNow("reserve must wait for the route lock")
	case <-time.After(50 * time.Millisecond):
	}
	close(abort)
	lts.ErrorIs(<-txDone, errAborted)

	got := <-done
	lts.Require().NoError(got.err)
	lts.Equal(model.Weight(4), got.res.Weight)
	r := lts.route(rid)
	lts.Equal(model.Weight(4), r.Committed)
	lts.Equal(model.RouteOpen, r.Status)
	remaining, err := lts.Ledger.RemainingCapacity(lts.Ctx, rid)
	lts.Require().NoError(err)
	lts.Equal(model.Weight(6), remaining)

	lts.Require().NoError(lts.Ledger.Release(lts.Ctx, got.res.ID))
	total, err := lts.Ledger.TotalCommitted(lts.Ctx, rid)
	lts.Require().NoError(err)
	lts.Equal(model.Weight(0), total)
}

func (lts *LedgerTestSuite) TestConcurrentReservationsNeverOversell() {
	rid := lts.newRoute(100, today)
	const riders = 50
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won []*model.Reservation
	)
	for i := 0; i < riders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := lts.Ledger.Reserve(lts.Ctx, rid, 3)
			if err != nil {
				lts.ErrorIs(err, model.ErrCapacityExceeded)
				return
			}
			mu.Lock()
			won = append(won, res)
			mu.Unlock()
		}()
	}
	wg.Wait()
	lts.Len(won, 33)
	r := lts.route(rid)
	lts.Equal(model.Weight(99), r.Committed)

	// releasing concurrently, each reservation twice
	for _, res := range won {
		for k := 0; k < 2; k++ {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				lts.NoError(lts.Ledger.Release(lts.Ctx, id))
			}(res.ID)
		}
	}
	wg.Wait()
	r = lts.route(rid)
	lts.Equal(model.Weight(0), r.Committed)
	lts.Equal(model.RouteOpen, r.Status)
}

func (lts *LedgerTestSuite) TestRandomHistoryConservesCapacity() {
	rid := lts.newRoute(50, today)
	rnd := rand.New(rand.NewSource(7))
	live := map[uuid.UUID]model.Weight{}
	var released []uuid.UUID
	for i := 0; i < 500; i++ {
		switch rnd.Intn(3) {
		case 0, 1:
			w := model.Weight(rnd.Intn(12) + 1)
			res, err := lts.Ledger.Reserve(lts.Ctx, rid, w)
			if err == nil {
				live[res.ID] = w
			}
		default:
			if len(released) > 0 && rnd.Intn(4) == 0 {
				id := released[rnd.Intn(len(released))]
				lts.Require().NoError(lts.Ledger.Release(lts.Ctx, id))
				break
			}
			for id := range live {
				lts.Require().NoError(lts.Ledger.Release(lts.Ctx, id))
				delete(live, id)
				released = append(released, id)
				break
			}
		}
		var sum model.Weight
		for _, w := range live {
			sum += w
		}
		r := lts.route(rid)
		lts.Require().Equal(sum, r.Committed, "step %d", i)
		lts.Require().LessOrEqual(r.Committed, r.Capacity)
		lts.Require().Equal(r.Committed == r.Capacity, r.Status == model.RouteFull)
	}
}

func TestInvalidOptions(t *testing.T) {
	_, err := ledgeruc.New(nil, nil, nil, ledgeruc.WithReserveRetries(0))
	if err == nil {
		t.Fatal("zero retries must be rejected")
	}
	_, err = ledgeruc.New(
		nil, nil, nil,
		ledgeruc.WithReserveRetries(2), ledgeruc.WithReserveRetries(3),
	)
	if err == nil {
		t.Fatal("configuring retries twice must be rejected")
	}
}
