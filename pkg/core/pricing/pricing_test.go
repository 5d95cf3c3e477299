// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pricing_test

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// northOf returns a coordinate which is km kilometers north of origin
// along the prime meridian.
func northOf(km float64) model.Coordinate {
	return model.Coordinate{Lat: km / pricing.EarthRadiusKm * 180 / math.Pi}
}

func route(km float64, pricePerKm model.Money) *model.Route {
	return &model.Route{
		ID:         uuid.New(),
		Start:      model.Coordinate{},
		End:        northOf(km),
		Capacity:   10,
		PricePerKm: pricePerKm,
		Status:     model.RouteOpen,
	}
}

func participant(w model.Weight, joined time.Time) *model.Participant {
	return &model.Participant{
		ID:       uuid.New(),
		Weight:   w,
		Status:   model.ParticipantConfirmed,
		JoinedAt: joined,
	}
}

func TestDistance(t *testing.T) {
	bangkok := model.Coordinate{Lat: 13.7563, Lon: 100.5018}
	chiangMai := model.Coordinate{Lat: 18.7883, Lon: 98.9853}
	d := pricing.Distance(bangkok, chiangMai)
	assert.InDelta(t, 582, d, 3, "Bangkok to Chiang Mai")
	assert.InDelta(t, d, pricing.Distance(chiangMai, bangkok), 1e-9)
	assert.Zero(t, pricing.Distance(bangkok, bangkok))
	assert.InDelta(t, 50, pricing.Distance(model.Coordinate{}, northOf(50)), 1e-9)
}

func TestZeroLengthRoute(t *testing.T) {
	r := route(0, 35)
	assert.Zero(t, pricing.RouteDistance(r))
	assert.Zero(t, pricing.TotalRouteCost(r))
	p := participant(3, time.Now())
	shares := pricing.Shares(r, []*model.Participant{p})
	assert.Equal(t, map[uuid.UUID]model.Money{p.ID: 0}, shares)
}

func TestScenarioA(t *testing.T) {
	r := route(50, 20)
	require.Equal(t, model.Money(1000), pricing.TotalRouteCost(r))
	assert.Equal(t, model.Money(1000), pricing.Quote(r, 0, 4),
		"a lone rider pays the whole route")

	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	first := participant(4, t0)
	assert.Equal(t, model.Money(1000), pricing.ParticipantShare(
		r, first, []*model.Participant{first},
	))
	second := participant(6, t0.Add(time.Minute))
	all := []*model.Participant{second, first}
	shares := pricing.Shares(r, all)
	assert.Equal(t, model.Money(400), shares[first.ID])
	assert.Equal(t, model.Money(600), shares[second.ID])
	assert.Equal(t, model.Money(400), pricing.ParticipantShare(r, first, all))
}

func TestQuoteForHypotheticalRider(t *testing.T) {
	r := route(50, 20)
	assert.Equal(t, model.Money(600), pricing.Quote(r, 4, 6))
	hypothetical := &model.Participant{ID: uuid.New(), Weight: 6}
	existing := participant(4, time.Now())
	assert.Equal(t, model.Money(600), pricing.ParticipantShare(
		r, hypothetical, []*model.Participant{existing},
	))
	assert.Equal(t, model.Money(1000), pricing.ParticipantShare(
		r, hypothetical, nil,
	))
}

func TestSharesAddUpExactly(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		name    string
		km      float64
		price   model.Money
		weights []model.Weight
	}{
		{"thirds", 10, 10, []model.Weight{1, 1, 1}},
		{"primes", 37.3, 13, []model.Weight{7, 11, 13, 17}},
		{"single", 12.5, 9, []model.Weight{5}},
		{"many small", 101, 7, []model.Weight{1, 2, 1, 3, 1, 1, 2, 1}},
		{"heavy and light", 3, 1, []model.Weight{999, 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := route(tc.km, tc.price)
			ps := make([]*model.Participant, 0, len(tc.weights))
			for i, w := range tc.weights {
				ps = append(ps, participant(w, t0.Add(time.Duration(i)*time.Second)))
			}
			shares := pricing.Shares(r, ps)
			require.Len(t, shares, len(ps))
			var sum model.Money
			for _, p := range ps[:len(ps)-1] {
				s := shares[p.ID]
				assert.GreaterOrEqual(t, s, model.Money(0))
				sum += s
			}
			last := shares[ps[len(ps)-1].ID]
			assert.GreaterOrEqual(t, last, model.Money(0))
			assert.Equal(t, pricing.TotalRouteCost(r), sum+last)
		})
	}
}

func TestSharesIgnoreCancelledParticipants(t *testing.T) {
	r := route(50, 20)
	t0 := time.Now()
	a := participant(4, t0)
	b := participant(6, t0.Add(time.Second))
	b.Status = model.ParticipantCancelled
	c := participant(1, t0.Add(2*time.Second))
	c.Status = model.ParticipantDelivered
	shares := pricing.Shares(r, []*model.Participant{a, b, c})
	assert.Equal(t, map[uuid.UUID]model.Money{a.ID: 800, c.ID: 200}, shares)
	assert.Equal(t,
		map[uuid.UUID]model.Money{c.ID: 1000},
		pricing.Shares(r, []*model.Participant{b, c}),
	)
	assert.Empty(t, pricing.Shares(r, []*model.Participant{b}))
}

func TestLastJoinerAbsorbsRemainder(t *testing.T) {
	r := route(10, 10) // total cost 100
	t0 := time.Now()
	ps := []*model.Participant{
		participant(1, t0),
		participant(1, t0.Add(time.Second)),
		participant(1, t0.Add(2*time.Second)),
	}
	shares := pricing.Shares(r, ps)
	assert.Equal(t, model.Money(33), shares[ps[0].ID])
	assert.Equal(t, model.Money(33), shares[ps[1].ID])
	assert.Equal(t, model.Money(34), shares[ps[2].ID])
}

func TestLargeAmountsDoNotOverflow(t *testing.T) {
	r := route(1000, 100_000_000_000)
	total := pricing.TotalRouteCost(r)
	require.InDelta(t, 1e14, float64(total), 1e3)

	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	light := participant(3_000_000, t0)
	heavy := participant(7_000_000, t0.Add(time.Second))
	shares := pricing.Shares(r, []*model.Participant{light, heavy})

	want := new(big.Int).Mul(big.NewInt(int64(total)), big.NewInt(3_000_000))
	want.Quo(want, big.NewInt(10_000_000))
	assert.Equal(t, model.Money(want.Int64()), shares[light.ID])
	assert.Equal(t, total-shares[light.ID], shares[heavy.ID])
	assert.Positive(t, shares[light.ID])
	assert.Positive(t, shares[heavy.ID])
	assert.Equal(t, shares[light.ID], pricing.Quote(r, 7_000_000, 3_000_000))
}
