// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package pricing computes route distances and the price shares of the
// route participants. It holds no state and performs no I/O, so its
// functions may be called freely by the use cases.
//
// Distances are great-circle (haversine) approximations in kilometers.
// Costs are computed in the smallest currency unit and the shares of
// all billable participants (active or delivered ones) always add up
// to the route cost exactly.
package pricing

import (
	"math"
	"math/bits"
	"sort"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

// EarthRadiusKm is the mean Earth radius which is used by Distance.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance between a and b in
// kilometers, using the haversine formula.
func Distance(a, b model.Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dlat := lat2 - lat1
	dlon := radians(b.Lon - a.Lon)
	h := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RouteDistance returns the distance between the start and end of r.
// A route which starts and ends at one place (e.g., a local delivery
// loop) has a zero distance.
func RouteDistance(r *model.Route) float64 {
	return Distance(r.Start, r.End)
}

// TotalRouteCost returns the route distance multiplied by its price per
// kilometer, rounded to the nearest currency unit. It saturates at the
// largest representable Money.
func TotalRouteCost(r *model.Route) model.Money {
	c := math.Round(RouteDistance(r) * float64(r.PricePerKm))
	if c >= math.MaxInt64 {
		return math.MaxInt64
	}
	return model.Money(c)
}

// Shares splits the total cost of r among the given participants
// pro-rata by their weights. Cancelled participants are ignored. Each
// share is rounded down, except the last participant by join order
// (ties are broken by ID) which absorbs the remainder, so the returned
// shares always add up to TotalRouteCost(r). An empty map is returned
// if there is no billable participant.
func Shares(r *model.Route, participants []*model.Participant) map[uuid.UUID]model.Money {
	billed := make([]*model.Participant, 0, len(participants))
	var sum model.Weight
	for _, p := range participants {
		if p.Status.Billable() {
			billed = append(billed, p)
			sum += p.Weight
		}
	}
	shares := make(map[uuid.UUID]model.Money, len(billed))
	if len(billed) == 0 {
		return shares
	}
	sortByJoinOrder(billed)
	total := TotalRouteCost(r)
	var assigned model.Money
	last := len(billed) - 1
	for _, p := range billed[:last] {
		s := proRata(total, p.Weight, sum)
		shares[p.ID] = s
		assigned += s
	}
	shares[billed[last].ID] = total - assigned
	return shares
}

// ParticipantShare returns the share of p among all participants of r.
// If p is not billable (e.g., a hypothetical participant which has not
// joined yet), its quote is returned; that is the whole route cost if
// there is no billable participant, as if p was the only rider.
func ParticipantShare(r *model.Route, p *model.Participant, all []*model.Participant) model.Money {
	if s, ok := Shares(r, all)[p.ID]; ok {
		return s
	}
	var sum model.Weight
	for _, o := range all {
		if o.Status.Billable() && o.ID != p.ID {
			sum += o.Weight
		}
	}
	return Quote(r, sum, p.Weight)
}

// Quote returns the price share of a hypothetical participant with the
// weight w, if it joins r while the committed weight of r is as given.
// With no committed weight, the quote is the whole route cost.
func Quote(r *model.Route, committed, w model.Weight) model.Money {
	total := TotalRouteCost(r)
	if committed <= 0 {
		return total
	}
	return proRata(total, w, committed+w)
}

// proRata computes floor(total * w / sum) without floating point
// arithmetic. The product is kept in 128 bits, so it cannot overflow
// while 0 <= w <= sum. A negative total is rounded toward zero.
func proRata(total model.Money, w, sum model.Weight) model.Money {
	if sum <= 0 || w <= 0 || total == 0 {
		return 0
	}
	t := uint64(total)
	if total < 0 {
		t = -t
	}
	hi, lo := bits.Mul64(t, uint64(w))
	if hi >= uint64(sum) {
		// w > sum and the quotient does not fit
		if total < 0 {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, uint64(sum))
	if q > math.MaxInt64 {
		q = math.MaxInt64
	}
	if total < 0 {
		return -model.Money(q)
	}
	return model.Money(q)
}

func sortByJoinOrder(ps []*model.Participant) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}
