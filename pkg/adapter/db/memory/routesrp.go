// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// Routes is the in-memory routes repository.
type Routes struct{}

// Conn returns a routes queryer which runs on the c connection.
func (Routes) Conn(c repo.Conn) repo.RoutesQueryer {
	return routesQueryer{connQueryer(c)}
}

// Tx returns a routes queryer which runs on the tx transaction.
func (Routes) Tx(tx repo.Tx) repo.RoutesQueryer {
	return routesQueryer{txQueryer(tx)}
}

type routesQueryer struct {
	queryer
}

func (q routesQueryer) Create(
	_ context.Context, r *model.Route,
) (*model.Route, error) {
	defer q.lock()()
	rr := *r
	rr.ID = newID(r.ID)
	rr.TravelDate = model.Day(r.TravelDate)
	rr.Version = 1
	rr.CreatedAt = q.s.now()
	q.onRollback(restore(q.s.routes, rr.ID))
	q.s.routes[rr.ID] = rr
	return &rr, nil
}

func (q routesQueryer) Get(
	_ context.Context, rid uuid.UUID,
) (*model.Route, error) {
	defer q.lock()()
	r, ok := q.s.routes[rid]
	if !ok {
		return nil, notFound("route", rid)
	}
	return &r, nil
}

func (q routesQueryer) List(
	_ context.Context, f model.RouteFilter,
) ([]*model.Route, error) {
	defer q.lock()()
	var rs []*model.Route
	for _, r := range q.s.routes {
		if !matches(&r, f) {
			continue
		}
		r := r
		rs = append(rs, &r)
	}
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].TravelDate.Equal(rs[j].TravelDate) {
			return rs[i].TravelDate.Before(rs[j].TravelDate)
		}
		return rs[i].ID.String() < rs[j].ID.String()
	})
	return rs, nil
}

func matches(r *model.Route, f model.RouteFilter) bool {
	switch {
	case len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status):
		return false
	case !f.From.IsZero() && r.TravelDate.Before(f.From):
		return false
	case !f.To.IsZero() && !r.TravelDate.Before(f.To):
		return false
	case f.DriverID != uuid.Nil && r.DriverID != f.DriverID:
		return false
	case r.Remaining() < f.MinRemain:
		return false
	}
	return true
}

func (q routesQueryer) Swap(
	_ context.Context, u model.RouteUpdate,
) (bool, error) {
	defer q.lock()()
	r, ok := q.s.routes[u.ID]
	if !ok {
		return false, notFound("route", u.ID)
	}
	if r.Version != u.Version {
		return false, nil
	}
	old := r
	r.Committed = u.Committed
	r.Status = u.Status
	r.ClosedOut = u.ClosedOut
	r.Version++
	q.s.routes[u.ID] = r
	q.onRollback(func() {
		// keep the row if another writer has updated it since
		if cur, ok := q.s.routes[u.ID]; ok && cur.Version == r.Version {
			q.s.routes[u.ID] = old
		}
	})
	return true, nil
}

func (q routesQueryer) Lock(ctx context.Context, rid uuid.UUID) error {
	if q.tx == nil {
		return errors.New("locking a route requires a transaction")
	}
	if q.tx.locked[rid] {
		return nil
	}
	q.s.mu.Lock()
	if _, ok := q.s.routes[rid]; !ok {
		q.s.mu.Unlock()
		return notFound("route", rid)
	}
	m := q.s.routeLocks[rid]
	if m == nil {
		m = &sync.Mutex{}
		q.s.routeLocks[rid] = m
	}
	q.s.mu.Unlock()
	m.Lock()
	q.tx.locked[rid] = true
	q.tx.unlock = append(q.tx.unlock, m.Unlock)
	return nil
}

// Reservations is the in-memory reservations repository.
type Reservations struct{}

// Conn returns a reservations queryer which runs on the c connection.
func (Reservations) Conn(c repo.Conn) repo.ReservationsQueryer {
	return reservationsQueryer{connQueryer(c)}
}

// Tx returns a reservations queryer which runs on the tx transaction.
func (Reservations) Tx(tx repo.Tx) repo.ReservationsQueryer {
	return reservationsQueryer{txQueryer(tx)}
}

type reservationsQueryer struct {
	queryer
}

func (q reservationsQueryer) Create(
	_ context.Context, r *model.Reservation,
) (*model.Reservation, error) {
	defer q.lock()()
	rr := *r
	rr.ID = newID(r.ID)
	q.onRollback(restore(q.s.reservations, rr.ID))
	q.s.reservations[rr.ID] = rr
	return &rr, nil
}

func (q reservationsQueryer) Get(
	_ context.Context, id uuid.UUID,
) (*model.Reservation, error) {
	defer q.lock()()
	r, ok := q.s.reservations[id]
	if !ok {
		return nil, notFound("reservation", id)
	}
	return &r, nil
}

func (q reservationsQueryer) MarkReleased(
	_ context.Context, id uuid.UUID,
) (bool, error) {
	defer q.lock()()
	r, ok := q.s.reservations[id]
	if !ok {
		return false, notFound("reservation", id)
	}
	if r.Released {
		return false, nil
	}
	q.onRollback(restore(q.s.reservations, id))
	r.Released = true
	q.s.reservations[id] = r
	return true, nil
}
