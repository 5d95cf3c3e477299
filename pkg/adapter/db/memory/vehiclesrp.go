// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// Vehicles is the in-memory vehicles repository.
type Vehicles struct{}

// Conn returns a vehicles queryer which runs on the c connection.
func (Vehicles) Conn(c repo.Conn) repo.VehiclesQueryer {
	return vehiclesQueryer{connQueryer(c)}
}

// Tx returns a vehicles queryer which runs on the tx transaction.
func (Vehicles) Tx(tx repo.Tx) repo.VehiclesQueryer {
	return vehiclesQueryer{txQueryer(tx)}
}

type vehiclesQueryer struct {
	queryer
}

func (q vehiclesQueryer) Create(
	_ context.Context, v *model.Vehicle,
) (*model.Vehicle, error) {
	defer q.lock()()
	vv := *v
	vv.ID = newID(v.ID)
	q.onRollback(restore(q.s.vehicles, vv.ID))
	q.s.vehicles[vv.ID] = vv
	return &vv, nil
}

func (q vehiclesQueryer) Get(
	_ context.Context, vid uuid.UUID,
) (*model.Vehicle, error) {
	defer q.lock()()
	v, ok := q.s.vehicles[vid]
	if !ok {
		return nil, notFound("vehicle", vid)
	}
	return &v, nil
}

func (q vehiclesQueryer) ListByOwner(
	_ context.Context, owner uuid.UUID,
) ([]*model.Vehicle, error) {
	defer q.lock()()
	var vs []*model.Vehicle
	for _, v := range q.s.vehicles {
		if v.OwnerID != owner {
			continue
		}
		v := v
		vs = append(vs, &v)
	}
	sort.Slice(vs, func(i, j int) bool {
		return vs[i].ID.String() < vs[j].ID.String()
	})
	return vs, nil
}

func (q vehiclesQueryer) Update(
	_ context.Context, v *model.Vehicle,
) (*model.Vehicle, error) {
	defer q.lock()()
	old, ok := q.s.vehicles[v.ID]
	if !ok {
		return nil, notFound("vehicle", v.ID)
	}
	vv := *v
	vv.OwnerID = old.OwnerID
	q.onRollback(restore(q.s.vehicles, v.ID))
	q.s.vehicles[v.ID] = vv
	return &vv, nil
}

func (q vehiclesQueryer) Delete(_ context.Context, vid uuid.UUID) error {
	defer q.lock()()
	if _, ok := q.s.vehicles[vid]; !ok {
		return notFound("vehicle", vid)
	}
	q.onRollback(restore(q.s.vehicles, vid))
	delete(q.s.vehicles, vid)
	return nil
}
