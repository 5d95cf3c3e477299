// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/cerr"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// Participants is the in-memory participants repository.
type Participants struct{}

// Conn returns a participants queryer which runs on the c connection.
func (Participants) Conn(c repo.Conn) repo.ParticipantsQueryer {
	return participantsQueryer{connQueryer(c)}
}

// Tx returns a participants queryer which runs on the tx transaction.
func (Participants) Tx(tx repo.Tx) repo.ParticipantsQueryer {
	return participantsQueryer{txQueryer(tx)}
}

type participantsQueryer struct {
	queryer
}

// Create stores p. Similar to the partial unique index of the SQL
// schema, at most one active participant may refer to each request.
func (q participantsQueryer) Create(
	_ context.Context, p *model.Participant,
) (*model.Participant, error) {
	defer q.lock()()
	if p.RequestID != nil {
		for _, other := range q.s.participants {
			if other.RequestID != nil &&
				*other.RequestID == *p.RequestID &&
				other.Status.Active() {
				return nil, cerr.Conflict(fmt.Errorf(
					"request %s: %w", *p.RequestID,
					model.ErrRequestTaken,
				))
			}
		}
	}
	pp := *p
	pp.ID = newID(p.ID)
	if pp.JoinedAt.IsZero() {
		pp.JoinedAt = q.s.now()
	}
	q.onRollback(restore(q.s.participants, pp.ID))
	q.s.participants[pp.ID] = pp
	return &pp, nil
}

func (q participantsQueryer) Get(
	_ context.Context, pid uuid.UUID,
) (*model.Participant, error) {
	defer q.lock()()
	p, ok := q.s.participants[pid]
	if !ok {
		return nil, notFound("participant", pid)
	}
	return &p, nil
}

func (q participantsQueryer) ListByRoute(
	_ context.Context, rid uuid.UUID, active bool,
) ([]*model.Participant, error) {
	defer q.lock()()
	var ps []*model.Participant
	for _, p := range q.s.participants {
		if p.RouteID != rid || (active && !p.Status.Active()) {
			continue
		}
		p := p
		ps = append(ps, &p)
	}
	sortByJoinTime(ps)
	return ps, nil
}

func (q participantsQueryer) ListStale(
	_ context.Context, before time.Time,
) ([]*model.Participant, error) {
	defer q.lock()()
	var ps []*model.Participant
	for _, p := range q.s.participants {
		if p.Status != model.ParticipantConfirmed {
			continue
		}
		r, ok := q.s.routes[p.RouteID]
		if !ok || !r.TravelDate.Before(before) {
			continue
		}
		p := p
		ps = append(ps, &p)
	}
	sortByJoinTime(ps)
	return ps, nil
}

func sortByJoinTime(ps []*model.Participant) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].JoinedAt.Equal(ps[j].JoinedAt) {
			return ps[i].JoinedAt.Before(ps[j].JoinedAt)
		}
		return ps[i].ID.String() < ps[j].ID.String()
	})
}

func (q participantsQueryer) SwapStatus(
	_ context.Context, pid uuid.UUID, from, to model.ParticipantStatus,
) (bool, error) {
	defer q.lock()()
	p, ok := q.s.participants[pid]
	if !ok {
		return false, notFound("participant", pid)
	}
	if p.Status != from {
		return false, nil
	}
	q.onRollback(restore(q.s.participants, pid))
	p.Status = to
	q.s.participants[pid] = p
	return true, nil
}

func (q participantsQueryer) UpdateShares(
	_ context.Context, shares map[uuid.UUID]model.Money,
) error {
	defer q.lock()()
	for pid, share := range shares {
		p, ok := q.s.participants[pid]
		if !ok {
			return notFound("participant", pid)
		}
		q.onRollback(restore(q.s.participants, pid))
		p.Share = share
		q.s.participants[pid] = p
	}
	return nil
}
