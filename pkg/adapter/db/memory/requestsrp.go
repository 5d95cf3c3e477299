// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// Requests is the in-memory cargo requests repository.
type Requests struct{}

// Conn returns a requests queryer which runs on the c connection.
func (Requests) Conn(c repo.Conn) repo.RequestsQueryer {
	return requestsQueryer{connQueryer(c)}
}

// Tx returns a requests queryer which runs on the tx transaction.
func (Requests) Tx(tx repo.Tx) repo.RequestsQueryer {
	return requestsQueryer{txQueryer(tx)}
}

type requestsQueryer struct {
	queryer
}

func (q requestsQueryer) Create(
	_ context.Context, r *model.Request,
) (*model.Request, error) {
	defer q.lock()()
	rr := *r
	rr.ID = newID(r.ID)
	rr.CreatedAt = q.s.now()
	q.onRollback(restore(q.s.requests, rr.ID))
	q.s.requests[rr.ID] = rr
	return &rr, nil
}

func (q requestsQueryer) Get(
	_ context.Context, qid uuid.UUID,
) (*model.Request, error) {
	defer q.lock()()
	r, ok := q.s.requests[qid]
	if !ok {
		return nil, notFound("request", qid)
	}
	return &r, nil
}

func (q requestsQueryer) SwapStatus(
	_ context.Context, qid uuid.UUID, from, to model.RequestStatus,
) (bool, error) {
	defer q.lock()()
	r, ok := q.s.requests[qid]
	if !ok {
		return false, notFound("request", qid)
	}
	if r.Status != from {
		return false, nil
	}
	q.onRollback(restore(q.s.requests, qid))
	r.Status = to
	q.s.requests[qid] = r
	return true, nil
}
