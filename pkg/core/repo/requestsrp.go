// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

// RequestsQueryer lists the cargo requests queries.
type RequestsQueryer interface {
	Create(ctx context.Context, r *model.Request) (*model.Request, error)
	Get(ctx context.Context, qid uuid.UUID) (*model.Request, error)

	// SwapStatus moves the qid request from the `from` status to the
	// `to` status, reporting false if it was not in `from` anymore.
	SwapStatus(ctx context.Context, qid uuid.UUID, from, to model.RequestStatus) (bool, error)
}

// Requests is the cargo requests repository.
type Requests interface {
	Conn(Conn) RequestsQueryer
	Tx(Tx) RequestsQueryer
}
