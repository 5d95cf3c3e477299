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

// VehiclesQueryer lists the vehicles queries.
type VehiclesQueryer interface {
	Create(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error)
	Get(ctx context.Context, vid uuid.UUID) (*model.Vehicle, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]*model.Vehicle, error)

	// Update overwrites all fields of the stored v.ID vehicle, except
	// its ID and OwnerID.
	Update(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error)
	Delete(ctx context.Context, vid uuid.UUID) error
}

// Vehicles is the vehicles repository.
type Vehicles interface {
	Conn(Conn) VehiclesQueryer
	Tx(Tx) VehiclesQueryer
}
