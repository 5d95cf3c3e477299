// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package vehiclesuc_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/memory"
	"github.com/m33pooh/plookaraid/pkg/core/cerr"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/vehiclesuc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVehicleOwnership(t *testing.T) {
	ctx := context.Background()
	uc, err := vehiclesuc.New(memory.NewPool(memory.NewStore(nil)), memory.Vehicles{})
	require.NoError(t, err)
	owner := model.Caller{ID: uuid.New(), Role: model.RoleDriver}
	other := model.Caller{ID: uuid.New(), Role: model.RoleDriver}
	shipper := model.Caller{ID: uuid.New(), Role: model.RoleShipper}

	v := &model.Vehicle{
		OwnerID:  other.ID,
		Type:     model.VehicleTypeRefrigerated,
		Capacity: 1500,
		Home:     model.Coordinate{Lat: 18.79, Lon: 98.98},
	}
	_, err = uc.Create(ctx, shipper, v)
	assert.Equal(t, http.StatusForbidden, cerr.StatusCode(err))

	created, err := uc.Create(ctx, owner, v)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, created.OwnerID, "owner is the caller")
	assert.NotEqual(t, uuid.Nil, created.ID)

	bad := *created
	bad.Capacity = 0
	_, err = uc.Update(ctx, owner, &bad)
	assert.Equal(t, http.StatusBadRequest, cerr.StatusCode(err))

	upd := *created
	upd.Available = true
	_, err = uc.Update(ctx, other, &upd)
	assert.True(t, errors.Is(err, model.ErrUnauthorized))
	updated, err := uc.Update(ctx, owner, &upd)
	require.NoError(t, err)
	assert.True(t, updated.Available)

	vs, err := uc.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, vs)
	vs, err = uc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, vs, 1)

	assert.Equal(t, http.StatusForbidden,
		cerr.StatusCode(uc.Delete(ctx, other, created.ID)))
	require.NoError(t, uc.Delete(ctx, owner, created.ID))
	assert.Equal(t, http.StatusNotFound,
		cerr.StatusCode(uc.Delete(ctx, owner, created.ID)))
}
