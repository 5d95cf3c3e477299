// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package vehiclesrs realizes the vehicles resource of the drivers.
package vehiclesrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/auth"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/serdser"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/vehiclesuc"
)

// UseCases provides the currently effective vehicles use case.
type UseCases interface {
	VehiclesUseCase() *vehiclesuc.UseCase
}

type resource struct {
	ucs UseCases
}

// Register instantiates a resource adapting the vehicles use case with
// the relevant REST APIs including:
//  1. POST and GET requests to /api/plook/v1/vehicles
//     in order to register a vehicle or list the caller vehicles,
//  2. PUT and DELETE requests to /api/plook/v1/vehicles/:vid
//     in order to replace or remove a vehicle of the caller.
func Register(r *gin.RouterGroup, ucs UseCases) {
	rs := &resource{ucs: ucs}
	r.POST("vehicles", rs.CreateVehicle)
	r.GET("vehicles", rs.ListVehicles)
	r.PUT("vehicles/:vid", rs.UpdateVehicle)
	r.DELETE("vehicles/:vid", rs.DeleteVehicle)
}

func (rs *resource) CreateVehicle(c *gin.Context) {
	v := rs.DserVehicleReq(c)
	if v == nil {
		return
	}
	created, err := rs.ucs.VehiclesUseCase().Create(c, auth.Caller(c), v)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (rs *resource) ListVehicles(c *gin.Context) {
	vs, err := rs.ucs.VehiclesUseCase().List(c, auth.Caller(c))
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, VehiclesResp{Vehicles: vs})
}

func (rs *resource) UpdateVehicle(c *gin.Context) {
	vid, ok := serdser.UUIDParam(c, "vid")
	if !ok {
		return
	}
	v := rs.DserVehicleReq(c)
	if v == nil {
		return
	}
	v.ID = vid
	updated, err := rs.ucs.VehiclesUseCase().Update(c, auth.Caller(c), v)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (rs *resource) DeleteVehicle(c *gin.Context) {
	vid, ok := serdser.UUIDParam(c, "vid")
	if !ok {
		return
	}
	if err := rs.ucs.VehiclesUseCase().Delete(c, auth.Caller(c), vid); err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
