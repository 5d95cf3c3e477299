// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package vehiclesrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/serdser"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

type rawVehicleReq struct {
	Type            string             `json:"type" binding:"required"`
	Capacity        int64              `json:"capacity" binding:"required,gt=0"`
	PricePerKm      int64              `json:"price_per_km" binding:"gte=0"`
	ServiceRadiusKm float64            `json:"service_radius_km" binding:"gte=0"`
	Available       bool               `json:"available"`
	Home            serdser.Coordinate `json:"home"`
}

// VehiclesResp lists the vehicles of a driver.
type VehiclesResp struct {
	Vehicles []*model.Vehicle `json:"vehicles"`
}

func (rs *resource) DserVehicleReq(c *gin.Context) *model.Vehicle {
	req := &rawVehicleReq{}
	if ok := serdser.Bind(c, req, binding.JSON); !ok {
		return nil
	}
	vt, err := model.ParseVehicleType(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, map[string][]string{
			"type": {"Unknown vehicle type."},
		})
		return nil
	}
	return &model.Vehicle{
		Type:            vt,
		Capacity:        model.Weight(req.Capacity),
		PricePerKm:      model.Money(req.PricePerKm),
		ServiceRadiusKm: req.ServiceRadiusKm,
		Available:       req.Available,
		Home:            req.Home.ToModel(),
	}
}
