// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package routesrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/serdser"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

type rawCreateRouteReq struct {
	VehicleID   *uuid.UUID         `json:"vehicle_id"`
	VehicleType string             `json:"vehicle_type"` // or from vehicle
	TravelDate  string             `json:"travel_date" binding:"required"`
	Start       serdser.Coordinate `json:"start"`
	End         serdser.Coordinate `json:"end"`
	Capacity    int64              `json:"capacity" binding:"required,gt=0"`
	PricePerKm  int64              `json:"price_per_km" binding:"gte=0"`
}

func (rs *resource) DserCreateRouteReq(c *gin.Context) *model.Route {
	req := &rawCreateRouteReq{}
	if ok := serdser.Bind(c, req, binding.JSON); !ok {
		return nil
	}
	var (
		errs map[string][]string
		vt   model.VehicleType
		err  error
	)
	if req.VehicleType != "" || req.VehicleID == nil {
		vt, err = model.ParseVehicleType(req.VehicleType)
		serdser.Assert(&errs, err == nil, "vehicle_type", "Unknown vehicle type.")
	}
	date, err := serdser.ParseDate(req.TravelDate)
	serdser.Assert(&errs, err == nil, "travel_date", "Expected YYYY-MM-DD.")
	if errs != nil {
		c.JSON(http.StatusBadRequest, errs)
		return nil
	}
	return &model.Route{
		VehicleID:   req.VehicleID,
		VehicleType: vt,
		TravelDate:  date,
		Start:       req.Start.ToModel(),
		End:         req.End.ToModel(),
		Capacity:    model.Weight(req.Capacity),
		PricePerKm:  model.Money(req.PricePerKm),
	}
}

type rawUpdateRouteReq struct {
	Op string `form:"op" binding:"required,oneof=start close cancel"`
}

type updateRouteReq struct {
	RouteID uuid.UUID
	Op      string
}

func (rs *resource) DserUpdateRouteReq(c *gin.Context) *updateRouteReq {
	rid, ok := serdser.UUIDParam(c, "rid")
	if !ok {
		return nil
	}
	req := &rawUpdateRouteReq{}
	if ok := serdser.Bind(c, req, binding.Query); !ok {
		return nil
	}
	return &updateRouteReq{RouteID: rid, Op: req.Op}
}

type rawQuoteReq struct {
	Weight int64 `form:"weight" binding:"required,gt=0"`
}

// QuoteResp reports the price of joining a route with a weight.
type QuoteResp struct {
	Weight model.Weight `json:"weight"`
	Price  model.Money  `json:"price"`
}

func (rs *resource) DserQuoteReq(
	c *gin.Context,
) (rid uuid.UUID, w model.Weight, ok bool) {
	if rid, ok = serdser.UUIDParam(c, "rid"); !ok {
		return
	}
	req := &rawQuoteReq{}
	if ok = serdser.Bind(c, req, binding.Query); !ok {
		return
	}
	return rid, model.Weight(req.Weight), true
}

// rawJoinRouteReq may omit the weight if it refers to a request, so
// the whole request weight is reserved.
type rawJoinRouteReq struct {
	Weight    int64      `json:"weight" binding:"gte=0"`
	RequestID *uuid.UUID `json:"request_id"`
}

type joinRouteReq struct {
	RouteID   uuid.UUID
	Weight    model.Weight
	RequestID *uuid.UUID
}

func (rs *resource) DserJoinRouteReq(c *gin.Context) *joinRouteReq {
	rid, ok := serdser.UUIDParam(c, "rid")
	if !ok {
		return nil
	}
	req := &rawJoinRouteReq{}
	if ok := serdser.Bind(c, req, binding.JSON); !ok {
		return nil
	}
	return &joinRouteReq{
		RouteID:   rid,
		Weight:    model.Weight(req.Weight),
		RequestID: req.RequestID,
	}
}
