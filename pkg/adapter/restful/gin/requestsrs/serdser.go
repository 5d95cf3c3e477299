// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package requestsrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/serdser"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

type rawCreateRequestReq struct {
	CargoType      string             `json:"cargo_type" binding:"required,max=64"`
	Weight         int64              `json:"weight" binding:"required,gt=0"`
	Pickup         serdser.Coordinate `json:"pickup"`
	Dropoff        serdser.Coordinate `json:"dropoff"`
	PickupAddress  string             `json:"pickup_address" binding:"max=256"`
	DropoffAddress string             `json:"dropoff_address" binding:"max=256"`
	RequestedDate  string             `json:"requested_date" binding:"required"`
	Shareable      bool               `json:"shareable"`
	OfferedPrice   *int64             `json:"offered_price" binding:"omitempty,gte=0"`
}

func (rs *resource) DserCreateRequestReq(c *gin.Context) *model.Request {
	req := &rawCreateRequestReq{}
	if ok := serdser.Bind(c, req, binding.JSON); !ok {
		return nil
	}
	date, err := serdser.ParseDate(req.RequestedDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, map[string][]string{
			"requested_date": {"Expected YYYY-MM-DD."},
		})
		return nil
	}
	r := &model.Request{
		CargoType:      req.CargoType,
		Weight:         model.Weight(req.Weight),
		Pickup:         req.Pickup.ToModel(),
		Dropoff:        req.Dropoff.ToModel(),
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		RequestedDate:  date,
		Shareable:      req.Shareable,
	}
	if req.OfferedPrice != nil {
		p := model.Money(*req.OfferedPrice)
		r.OfferedPrice = &p
	}
	return r
}
