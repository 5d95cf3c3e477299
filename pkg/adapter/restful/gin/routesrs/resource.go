// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routesrs realizes the routes resource, allowing drivers to
// publish and operate their routes and shippers to quote and join them.
package routesrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/auth"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/serdser"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/routesuc"
)

// UseCases provides the currently effective routes use case. It is
// consulted per request, so reloaded settings take effect immediately.
type UseCases interface {
	RoutesUseCase() *routesuc.UseCase
}

type resource struct {
	ucs UseCases
}

// Register instantiates a resource adapting the routes use case with
// the relevant REST APIs including:
//  1. POST request to /api/plook/v1/routes
//     in order to publish a route,
//  2. GET request to /api/plook/v1/routes/:rid
//     in order to fetch a route with its participants and pricing,
//  3. PATCH request to /api/plook/v1/routes/:rid?op=start|close|cancel
//     in order to start, close out, or cancel a route,
//  4. GET request to /api/plook/v1/routes/:rid/quote?weight=
//     in order to quote the price of joining a route,
//  5. POST request to /api/plook/v1/routes/:rid/participants
//     in order to join a route.
func Register(r *gin.RouterGroup, ucs UseCases) {
	rs := &resource{ucs: ucs}
	r.POST("routes", rs.CreateRoute)
	r.GET("routes/:rid", rs.GetRoute)
	r.PATCH("routes/:rid", rs.UpdateRoute)
	r.GET("routes/:rid/quote", rs.Quote)
	r.POST("routes/:rid/participants", rs.JoinRoute)
}

func (rs *resource) CreateRoute(c *gin.Context) {
	route := rs.DserCreateRouteReq(c)
	if route == nil {
		return
	}
	created, err := rs.ucs.RoutesUseCase().CreateRoute(c, auth.Caller(c), route)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (rs *resource) GetRoute(c *gin.Context) {
	rid, ok := serdser.UUIDParam(c, "rid")
	if !ok {
		return
	}
	d, err := rs.ucs.RoutesUseCase().GetRoute(c, auth.Caller(c), rid)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (rs *resource) UpdateRoute(c *gin.Context) {
	req := rs.DserUpdateRouteReq(c)
	if req == nil {
		return
	}
	uc, caller := rs.ucs.RoutesUseCase(), auth.Caller(c)
	var (
		r   *model.Route
		err error
	)
	switch req.Op {
	case "start":
		r, err = uc.StartRoute(c, caller, req.RouteID)
	case "close":
		r, err = uc.CloseOutRoute(c, caller, req.RouteID)
	case "cancel":
		r, err = uc.CancelRoute(c, caller, req.RouteID)
	default:
		panic("unexpected op: " + req.Op)
	}
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (rs *resource) Quote(c *gin.Context) {
	rid, w, ok := rs.DserQuoteReq(c)
	if !ok {
		return
	}
	price, err := rs.ucs.RoutesUseCase().Quote(c, rid, w)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, QuoteResp{Weight: w, Price: price})
}

func (rs *resource) JoinRoute(c *gin.Context) {
	req := rs.DserJoinRouteReq(c)
	if req == nil {
		return
	}
	p, err := rs.ucs.RoutesUseCase().JoinRoute(
		c, auth.Caller(c), req.RouteID, req.Weight, req.RequestID,
	)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
