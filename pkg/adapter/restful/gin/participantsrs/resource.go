// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package participantsrs realizes the participants resource, so a
// participant may be cancelled and the route driver may record its
// pickup and delivery.
package participantsrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/auth"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/serdser"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/routesuc"
)

// UseCases provides the currently effective routes use case.
type UseCases interface {
	RoutesUseCase() *routesuc.UseCase
}

type resource struct {
	ucs UseCases
}

// Register instantiates a resource adapting the routes use case with
// the participants REST APIs including:
//  1. DELETE request to /api/plook/v1/participants/:pid
//     in order to cancel a participant and release its capacity,
//  2. PATCH request to /api/plook/v1/participants/:pid?status=
//     in order to mark a participant as picked_up or delivered.
func Register(r *gin.RouterGroup, ucs UseCases) {
	rs := &resource{ucs: ucs}
	r.DELETE("participants/:pid", rs.CancelParticipant)
	r.PATCH("participants/:pid", rs.AdvanceParticipant)
}

func (rs *resource) CancelParticipant(c *gin.Context) {
	pid, ok := serdser.UUIDParam(c, "pid")
	if !ok {
		return
	}
	err := rs.ucs.RoutesUseCase().CancelParticipant(c, auth.Caller(c), pid)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type rawAdvanceReq struct {
	Status string `form:"status" binding:"required,oneof=picked_up delivered"`
}

func (rs *resource) AdvanceParticipant(c *gin.Context) {
	pid, ok := serdser.UUIDParam(c, "pid")
	if !ok {
		return
	}
	req := &rawAdvanceReq{}
	if ok := serdser.Bind(c, req, binding.Query); !ok {
		return
	}
	err := rs.ucs.RoutesUseCase().AdvanceParticipant(
		c, auth.Caller(c), pid, model.ParticipantStatus(req.Status),
	)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
