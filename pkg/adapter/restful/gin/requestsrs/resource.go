// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package requestsrs realizes the cargo requests resource, including
// the search of candidate routes for a request.
package requestsrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/auth"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/serdser"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/matchinguc"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/requestsuc"
)

// UseCases provides the currently effective requests and matching
// use cases.
type UseCases interface {
	RequestsUseCase() *requestsuc.UseCase
	MatchingUseCase() *matchinguc.UseCase
}

type resource struct {
	ucs UseCases
}

// Register instantiates a resource adapting the requests and matching
// use cases with the relevant REST APIs including:
//  1. POST request to /api/plook/v1/requests
//     in order to create a cargo request,
//  2. GET and DELETE requests to /api/plook/v1/requests/:qid
//     in order to fetch or cancel a cargo request,
//  3. GET request to /api/plook/v1/requests/:qid/matches
//     in order to search the candidate routes of a request.
func Register(r *gin.RouterGroup, ucs UseCases) {
	rs := &resource{ucs: ucs}
	r.POST("requests", rs.CreateRequest)
	r.GET("requests/:qid", rs.GetRequest)
	r.DELETE("requests/:qid", rs.CancelRequest)
	r.GET("requests/:qid/matches", rs.SearchRoutes)
}

func (rs *resource) CreateRequest(c *gin.Context) {
	req := rs.DserCreateRequestReq(c)
	if req == nil {
		return
	}
	created, err := rs.ucs.RequestsUseCase().Create(c, auth.Caller(c), req)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (rs *resource) GetRequest(c *gin.Context) {
	qid, ok := serdser.UUIDParam(c, "qid")
	if !ok {
		return
	}
	r, err := rs.ucs.RequestsUseCase().Get(c, auth.Caller(c), qid)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (rs *resource) CancelRequest(c *gin.Context) {
	qid, ok := serdser.UUIDParam(c, "qid")
	if !ok {
		return
	}
	if err := rs.ucs.RequestsUseCase().Cancel(c, auth.Caller(c), qid); err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (rs *resource) SearchRoutes(c *gin.Context) {
	qid, ok := serdser.UUIDParam(c, "qid")
	if !ok {
		return
	}
	cs, err := rs.ucs.MatchingUseCase().SearchRequest(c, auth.Caller(c), qid)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, MatchesResp{Candidates: cs})
}

// MatchesResp lists the candidate routes of a request, best first.
type MatchesResp struct {
	Candidates []matchinguc.Candidate `json:"candidates"`
}
