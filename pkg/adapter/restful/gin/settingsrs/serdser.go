// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settingsrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/serdser"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

// rawUpdateSettingsReq mirrors the mutable parts of model.Settings.
// Absent fields are kept nil, so the use case leaves them unchanged.
// Bounds which depend on the configuration are checked by appuc.
type rawUpdateSettingsReq struct {
	Matching struct {
		DateToleranceDays *int     `json:"date_tolerance_days" binding:"omitempty,gte=0"`
		DetourFactor      *float64 `json:"detour_factor" binding:"omitempty,gt=0"`
	} `json:"matching"`
	Ledger struct {
		ReserveRetries *int `json:"reserve_retries" binding:"omitempty,gt=0"`
	} `json:"ledger"`

	// Logger is immutable and is only accepted in order to be rejected.
	Logger *bool `json:"logger"`
}

func (rs *resource) DserUpdateSettingsReq(
	c *gin.Context,
) (*model.Settings, bool) {
	req := &rawUpdateSettingsReq{}
	if ok := serdser.Bind(c, req, binding.JSON); !ok {
		return nil, false
	}
	var errs map[string][]string
	serdser.Assert(
		&errs, req.Logger == nil,
		"logger", "Immutable setting cannot be updated.",
	)
	if errs != nil {
		c.JSON(http.StatusBadRequest, errs)
		return nil, false
	}
	s := &model.Settings{}
	s.Matching.DateToleranceDays = req.Matching.DateToleranceDays
	s.Matching.DetourFactor = req.Matching.DetourFactor
	s.Ledger.ReserveRetries = req.Ledger.ReserveRetries
	return s, true
}

// SettingsResp publishes three fields in order to be serialized as
// JSON fields and reported to the frontend as follows:
//  1. The settings field for reporting of visible settings which may
//     be mutable or immutable,
//  2. The min_bounds field for reporting the minimum acceptable value
//     for settings, all settings including the invisible items but
//     excluding those settings which do not have a known lower bound,
//  3. The max_bounds field for reporting the maximum acceptable value
//     for settings, all settings including the invisible items but
//     excluding those settings which do not have a known upper bound.
type SettingsResp struct {
	Settings  *model.VisibleSettings `json:"settings"`
	MinBounds *model.Settings        `json:"min_bounds"`
	MaxBounds *model.Settings        `json:"max_bounds"`
}
