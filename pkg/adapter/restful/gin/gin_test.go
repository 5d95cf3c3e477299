// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gin_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/adapter/config"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/auth"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/routes"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/stretchr/testify/suite"
)

const (
	secret = "0123456789abcdef0123456789abcdef"
	cfgYML = `
database:
  driver: memory
auth:
  secret: ` + secret + `
usecases:
  matching:
    detour-factor: 1.5
    detour-factor-minimum: 1
    detour-factor-maximum: 3
`
)

var (
	bangkok    = map[string]float64{"lat": 13.7563, "lon": 100.5018}
	chiangMai  = map[string]float64{"lat": 18.7883, "lon": 98.9853}
	travelDate = time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02")
)

type GinTestSuite struct {
	suite.Suite

	Ctx     context.Context
	Backend *config.Backend
	Gin     *gin.Engine

	Driver, Shipper, Shipper2, System string // bearer tokens
}

func TestGinTestSuite(t *testing.T) {
	suite.Run(t, &GinTestSuite{Ctx: context.Background()})
}

func (gts *GinTestSuite) SetupTest() {
	c, err := config.Parse([]byte(cfgYML), func(string) (string, bool) {
		return "", false
	})
	gts.Require().NoError(err, "cannot parse config")
	gts.Backend, err = c.OpenBackend(gts.Ctx)
	gts.Require().NoError(err, "cannot open memory backend")
	v, err := c.Auth.NewVerifier()
	gts.Require().NoError(err)

	l := slog.New(slog.NewJSONHandler(io.Discard, nil))
	gts.Gin = c.Gin.NewEngine(l)
	gts.Require().NotNil(gts.Gin, "cannot instantiate Gin engine")
	_, err = routes.Register(gts.Ctx, gts.Gin, c, gts.Backend, v)
	gts.Require().NoError(err, "failed to register Gin routes")

	gts.Driver = gts.token(model.RoleDriver)
	gts.Shipper = gts.token(model.RoleShipper)
	gts.Shipper2 = gts.token(model.RoleShipper)
	gts.System = gts.token(model.RoleSystem)
}

func (gts *GinTestSuite) TearDownTest() {
	gts.NoError(gts.Backend.Close())
}

func (gts *GinTestSuite) token(role model.Role) string {
	caller := model.Caller{ID: uuid.New(), Role: role}
	tok, err := auth.NewToken([]byte(secret), "", caller, time.Hour)
	gts.Require().NoError(err)
	return tok
}

// call sends a json request and decodes the json response into res
// (if res is not nil and the response has a body).
func (gts *GinTestSuite) call(
	token, method, path string, body, res any,
) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		gts.Require().NoError(err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, routes.Prefix+path, r)
	gts.Require().NoError(err, "cannot create request")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	gts.Gin.ServeHTTP(w, req)
	if res != nil && w.Body.Len() > 0 {
		gts.Require().NoError(
			json.Unmarshal(w.Body.Bytes(), res), "body is not json",
		)
	}
	return w
}

func (gts *GinTestSuite) createRoute(capacity int64) *model.Route {
	r := &model.Route{}
	w := gts.call(gts.Driver, http.MethodPost, "/routes", map[string]any{
		"vehicle_type": "lorry",
		"travel_date":  travelDate,
		"start":        bangkok,
		"end":          chiangMai,
		"capacity":     capacity,
		"price_per_km": 20,
	}, r)
	gts.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return r
}

type detailResp struct {
	Detail string `json:"detail"`
}

func (gts *GinTestSuite) TestShipmentLifecycle() {
	v := &model.Vehicle{}
	w := gts.call(gts.Driver, http.MethodPost, "/vehicles", map[string]any{
		"type":         "lorry",
		"capacity":     2000,
		"price_per_km": 25,
		"available":    true,
		"home":         bangkok,
	}, v)
	gts.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	route := &model.Route{}
	w = gts.call(gts.Driver, http.MethodPost, "/routes", map[string]any{
		"vehicle_id":  v.ID,
		"travel_date": travelDate,
		"start":       bangkok,
		"end":         chiangMai,
		"capacity":    1000,
	}, route)
	gts.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	gts.Equal(model.VehicleTypeLorry, route.VehicleType, "taken from vehicle")
	gts.Equal(model.Money(25), route.PricePerKm, "taken from vehicle")
	gts.Equal(model.RouteOpen, route.Status)

	req := &model.Request{}
	w = gts.call(gts.Shipper, http.MethodPost, "/requests", map[string]any{
		"cargo_type":     "durian",
		"weight":         300,
		"pickup":         bangkok,
		"dropoff":        chiangMai,
		"requested_date": travelDate,
		"shareable":      true,
	}, req)
	gts.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	gts.Equal(model.RequestOpen, req.Status)

	matches := &struct {
		Candidates []struct {
			Route     model.Route  `json:"route"`
			Remaining model.Weight `json:"remaining"`
		} `json:"candidates"`
	}{}
	w = gts.call(gts.Shipper, http.MethodGet, "/requests/"+req.ID.String()+"/matches", nil, matches)
	gts.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	gts.Require().Len(matches.Candidates, 1)
	gts.Equal(route.ID, matches.Candidates[0].Route.ID)
	gts.Equal(model.Weight(1000), matches.Candidates[0].Remaining)

	quote := &struct {
		Price model.Money `json:"price"`
	}{}
	w = gts.call(gts.Shipper, http.MethodGet, "/routes/"+route.ID.String()+"/quote?weight=300", nil, quote)
	gts.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	gts.Positive(quote.Price)

	p := &model.Participant{}
	path := "/routes/" + route.ID.String() + "/participants"
	w = gts.call(gts.Shipper, http.MethodPost, path, map[string]any{
		"request_id": req.ID,
	}, p)
	gts.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	gts.Equal(model.Weight(300), p.Weight, "taken from request")
	gts.Equal(model.ParticipantConfirmed, p.Status)
	gts.Equal(quote.Price, p.Share, "sole rider pays the quote")

	res := &detailResp{}
	w = gts.call(gts.Shipper2, http.MethodPost, path, map[string]any{
		"weight": 800,
	}, res)
	gts.Equal(http.StatusConflict, w.Code)
	gts.Contains(res.Detail, model.ErrCapacityExceeded.Error())

	w = gts.call(gts.Shipper2, http.MethodPost, path, map[string]any{
		"weight": 700,
	}, nil)
	gts.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	details := &struct {
		Route        model.Route          `json:"route"`
		Participants []*model.Participant `json:"participants"`
		TotalCost    model.Money          `json:"total_cost"`
	}{}
	w = gts.call(gts.Driver, http.MethodGet, "/routes/"+route.ID.String(), nil, details)
	gts.Require().Equal(http.StatusOK, w.Code)
	gts.Equal(model.RouteFull, details.Route.Status)
	gts.Equal(model.Weight(1000), details.Route.Committed)
	gts.Require().Len(details.Participants, 2)
	gts.Equal(
		details.TotalCost,
		details.Participants[0].Share+details.Participants[1].Share,
	)
	w = gts.call(gts.Shipper, http.MethodGet, "/routes/"+route.ID.String(), nil, details)
	gts.Require().Equal(http.StatusOK, w.Code)
	gts.Len(details.Participants, 1, "shippers only see their own")

	w = gts.call(gts.Shipper, http.MethodGet, "/requests/"+req.ID.String(), nil, req)
	gts.Require().Equal(http.StatusOK, w.Code)
	gts.Equal(model.RequestMatched, req.Status)

	rpath := "/routes/" + route.ID.String()
	w = gts.call(gts.Shipper, http.MethodPatch, rpath+"?op=start", nil, nil)
	gts.Equal(http.StatusForbidden, w.Code, "only the driver starts")
	w = gts.call(gts.Driver, http.MethodPatch, rpath+"?op=start", nil, route)
	gts.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	gts.Equal(model.RouteInProgress, route.Status)

	ppath := "/participants/" + p.ID.String()
	w = gts.call(gts.Driver, http.MethodPatch, ppath+"?status=delivered", nil, nil)
	gts.Equal(http.StatusConflict, w.Code, "not picked up yet")
	w = gts.call(gts.Driver, http.MethodPatch, ppath+"?status=picked_up", nil, nil)
	gts.Require().Equal(http.StatusNoContent, w.Code, w.Body.String())
	w = gts.call(gts.Shipper, http.MethodDelete, ppath, nil, nil)
	gts.Equal(http.StatusForbidden, w.Code, "cargo is on board")

	w = gts.call(gts.Driver, http.MethodPatch, rpath+"?op=close", nil, route)
	gts.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	gts.Equal(model.RouteInProgress, route.Status)
	gts.True(route.ClosedOut)

	w = gts.call(gts.Driver, http.MethodGet, rpath, nil, details)
	gts.Require().Equal(http.StatusOK, w.Code)
	for _, pp := range details.Participants {
		if pp.ID == p.ID {
			continue
		}
		w = gts.call(gts.Driver, http.MethodPatch, "/participants/"+pp.ID.String()+"?status=picked_up", nil, nil)
		gts.Require().Equal(http.StatusNoContent, w.Code, w.Body.String())
		w = gts.call(gts.Driver, http.MethodPatch, "/participants/"+pp.ID.String()+"?status=delivered", nil, nil)
		gts.Require().Equal(http.StatusNoContent, w.Code, w.Body.String())
	}
	w = gts.call(gts.Driver, http.MethodPatch, ppath+"?status=delivered", nil, nil)
	gts.Require().Equal(http.StatusNoContent, w.Code, w.Body.String())

	w = gts.call(gts.Driver, http.MethodGet, rpath, nil, details)
	gts.Require().Equal(http.StatusOK, w.Code)
	gts.Equal(model.RouteCompleted, details.Route.Status, "last delivery completes")
	gts.Equal(model.Weight(0), details.Route.Committed)

	w = gts.call(gts.Shipper, http.MethodGet, "/requests/"+req.ID.String(), nil, req)
	gts.Require().Equal(http.StatusOK, w.Code)
	gts.Equal(model.RequestCompleted, req.Status)
}

func (gts *GinTestSuite) TestCancelRouteReleasesParticipants() {
	route := gts.createRoute(500)
	path := "/routes/" + route.ID.String()
	p := &model.Participant{}
	w := gts.call(gts.Shipper, http.MethodPost, path+"/participants", map[string]any{
		"weight": 200,
	}, p)
	gts.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = gts.call(gts.Driver, http.MethodPatch, path+"?op=cancel", nil, route)
	gts.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	gts.Equal(model.RouteCancelled, route.Status)
	gts.Equal(model.Weight(0), route.Committed)

	res := &detailResp{}
	w = gts.call(gts.Shipper2, http.MethodPost, path+"/participants", map[string]any{
		"weight": 100,
	}, res)
	gts.Equal(http.StatusConflict, w.Code)
	gts.Contains(res.Detail, model.ErrRouteNotOpen.Error())

	w = gts.call(gts.Shipper, http.MethodDelete, "/participants/"+p.ID.String(), nil, nil)
	gts.Equal(http.StatusConflict, w.Code, "already cancelled")
}

func (gts *GinTestSuite) TestUnauthorized() {
	w := gts.call("", http.MethodGet, "/vehicles", nil, nil)
	gts.Equal(http.StatusUnauthorized, w.Code)

	w = gts.call(gts.Shipper, http.MethodPost, "/routes", map[string]any{
		"vehicle_type": "lorry",
		"travel_date":  travelDate,
		"start":        bangkok,
		"end":          chiangMai,
		"capacity":     100,
	}, nil)
	gts.Equal(http.StatusForbidden, w.Code)

	route := gts.createRoute(100)
	w = gts.call(gts.Driver, http.MethodPost, "/routes/"+route.ID.String()+"/participants", map[string]any{
		"weight": 10,
	}, nil)
	gts.Equal(http.StatusForbidden, w.Code, "drivers may not join their own routes")
}

func (gts *GinTestSuite) TestBadRequest() {
	route := gts.createRoute(100)
	for _, tc := range []struct {
		name, method, path string
		body               any
		field              string
	}{
		{
			name: "invalid route id", method: http.MethodGet,
			path: "/routes/not-a-uuid", field: "rid",
		},
		{
			name: "invalid op", method: http.MethodPatch,
			path: "/routes/" + route.ID.String() + "?op=fly", field: "Op",
		},
		{
			name: "missing weight", method: http.MethodGet,
			path: "/routes/" + route.ID.String() + "/quote", field: "Weight",
		},
		{
			name: "unknown vehicle type", method: http.MethodPost,
			path: "/routes", field: "vehicle_type",
			body: map[string]any{
				"vehicle_type": "rocket",
				"travel_date":  travelDate,
				"capacity":     100,
			},
		},
		{
			name: "bad date", method: http.MethodPost,
			path: "/requests", field: "requested_date",
			body: map[string]any{
				"cargo_type":     "rice",
				"weight":         10,
				"requested_date": "03/04/2025",
			},
		},
		{
			name: "invalid status", method: http.MethodPatch,
			path: "/participants/" + uuid.NewString() + "?status=lost", field: "Status",
		},
	} {
		gts.Run(tc.name, func() {
			res := map[string][]string{}
			w := gts.call(gts.Driver, tc.method, tc.path, tc.body, &res)
			gts.Equal(http.StatusBadRequest, w.Code, w.Body.String())
			gts.NotEmpty(res[tc.field], w.Body.String())
		})
	}

	res := &detailResp{}
	w := gts.call(gts.Driver, http.MethodPost, "/routes", map[string]any{
		"vehicle_type": "lorry",
		"travel_date":  "2001-01-01",
		"start":        bangkok,
		"end":          chiangMai,
		"capacity":     100,
	}, res)
	gts.Equal(http.StatusBadRequest, w.Code)
	gts.Contains(res.Detail, "is over")
}

func (gts *GinTestSuite) TestNotFound() {
	missing := uuid.NewString()
	for _, tc := range []struct {
		name, method, path, token string
	}{
		{"route", http.MethodGet, "/routes/" + missing, gts.Driver},
		{"start", http.MethodPatch, "/routes/" + missing + "?op=start", gts.Driver},
		{"request", http.MethodGet, "/requests/" + missing, gts.Shipper},
		{"participant", http.MethodDelete, "/participants/" + missing, gts.Shipper},
		{"vehicle", http.MethodDelete, "/vehicles/" + missing, gts.Driver},
	} {
		gts.Run(tc.name, func() {
			w := gts.call(tc.token, tc.method, tc.path, nil, nil)
			gts.Equal(http.StatusNotFound, w.Code, w.Body.String())
		})
	}
}

func (gts *GinTestSuite) TestVehicles() {
	v := &model.Vehicle{}
	body := map[string]any{
		"type":     "pickup",
		"capacity": 800,
		"home":     bangkok,
	}
	w := gts.call(gts.Driver, http.MethodPost, "/vehicles", body, v)
	gts.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	body["capacity"] = 900
	w = gts.call(gts.Driver, http.MethodPut, "/vehicles/"+v.ID.String(), body, v)
	gts.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	gts.Equal(model.Weight(900), v.Capacity)

	other := gts.token(model.RoleDriver)
	w = gts.call(other, http.MethodPut, "/vehicles/"+v.ID.String(), body, nil)
	gts.Equal(http.StatusForbidden, w.Code)

	list := &struct {
		Vehicles []*model.Vehicle `json:"vehicles"`
	}{}
	w = gts.call(other, http.MethodGet, "/vehicles", nil, list)
	gts.Require().Equal(http.StatusOK, w.Code)
	gts.Empty(list.Vehicles)
	w = gts.call(gts.Driver, http.MethodGet, "/vehicles", nil, list)
	gts.Require().Equal(http.StatusOK, w.Code)
	gts.Len(list.Vehicles, 1)

	w = gts.call(gts.Driver, http.MethodDelete, "/vehicles/"+v.ID.String(), nil, nil)
	gts.Equal(http.StatusNoContent, w.Code)
	w = gts.call(gts.Driver, http.MethodGet, "/vehicles", nil, list)
	gts.Require().Equal(http.StatusOK, w.Code)
	gts.Empty(list.Vehicles)
}

func (gts *GinTestSuite) TestSettings() {
	type settingsResp struct {
		Settings struct {
			Matching struct {
				DetourFactor *float64 `json:"detour_factor"`
			} `json:"matching"`
			Logger bool `json:"logger"`
		} `json:"settings"`
		MaxBounds struct {
			Matching struct {
				DetourFactor *float64 `json:"detour_factor"`
			} `json:"matching"`
		} `json:"max_bounds"`
	}
	res := &settingsResp{}
	w := gts.call(gts.Shipper, http.MethodGet, "/settings", nil, res)
	gts.Require().Equal(http.StatusOK, w.Code)
	gts.Require().NotNil(res.Settings.Matching.DetourFactor)
	gts.Equal(1.5, *res.Settings.Matching.DetourFactor)
	gts.Equal(3.0, *res.MaxBounds.Matching.DetourFactor)
	gts.True(res.Settings.Logger)

	body := map[string]any{"matching": map[string]any{"detour_factor": 2.5}}
	w = gts.call(gts.Shipper, http.MethodPut, "/settings", body, nil)
	gts.Equal(http.StatusForbidden, w.Code)

	w = gts.call(gts.System, http.MethodPut, "/settings", body, res)
	gts.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	gts.Equal(2.5, *res.Settings.Matching.DetourFactor)

	body["matching"] = map[string]any{"detour_factor": 7}
	w = gts.call(gts.System, http.MethodPut, "/settings", body, nil)
	gts.Equal(http.StatusBadRequest, w.Code)

	for _, bad := range []map[string]any{
		{"matching": map[string]any{"detour_factor": 0}},
		{"matching": map[string]any{"date_tolerance_days": -1}},
		{"ledger": map[string]any{"reserve_retries": 0}},
	} {
		w = gts.call(gts.System, http.MethodPut, "/settings", bad, nil)
		gts.Equal(http.StatusBadRequest, w.Code, bad)
	}

	errs := map[string][]string{}
	body = map[string]any{"logger": false}
	w = gts.call(gts.System, http.MethodPut, "/settings", body, &errs)
	gts.Equal(http.StatusBadRequest, w.Code)
	gts.Contains(errs, "logger")

	res = &settingsResp{}
	w = gts.call(gts.Driver, http.MethodGet, "/settings", nil, res)
	gts.Require().Equal(http.StatusOK, w.Code)
	gts.Equal(2.5, *res.Settings.Matching.DetourFactor, "kept unchanged")
	gts.True(res.Settings.Logger)
}
