// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routes contains all resource packages and facilitates
// instantiation and registration of all use case and resource packages
// based on the user provided configuration settings.
package routes

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/m33pooh/plookaraid/pkg/adapter/config"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/auth"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/participantsrs"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/requestsrs"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/routesrs"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/settingsrs"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/vehiclesrs"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/appuc"
)

// Prefix is the path prefix of all REST APIs.
const Prefix = "/api/plook/v1"

// Register instantiates the application use case based on the c
// configuration settings and the b backend, reloads it so the mutable
// settings of the database take effect, and registers the resources
// on the e engine. The v verifier authenticates every request.
// Resources fetch the use case objects from the returned application
// use case per request, so a settings update replaces them atomically.
func Register(
	ctx context.Context,
	e *gin.Engine,
	c *config.Config,
	b *config.Backend,
	v *auth.Verifier,
) (*appuc.UseCase, error) {
	settingsRepo := config.NewSettingsRepo(c, b.Settings)
	app, err := c.NewAppUseCase(b.Pool, settingsRepo, b.Adapters)
	if err != nil {
		return nil, fmt.Errorf("creating application use case: %w", err)
	}
	if err = app.Reload(ctx); err != nil {
		return nil, fmt.Errorf("reloading use cases based on DB: %w", err)
	}
	r := e.Group(Prefix, v.Middleware())
	settingsrs.Register(r, app)
	routesrs.Register(r, app)
	participantsrs.Register(r, app)
	requestsrs.Register(r, app)
	vehiclesrs.Register(r, app)
	return app, nil
}
