// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"log/slog"

	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin"
)

// Gin contains the gin-gonic related configuration settings.
// The fields are pointers so missing items can be told apart from
// false values; ValidateAndNormalize makes them non-nil.
type Gin struct {
	Logger   *bool // Whether to register the access logging middleware
	Recovery *bool // Whether to register the panic recovery middleware
}

// NewEngine instantiates a gin engine with the middlewares which are
// enabled by g. Both middlewares write to the l structured logger.
func (g Gin) NewEngine(l *slog.Logger) *gin.Engine {
	middlewares := make([]gin.HandlerFunc, 0, 2)
	if *g.Logger {
		middlewares = append(middlewares, gin.Logger(l))
	}
	if *g.Recovery {
		middlewares = append(middlewares, gin.Recovery(l))
	}
	return gin.New(middlewares...)
}
