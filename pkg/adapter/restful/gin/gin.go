// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package gin wraps the gin-gonic engine, so the config package may
// instantiate it with the access logging and recovery middlewares
// without depending on gin directly.
package gin

import (
	"log/slog"

	"github.com/FabienMht/ginslog/logger"
	"github.com/FabienMht/ginslog/recovery"
	"github.com/gin-gonic/gin"
)

type HandlerFunc = gin.HandlerFunc
type Engine = gin.Engine

func New(middlewares ...HandlerFunc) *Engine {
	e := gin.New()
	e.Use(middlewares...)
	return e
}

// Logger writes one access log record per request to l.
func Logger(l *slog.Logger) HandlerFunc {
	return logger.New(l)
}

// Recovery turns panics of the handlers into 500 responses and logs
// them with l.
func Recovery(l *slog.Logger) HandlerFunc {
	return recovery.New(l)
}
