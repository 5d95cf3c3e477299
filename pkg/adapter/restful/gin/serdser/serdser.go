// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package serdser contains the serialization and deserialization
// helpers which are shared by the resource packages. Validation errors
// are reported as a map from the field names to their messages and
// other errors as a {"detail": ...} object.
package serdser

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/cerr"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

// Bind deserializes and validates the c request into req using the
// b binding. If it fails, an error response is written and false is
// returned, so the handler should return immediately.
func Bind(c *gin.Context, req any, b binding.Binding) bool {
	switch err := c.ShouldBindWith(req, b).(type) {
	case *validator.InvalidValidationError:
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": err.Error(),
		})
	case validator.ValidationErrors:
		var nameToErrs map[string][]string
		for _, ferr := range err {
			AddErr(&nameToErrs, ferr.Field(), ferr.Error())
		}
		c.JSON(http.StatusBadRequest, nameToErrs)
	default:
		if err == nil {
			return true
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": err.Error(),
		})
	}
	return false
}

// UUIDParam parses the name path parameter. If it is not a UUID, a bad
// request response is written and false is returned.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, map[string][]string{
			name: {"Path param " + name + " is not UUID."},
		})
		return uuid.Nil, false
	}
	return id, true
}

func AddErr(errs *map[string][]string, name string, msgs ...string) {
	if (*errs) == nil {
		*errs = make(map[string][]string)
	}
	if elist, ok := (*errs)[name]; !ok {
		(*errs)[name] = msgs
	} else {
		(*errs)[name] = append(elist, msgs...)
	}
}

func Assert(errs *map[string][]string, ok bool, name string, msgs ...string) bool {
	if ok {
		return true
	}
	AddErr(errs, name, msgs...)
	return false
}

// SerErr writes the err response with the HTTP status code of its
// outermost cerr.Error, or 500 if it was not classified.
func SerErr(c *gin.Context, err error) {
	var ce *cerr.Error
	if errors.As(err, &ce) {
		c.JSON(ce.HTTPStatusCode, gin.H{
			"detail": ce.Err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"detail": err.Error(),
	})
}

// Coordinate is the json representation of a model.Coordinate which
// is validated by the binding.
type Coordinate struct {
	Lat float64 `json:"lat" binding:"latitude"`
	Lon float64 `json:"lon" binding:"longitude"`
}

// ToModel converts sc to a model.Coordinate.
func (sc Coordinate) ToModel() model.Coordinate {
	return model.Coordinate{Lat: sc.Lat, Lon: sc.Lon}
}

// DateLayout is the format of the travel and requested dates.
const DateLayout = "2006-01-02"

// ParseDate parses a DateLayout formatted string as a UTC day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
