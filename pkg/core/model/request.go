// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the state of a shipper's cargo Request.
type RequestStatus string

// Valid values for the RequestStatus.
const (
	RequestOpen      RequestStatus = "open"
	RequestMatched   RequestStatus = "matched"
	RequestInTransit RequestStatus = "in_transit"
	RequestCompleted RequestStatus = "completed"
	RequestCancelled RequestStatus = "cancelled"
)

// Request is a shipper's need to move cargo. A shareable request may
// become a Participant of some route.
type Request struct {
	ID             uuid.UUID     `json:"id"`
	ShipperID      uuid.UUID     `json:"shipper_id"`
	CargoType      string        `json:"cargo_type"`
	Weight         Weight        `json:"weight"`
	Pickup         Coordinate    `json:"pickup"`
	Dropoff        Coordinate    `json:"dropoff"`
	PickupAddress  string        `json:"pickup_address"`
	DropoffAddress string        `json:"dropoff_address"`
	RequestedDate  time.Time     `json:"requested_date"`
	Shareable      bool          `json:"shareable"`
	Status         RequestStatus `json:"status"`
	OfferedPrice   *Money        `json:"offered_price,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Validate checks the attributes of a request which are provided by
// its shipper.
func (r *Request) Validate() error {
	switch {
	case r.CargoType == "":
		return errors.New("cargo type is required")
	case r.Weight <= 0:
		return ErrInvalidWeight
	case r.OfferedPrice != nil && *r.OfferedPrice < 0:
		return errors.New("offered price must not be negative")
	}
	if err := r.Pickup.Validate(); err != nil {
		return err
	}
	return r.Dropoff.Validate()
}
