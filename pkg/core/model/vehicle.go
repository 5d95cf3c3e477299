// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// VehicleType specifies the vehicle type enum. Although this enum is
// numeric, it is (de)serialized as a string for readability in the
// adapter layer.
type VehicleType int

// Valid values for the VehicleType enum.
const (
	VehicleTypeInvalid VehicleType = iota // zero value is invalid

	VehicleTypePickup
	VehicleTypeLorry
	VehicleTypeTractor
	VehicleTypeRefrigerated
	VehicleTypeFlatbed
)

var vehicleTypeNames = [...]string{
	VehicleTypePickup:       "pickup",
	VehicleTypeLorry:        "lorry",
	VehicleTypeTractor:      "tractor",
	VehicleTypeRefrigerated: "refrigerated",
	VehicleTypeFlatbed:      "flatbed",
}

// ErrUnknownVehicleType indicates that a given string may not be parsed
// as a known vehicle type. The invalid string itself is not included
// because the caller of ParseVehicleType already knows about it.
var ErrUnknownVehicleType = errors.New("unknown vehicle type")

// VehicleTypeError indicates an invalid numeric vehicle type.
type VehicleTypeError int

// Error implements the error interface.
func (e VehicleTypeError) Error() string {
	return fmt.Sprintf("invalid vehicle type: %d", e)
}

// Validate returns nil if VehicleType value is valid. For invalid
// values, an instance of the VehicleTypeError will be returned.
func (vt VehicleType) Validate() error {
	if vt <= VehicleTypeInvalid || vt > VehicleTypeFlatbed {
		return VehicleTypeError(vt)
	}
	return nil
}

// String converts the VehicleType enum to a string. Invalid vehicle
// types cause a panic.
func (vt VehicleType) String() string {
	if err := vt.Validate(); err != nil {
		panic(err)
	}
	return vehicleTypeNames[vt]
}

// MarshalText implements encoding.TextMarshaler, so a VehicleType is
// serialized as its name in JSON documents.
func (vt VehicleType) MarshalText() ([]byte, error) {
	if err := vt.Validate(); err != nil {
		return nil, err
	}
	return []byte(vehicleTypeNames[vt]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (vt *VehicleType) UnmarshalText(b []byte) error {
	v, err := ParseVehicleType(string(b))
	if err != nil {
		return err
	}
	*vt = v
	return nil
}

// ParseVehicleType parses the given string and returns a VehicleType.
// For invalid strings, VehicleTypeInvalid and ErrUnknownVehicleType
// will be returned.
func ParseVehicleType(s string) (VehicleType, error) {
	for vt, name := range vehicleTypeNames {
		if name != "" && name == s {
			return VehicleType(vt), nil
		}
	}
	return VehicleTypeInvalid, ErrUnknownVehicleType
}

// Vehicle is owned by a driver. Only its owner may create, edit, or
// delete it; other users may only read it.
type Vehicle struct {
	ID              uuid.UUID   `json:"id"`
	OwnerID         uuid.UUID   `json:"owner_id"`
	Type            VehicleType `json:"type"`
	Capacity        Weight      `json:"capacity"`
	PricePerKm      Money       `json:"price_per_km"`
	ServiceRadiusKm float64     `json:"service_radius_km"`
	Available       bool        `json:"available"`
	Home            Coordinate  `json:"home"`
}

// Validate checks the attributes of a vehicle which are provided by
// its owner.
func (v *Vehicle) Validate() error {
	if err := v.Type.Validate(); err != nil {
		return err
	}
	switch {
	case v.Capacity <= 0:
		return errors.New("capacity must be positive")
	case v.PricePerKm < 0:
		return errors.New("price per km must not be negative")
	case v.ServiceRadiusKm < 0:
		return errors.New("service radius must not be negative")
	}
	return v.Home.Validate()
}
