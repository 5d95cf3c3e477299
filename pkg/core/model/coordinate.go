// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import "fmt"

// Coordinate represents a geographical location with a latitude and
// longitude in degrees. Coordinates are resolved by the geocoding
// collaborator before they reach the core layer, so free-text addresses
// are only carried alongside them for display purposes.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate returns an error if `c` is not a valid WGS84 location.
func (c Coordinate) Validate() error {
	switch {
	case c.Lat < -90 || c.Lat > 90:
		return fmt.Errorf("latitude %v is out of [-90, 90]", c.Lat)
	case c.Lon < -180 || c.Lon > 180:
		return fmt.Errorf("longitude %v is out of [-180, 180]", c.Lon)
	}
	return nil
}
