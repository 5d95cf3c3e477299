// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"time"
)

// Weight is a cargo mass in whole kilograms. Capacities and
// reservations are integral, so the capacity bookkeeping never
// accumulates floating point drift.
type Weight int64

// Money is an amount in the smallest currency unit (satang).
// Route costs and participant shares are exact integers, so the shares
// of a route can always add up to its total cost.
type Money int64

// Day truncates t to the midnight (UTC) of its calendar day. Travel and
// requested dates are compared as calendar days, ignoring hours.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
