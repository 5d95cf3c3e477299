// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

// Settings contains those settings which are mutable & invisible,
// that is, write-only settings. It also embeds the VisibleSettings
// struct, so it effectively contains all kinds of settings.
// When fetching settings, the nested ImmutableSettings pointer can be
// set to nil in order to keep the mutable (visible or invisible)
// settings and when reporting settings, the embedded VisibleSettings
// struct can be reported alone (having a non-nil ImmutableSettings
// pointer) in order to exclude the invisible settings.
type Settings struct {
	VisibleSettings

	// Ledger contains the capacity ledger settings which are mutable
	// but are not reported to end-users.
	Ledger LedgerSettings `json:"ledger"`
}

// VisibleSettings contains settings which are visible by end-users.
// These settings may be mutable or immutable. The immutable & visible
// settings are managed by the embedded ImmutableSettings struct.
type VisibleSettings struct {
	// Matching contains the route matching related settings.
	Matching MatchingSettings `json:"matching"`

	*ImmutableSettings
}

// MatchingSettings represents the route matching settings. These
// settings are considered both visible and mutable. Nil fields are
// left to the defaults of the matching use case.
type MatchingSettings struct {
	// DateToleranceDays is the maximum distance (in days) between a
	// request date and the travel date of a candidate route.
	DateToleranceDays *int `json:"date_tolerance_days"`

	// DetourFactor bounds the acceptable detour of a candidate route
	// as a multiple of the direct pickup to dropoff distance.
	DetourFactor *float64 `json:"detour_factor"`
}

// LedgerSettings represents the invisible and mutable settings of the
// capacity ledger.
type LedgerSettings struct {
	// ReserveRetries is the number of compare-and-swap attempts which
	// a reservation may take before giving up with capacity exceeded.
	ReserveRetries *int `json:"reserve_retries"`
}

// ImmutableSettings contains settings which are immutable (and can be
// configured only using the configuration file or environment variables
// alone), but are visible by end-users.
type ImmutableSettings struct {
	// Logger reports if server-side REST API logging is enabled.
	Logger bool `json:"logger"`
}
