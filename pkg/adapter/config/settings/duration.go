// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settings provides the generic helpers which are used by the
// configuration structs, so each setting may be left uninitialized,
// be filled by its default value, be cloned, or be checked against its
// minimum and maximum boundary values.
package settings

import (
	"log/slog"
	"strings"
	"time"
)

// Duration is a time.Duration which can be written as a YAML or json
// string like 90s or 1h30m.
type Duration time.Duration

// UnmarshalText parses data with time.ParseDuration. The d receiver is
// only updated if data could be parsed.
func (d *Duration) UnmarshalText(data []byte) error {
	dd, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}
	*d = Duration(dd)
	return nil
}

// MarshalText writes d in the time.Duration format, dropping the zero
// trailing units (e.g., 2h instead of 2h0m0s).
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Duration) String() string {
	s := time.Duration(d).String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}

// LogValue implements slog.LogValuer.
func (d *Duration) LogValue() slog.Value {
	if d == nil {
		return slog.StringValue("nil-duration")
	}
	return slog.DurationValue(time.Duration(*d))
}
