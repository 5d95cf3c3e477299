// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package matchinguc

import (
	"errors"
	"fmt"
	"time"
)

// Option is a functional option for the matching use case.
type Option func(uc *UseCase) error

// WithDateTolerance option configures the maximum number of days
// between the requested date of a cargo request and the travel date
// of its candidate routes. This option may be passed to the New()
// function.
func WithDateTolerance(days int) Option {
	return func(uc *UseCase) error {
		if days < 0 {
			return fmt.Errorf("date tolerance (%d) is negative", days)
		}
		if uc.tolerance != nil {
			return errors.New("date tolerance is already configured")
		}
		uc.tolerance = &days
		return nil
	}
}

// WithDetourFactor option configures the acceptable detour of a
// candidate route, as a multiple of the direct distance between the
// pickup and dropoff locations. This option may be passed to the New()
// function.
func WithDetourFactor(f float64) Option {
	return func(uc *UseCase) error {
		if f < 0 {
			return fmt.Errorf("detour factor (%v) is negative", f)
		}
		if uc.factor != nil {
			return errors.New("detour factor is already configured")
		}
		uc.factor = &f
		return nil
	}
}

// WithClock option replaces the time.Now function which is used to
// skip the routes with a past travel date.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) error {
		if now == nil {
			return errors.New("clock is nil")
		}
		uc.now = now
		return nil
	}
}
