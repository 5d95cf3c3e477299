// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package routesuc

import (
	"errors"
	"time"

	"github.com/m33pooh/plookaraid/pkg/core/notify"
)

// Option is a functional option for the routes use case.
type Option func(uc *UseCase) error

// WithPublisher option configures the publisher which announces the
// committed route and participant events. By default, events are
// discarded. This option may be passed to the New() function.
func WithPublisher(p notify.Publisher) Option {
	return func(uc *UseCase) error {
		if p == nil {
			return errors.New("publisher is nil")
		}
		if uc.publisher != nil {
			return errors.New("publisher is already configured")
		}
		uc.publisher = p
		return nil
	}
}

// WithClock option replaces the time.Now function which is used for
// the join times, events, and travel date checks.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) error {
		if now == nil {
			return errors.New("clock is nil")
		}
		uc.now = now
		return nil
	}
}
