// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ledgeruc

import (
	"errors"
	"fmt"
	"time"
)

// Option is a functional option for the ledger use case.
type Option func(uc *UseCase) error

// WithReserveRetries option configures the number of compare-and-swap
// attempts which one Reserve call may take. When all attempts lose
// their race against other writers of the same route, Reserve fails
// with the capacity exceeded error. This option may be passed to the
// New() function.
func WithReserveRetries(n int) Option {
	return func(uc *UseCase) error {
		if n <= 0 {
			return fmt.Errorf("reserve retries (%d) is not positive", n)
		}
		if uc.retries != 0 {
			return errors.New("reserve retries is already configured")
		}
		uc.retries = n
		return nil
	}
}

// WithClock option replaces the time.Now function which is used to
// reject reservations on routes with a past travel date.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) error {
		if now == nil {
			return errors.New("clock is nil")
		}
		uc.now = now
		return nil
	}
}
