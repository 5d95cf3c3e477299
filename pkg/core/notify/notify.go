// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package notify specifies how the use cases announce the route and
// participant events. Delivering the events to end-users is the
// concern of other systems which consume them.
package notify

import (
	"context"

	"github.com/m33pooh/plookaraid/pkg/core/model"
)

// Publisher announces events after their state changes are committed.
// A failed publication never reverts a committed change; use cases log
// it and go on.
type Publisher interface {
	Publish(ctx context.Context, e model.Event) error
}

// Discard is a Publisher which drops all events.
type Discard struct{}

// Publish ignores e.
func (Discard) Publish(context.Context, model.Event) error {
	return nil
}
