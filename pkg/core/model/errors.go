// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import "errors"

// These errors classify the failures of the sharing use cases. They are
// usually wrapped by a cerr.Error (which carries an HTTP status code)
// and further wrapped by fmt.Errorf with contextual information, so
// callers should compare them using errors.Is.
var (
	// ErrCapacityExceeded indicates that a route has not enough
	// remaining capacity for the asked weight. It is recoverable; the
	// caller may try a smaller weight or another route.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrRouteNotOpen indicates that a route is full, departed,
	// completed, cancelled, or belongs to a past travel date.
	ErrRouteNotOpen = errors.New("route is not open")

	// ErrInvalidStateTransition indicates that a route or participant
	// is not in a state which permits the asked transition. It mostly
	// reveals a stale client view.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrUnauthorized indicates that the caller has no relationship
	// with the entity which permits the asked operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates that an ID does not resolve to an entity.
	ErrNotFound = errors.New("not found")

	// ErrConcurrencyConflict indicates that an optimistic update lost
	// a race against another writer. It is retried internally and only
	// surfaces when the retry budget of an operation is exhausted.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrInvalidWeight indicates a zero or negative weight.
	ErrInvalidWeight = errors.New("weight must be positive")

	// ErrRequestNotShareable indicates that a cargo request was not
	// marked as shareable, hence, it may not be pooled on a route.
	ErrRequestNotShareable = errors.New("request is not shareable")

	// ErrRequestTaken indicates that a request already has an active
	// participant or is not open anymore.
	ErrRequestTaken = errors.New("request is already matched")
)
