// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings

// Default makes (*t) point to a fresh copy of def if it is nil.
func Default[T any](t **T, def T) {
	if *t == nil {
		*t = &def
	}
}

// Copy makes (*dst) point to a fresh copy of (*src), or be nil if src
// is nil, so dst and src may be changed independently.
func Copy[T any](dst **T, src *T) {
	if src == nil {
		*dst = nil
		return
	}
	t := *src
	*dst = &t
}

// Clone returns a fresh copy of (*t), or nil if t is nil.
func Clone[T any](t *T) *T {
	var c *T
	Copy(&c, t)
	return c
}
