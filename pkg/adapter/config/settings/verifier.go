// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings

import (
	"cmp"
	"fmt"
)

// OutOfRangeError reports that a setting crossed one of its inclusive
// minimum or maximum boundary values.
type OutOfRangeError[T cmp.Ordered] struct {
	Name         string // setting name, e.g., matching.detour-factor
	Value        T      // the rejected value
	Min, Max     *T     // the boundary values, nil for no limit
	InvalidRange bool   // min is greater than max
}

func (e *OutOfRangeError[T]) Error() string {
	if e.InvalidRange {
		return fmt.Sprintf("%s: minimum %v is greater than maximum %v",
			e.Name, *e.Min, *e.Max)
	}
	if e.Min != nil && e.Value < *e.Min {
		return fmt.Sprintf("%s: %v is less than %v", e.Name, e.Value, *e.Min)
	}
	return fmt.Sprintf("%s: %v is greater than %v", e.Name, e.Value, *e.Max)
}

// VerifyRange checks that (*value) is nil or lies in [minb, maxb],
// where a nil boundary means no limit. An out of range value is
// clamped to the crossed boundary and reported as an OutOfRangeError,
// so the caller may decide whether it is fatal or a warning.
func VerifyRange[T cmp.Ordered](
	name string, value **T, minb, maxb *T,
) *OutOfRangeError[T] {
	if minb != nil && maxb != nil && *minb > *maxb {
		return &OutOfRangeError[T]{
			Name: name, Min: minb, Max: maxb, InvalidRange: true,
		}
	}
	if *value == nil {
		return nil
	}
	v := **value
	switch {
	case minb != nil && v < *minb:
		*value = Clone(minb)
	case maxb != nil && v > *maxb:
		*value = Clone(maxb)
	default:
		return nil
	}
	return &OutOfRangeError[T]{Name: name, Value: v, Min: minb, Max: maxb}
}
