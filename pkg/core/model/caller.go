// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import "github.com/google/uuid"

// Role is the role of an authenticated caller.
type Role string

// Known caller roles. The system role is used by scheduled jobs, such
// as the stale participants sweep.
const (
	RoleDriver  Role = "driver"
	RoleShipper Role = "shipper"
	RoleSystem  Role = "system"
)

// Caller is an already authenticated identity which is passed into
// every use case operation. The use cases only check authorization.
type Caller struct {
	ID   uuid.UUID
	Role Role
}

// SystemCaller is the identity of internal scheduled operations.
var SystemCaller = Caller{Role: RoleSystem}
