// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scram exports the Salted Challenge Response Authentication
// Mechanism (SCRAM) expectations of the use cases layer. Only password
// hashing is needed, so the database initialization can create login
// roles without sending a plaintext password in a DDL statement. The
// implementation lives in the adapters layer.
package scram

// Hasher computes the SCRAM storedKey and serverKey of a password for
// one underlying hash function (e.g., SHA256), as detailed in RFC 5802.
type Hasher interface {
	// Hash returns the hash string of the non-empty pass password in
	// the format which PostgreSQL accepts for a CREATE or ALTER ROLE
	// query:
	//
	//	SCRAM-{SHA-X}${iters}:{b64-salt}${b64-storedKey}:{b64-serverKey}
	//
	// The salt must be base64 encoded or empty, so a random salt is
	// generated. The iters must be at least 4096.
	Hash(pass, salt string, iters int) (string, error)
}
