// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scram implements the SCRAM-SHA-256 and SCRAM-SHA-1 password
// hashing of PostgreSQL login roles on top of github.com/xdg-go/scram.
// The produced strings are one-way hashes (PostgreSQL calls them the
// scram encrypted password format, but nothing is decrypted).
package scram

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/xdg-go/scram"
)

// Mechanism is a SCRAM hasher with a fixed underlying hash function.
// It implements the pkg/core/scram.Hasher interface.
type Mechanism struct {
	hashGenerator scram.HashGeneratorFcn
	outLen        int // bytes
	name          string
}

// SHA1 instantiates the SCRAM-SHA-1 mechanism.
func SHA1() *Mechanism {
	return &Mechanism{
		hashGenerator: scram.SHA1,
		outLen:        160 / 8,
		name:          "SCRAM-SHA-1",
	}
}

// SHA256 instantiates the SCRAM-SHA-256 mechanism.
func SHA256() *Mechanism {
	return &Mechanism{
		hashGenerator: scram.SHA256,
		outLen:        256 / 8,
		name:          "SCRAM-SHA-256",
	}
}

// ForMethod returns the mechanism of a database authentication method
// name, as written in a configuration file. An empty name selects the
// scram-sha-256 method.
func ForMethod(name string) (*Mechanism, error) {
	switch name {
	case "", "scram-sha-256":
		return SHA256(), nil
	case "scram-sha-1":
		return SHA1(), nil
	}
	return nil, fmt.Errorf(
		"unsupported database authentication method: %q", name,
	)
}

// Name returns the mechanism name, e.g., SCRAM-SHA-256.
func (m *Mechanism) Name() string {
	return m.name
}

// Hash computes the SCRAM hash string of pass. See the Hasher interface
// of the core layer for the format.
func (m *Mechanism) Hash(pass, salt string, iters int) (string, error) {
	switch {
	case pass == "":
		return "", errors.New("password must be non-empty")
	case iters < 4096:
		return "", fmt.Errorf("iters (%d) is less than 4096", iters)
	}
	if salt == "" {
		b := make([]byte, m.outLen)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("creating random salt: %w", err)
		}
		salt = base64.StdEncoding.EncodeToString(b)
	}
	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("decoding base64 salt: %w", err)
	}
	c, err := m.hashGenerator.NewClient("username", pass, "authzID")
	if err != nil {
		return "", fmt.Errorf("creating SCRAM client: %w", err)
	}
	sc := c.GetStoredCredentials(scram.KeyFactors{
		Salt:  string(saltBytes),
		Iters: iters,
	})
	return fmt.Sprintf(
		"%s$%d:%s$%s:%s",
		m.name,
		iters, salt,
		base64.StdEncoding.EncodeToString(sc.StoredKey),
		base64.StdEncoding.EncodeToString(sc.ServerKey),
	), nil
}
