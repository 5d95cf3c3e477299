// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scram_test

import (
	"strings"
	"testing"

	"github.com/m33pooh/plookaraid/pkg/adapter/hash/scram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salt = "W22ZaJ0SNY7soEsUEjb6gQ=="

func TestHashFormat(t *testing.T) {
	m, err := scram.ForMethod("")
	require.NoError(t, err)
	h1, err := m.Hash("pencil", salt, 4096)
	require.NoError(t, err)
	h2, err := m.Hash("pencil", salt, 4096)
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "a fixed salt must give a fixed hash")
	assert.True(t, strings.HasPrefix(h1, "SCRAM-SHA-256$4096:"+salt+"$"))
	keys := strings.Split(strings.SplitN(h1, "$", 3)[2], ":")
	assert.Len(t, keys, 2)

	h3, err := m.Hash("pencil", "", 4096)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3, "random salts must differ")

	sha1, err := scram.ForMethod("scram-sha-1")
	require.NoError(t, err)
	h4, err := sha1.Hash("pencil", salt, 4096)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h4, "SCRAM-SHA-1$"))
}

func TestHashRejectsWeakInputs(t *testing.T) {
	m := scram.SHA256()
	_, err := m.Hash("", salt, 4096)
	assert.Error(t, err)
	_, err = m.Hash("pencil", salt, 1000)
	assert.Error(t, err)
	_, err = m.Hash("pencil", "not base64!", 4096)
	assert.Error(t, err)
	_, err = scram.ForMethod("md5")
	assert.Error(t, err)
}
