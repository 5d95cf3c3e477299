// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package schemauc_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/m33pooh/plookaraid/pkg/adapter/db/memory"
	"github.com/m33pooh/plookaraid/pkg/adapter/hash/scram"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	cscram "github.com/m33pooh/plookaraid/pkg/core/scram"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/schemauc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errGrant = errors.New("grant refused")

type fakeSettings struct {
	calls     []string
	finalized bool
	failGrant bool
}

func (s *fakeSettings) ConnectionPool(
	_ context.Context, r repo.Role,
) (schemauc.Pool, error) {
	s.calls = append(s.calls, "connect "+string(r))
	return memory.NewPool(memory.NewStore(nil)), nil
}

func (s *fakeSettings) NewSchemaRepo() repo.Schema {
	return fakeSchema{s: s}
}

func (s *fakeSettings) Hasher() cscram.Hasher {
	return scram.SHA256()
}

func (s *fakeSettings) RenewPasswords(
	ctx context.Context,
	change func(context.Context, []repo.Role, []string) error,
	roles ...repo.Role,
) (func() error, error) {
	passes := make([]string, len(roles))
	for i, r := range roles {
		passes[i] = "pass-of-" + string(r)
	}
	if err := change(ctx, roles, passes); err != nil {
		return nil, err
	}
	return func() error {
		s.finalized = true
		return nil
	}, nil
}

type fakeSchema struct {
	s *fakeSettings
}

func (fs fakeSchema) Tx(repo.Tx) repo.SchemaQueryer {
	return fs
}

func (fs fakeSchema) CreateTables(context.Context) error {
	fs.s.calls = append(fs.s.calls, "tables")
	return nil
}

func (fs fakeSchema) CreateRole(
	_ context.Context, r repo.Role, hashedPass string,
) error {
	if !strings.HasPrefix(hashedPass, "SCRAM-SHA-256$15000:") {
		return fmt.Errorf("unexpected hash: %q", hashedPass)
	}
	fs.s.calls = append(fs.s.calls, "role "+string(r))
	return nil
}

func (fs fakeSchema) GrantPrivileges(_ context.Context, r repo.Role) error {
	if fs.s.failGrant {
		return errGrant
	}
	fs.s.calls = append(fs.s.calls, "grant "+string(r))
	return nil
}

func TestInitDB(t *testing.T) {
	s := &fakeSettings{}
	uc := schemauc.New(s)
	require.NoError(t, uc.InitDB(context.Background()))
	assert.Equal(t, []string{
		"connect admin",
		"tables",
		"role admin",
		"role plook",
		"grant plook",
	}, s.calls)
	assert.True(t, s.finalized, "passwords file must be replaced")
}

func TestInitDBKeepsOldPasswordsOnFailure(t *testing.T) {
	s := &fakeSettings{failGrant: true}
	uc := schemauc.New(s)
	err := uc.InitDB(context.Background())
	require.ErrorIs(t, err, errGrant)
	assert.False(t, s.finalized, "failed init must not finalize")
}
