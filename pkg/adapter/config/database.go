// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres/schemarp"
	"github.com/m33pooh/plookaraid/pkg/adapter/hash/scram"
	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	scrami "github.com/m33pooh/plookaraid/pkg/core/scram"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/schemauc"
)

// These are the supported values of the Database.Driver setting.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// ErrNoRoles reports that the in-memory database has no login roles,
// so it cannot be initialized by the `db init` command.
var ErrNoRoles = errors.New("the memory driver has no database roles")

// Database contains the database related configuration settings.
type Database struct {
	// Driver is postgres (the default) or memory. The memory driver
	// keeps everything in the process and forgets it on exit, so it
	// is only suitable for development and demos.
	Driver string `yaml:"driver,omitempty"`

	Host    string // domain name or IP address of the DBMS server
	Port    int    // port number of the DBMS server
	Name    string // database name, like plook
	PassDir string `yaml:"pass-dir"` // path of the passwords dir

	// RoleSuffix specifies a possibly empty suffix for the database
	// role names. Normally, repo.AdminRole and repo.NormalRole roles
	// are used. Parallel tests may create non-colliding roles in one
	// database cluster by using distinct suffixes.
	RoleSuffix repo.Role `yaml:"role-suffix,omitempty"`

	// AuthMethod specifies how passwords are hashed and stored in the
	// database: scram-sha-256 (the default) or scram-sha-1.
	AuthMethod string `yaml:"auth-method,omitempty"`

	hasher scrami.Hasher
}

// ValidateAndNormalize fills the default driver and authentication
// method, and instantiates the password hasher. It takes a pointer
// receiver, in contrast to other methods, since it updates d.
func (d *Database) ValidateAndNormalize() error {
	switch d.Driver {
	case "":
		d.Driver = DriverPostgres
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver: %q", d.Driver)
	}
	if d.AuthMethod == "" {
		d.AuthMethod = "scram-sha-256"
	}
	h, err := scram.ForMethod(d.AuthMethod)
	if err != nil {
		return err
	}
	d.hasher = h
	if d.Driver == DriverMemory {
		return nil
	}
	switch {
	case d.Host == "":
		return errors.New("database host is required")
	case d.Port <= 0 || d.Port > 65535:
		return fmt.Errorf("database port %d is out of range", d.Port)
	case d.Name == "":
		return errors.New("database name is required")
	}
	return nil
}

// ConnectionPool creates a database connection pool for the r role.
// Initially, the .pgpass file in the d.PassDir folder is checked
// which should conform with the pgpass format with lines like this:
//
//	host:port:dbname:role:password
//
// If no connection could be established, the passwords might have been
// renewed during an incomplete `db init` command. So the .pgpass.new
// file in the same folder is checked too. If it works, the .pgpass.new
// file is moved over the .pgpass file.
//
// The d.RoleSuffix is appended to the given r role name.
func (d Database) ConnectionPool(
	ctx context.Context, r repo.Role,
) (schemauc.Pool, error) {
	if d.Driver == DriverMemory {
		return nil, ErrNoRoles
	}
	path := filepath.Join(d.PassDir, ".pgpass")
	u, err := d.ConnectionURL(r, path)
	if err != nil {
		return nil, fmt.Errorf("using %q pass-file: %w", path, err)
	}
	p, err := postgres.NewPool(ctx, u)
	if err == nil {
		return p, nil
	}
	newPath := filepath.Join(d.PassDir, ".pgpass.new")
	log.Warn(
		ctx, "trying the renewed passwords file",
		slog.String("path", newPath), log.Err("err", err),
	)
	u, err = d.ConnectionURL(r, newPath)
	if err != nil {
		return nil, fmt.Errorf("using %q pass-file: %w", newPath, err)
	}
	p, err = postgres.NewPool(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("can use neither pass-file: %w", err)
	}
	if err = os.Rename(newPath, path); err != nil {
		p.Close()
		return nil, fmt.Errorf("os.Rename: %w", err)
	}
	return p, nil
}

// ConnectionURL returns the postgresql:// URL of the database for the
// r role, taking its password from the path pgpass file. Empty and
// #-commented lines of that file are ignored.
func (d Database) ConnectionURL(r repo.Role, path string) (string, error) {
	passLines, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading pass-file: %w", err)
	}
	r = r + d.RoleSuffix
	prfx := fmt.Sprintf("%s:%d:%s:%s:", d.Host, d.Port, d.Name, r)
	var pass string
	for _, line := range strings.Split(string(passLines), "\n") {
		if line == "" || line[0] == '#' {
			continue
		}
		if strings.HasPrefix(line, prfx) {
			pass = line[len(prfx):]
			break
		}
	}
	if pass == "" {
		return "", errors.New("no matching password line")
	}
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(string(r), pass),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	return u.String(), nil
}

// NewSchemaRepo instantiates a schema repository which suffixes the
// role names by d.RoleSuffix, like ConnectionPool does.
func (d Database) NewSchemaRepo() repo.Schema {
	return schemarp.New(d.RoleSuffix)
}

// Hasher returns the password hasher of d.AuthMethod. It is nil until
// ValidateAndNormalize is called.
func (d Database) Hasher() scrami.Hasher {
	return d.hasher
}

// RenewPasswords generates new random passwords for roles, writes them
// to the .pgpass.new file in d.PassDir, and calls change so it may
// update them in the database. The returned finalizer moves the new
// file over the .pgpass file, so it must be called after the change
// transaction commits. Since the new file replaces the whole old file,
// roles must list every role which is needed afterwards.
//
// The d.RoleSuffix is appended to the recorded role names, so change
// must append it to the roles too.
func (d Database) RenewPasswords(
	ctx context.Context,
	change func(
		ctx context.Context, roles []repo.Role, passwords []string,
	) error,
	roles ...repo.Role,
) (finalizer func() error, err error) {
	if d.Driver == DriverMemory {
		return nil, ErrNoRoles
	}
	passwords := make([]string, len(roles))
	lines := make([]string, len(roles))
	b := make([]byte, 16) // 128 bits
	prfx := fmt.Sprintf("%s:%d:%s", d.Host, d.Port, d.Name)
	for i, r := range roles {
		if _, err = rand.Read(b); err != nil {
			return nil, fmt.Errorf("rand.Read for i=%d: %w", i, err)
		}
		passwords[i] = base64.RawURLEncoding.EncodeToString(b)
		lines[i] = fmt.Sprintf(
			"%s:%s:%s\n", prfx, r+d.RoleSuffix, passwords[i],
		)
	}
	orgPath := filepath.Join(d.PassDir, ".pgpass")
	newPath := filepath.Join(d.PassDir, ".pgpass.new")
	err = os.WriteFile(newPath, []byte(strings.Join(lines, "")), 0o600)
	if err != nil {
		return nil, fmt.Errorf("writing %q file: %w", newPath, err)
	}
	if err = change(ctx, roles, passwords); err != nil {
		return nil, fmt.Errorf("passwords change callback: %w", err)
	}
	return func() error {
		return os.Rename(newPath, orgPath)
	}, nil
}
