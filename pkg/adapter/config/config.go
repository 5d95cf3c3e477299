// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config is an adapter which accepts yaml formatted config
// files from its users and allows the plookweb to instantiate different
// components, from the adapter or use cases layers, using those loaded
// configuration settings.
// The parsed and validated configurations are passed to their ultimate
// components as a series of individual params (for the mandatory items)
// and a series of functional options (for the optional items), so the
// use cases never depend on this package.
//
// Some settings are mutable. They are serialized as json and stored in
// the database, overriding their values from the configuration file,
// so they may be changed at runtime through the settings REST API.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/m33pooh/plookaraid/pkg/adapter/config/settings"
	"gopkg.in/yaml.v3"
)

// Config contains all settings which are required by different parts
// of the project, such as adapters or use cases. It is implemented with
// primitive fields or structs which are defined locally, not models
// from the lower layers, so the configuration file format may be kept
// intact while other layers change freely.
type Config struct {
	Database Database // database connection settings
	Gin      Gin      // Gin-Gonic instantiation settings
	Auth     Auth     // bearer tokens verification settings
	Logging  Logging  // structured logging destination
	Cache    Cache    // optional Redis read view of the routes
	Kafka    Kafka    // optional Kafka publisher of domain events
	Usecases Usecases // configuration settings of the use cases
}

// Load reads the path configuration file, overrides its settings by
// the environment variables (after loading a .env file which may exist
// next to the configuration file), validates, and normalizes them.
//
// Settings which are stored in the database must not be replaced here
// because Load provides the settings which are fixed by each execution.
// They are merged later by the settings repository.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil &&
		!errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %q: %w", envPath, err)
	}
	return Parse(data, os.LookupEnv)
}

// Parse unmarshals the data byte slice as a Config instance, overrides
// its settings by the variables which lookup finds, and validates the
// result. Extra items in the data are ignored and missing items take
// their default values.
func Parse(
	data []byte, lookup func(key string) (string, bool),
) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if err := c.override(lookup); err != nil {
		return nil, fmt.Errorf("overriding by environment: %w", err)
	}
	if err := c.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("validating configs: %w", err)
	}
	return c, nil
}

// override replaces the settings which have a PLOOK_* environment
// variable. Secrets are usually given this way, so they may be kept
// out of the configuration file.
func (c *Config) override(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"PLOOK_DB_DRIVER":  &c.Database.Driver,
		"PLOOK_DB_HOST":    &c.Database.Host,
		"PLOOK_DB_NAME":    &c.Database.Name,
		"PLOOK_DB_PASSDIR": &c.Database.PassDir,
		"PLOOK_JWT_SECRET": &c.Auth.Secret,
		"PLOOK_REDIS_ADDR": &c.Cache.Addr,
		"PLOOK_LOG_FILE":   &c.Logging.File,
		"PLOOK_LOG_LEVEL":  &c.Logging.Level,
	}
	for k, dst := range str {
		if v, ok := lookup(k); ok {
			*dst = v
		}
	}
	if v, ok := lookup("PLOOK_DB_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PLOOK_DB_PORT: %w", err)
		}
		c.Database.Port = port
	}
	if v, ok := lookup("PLOOK_KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}
	return nil
}

// ValidateAndNormalize validates the configuration settings and
// returns an error if they were not acceptable. It can also modify
// settings in order to normalize them or replace some zero values with
// their expected default values (if any).
func (c *Config) ValidateAndNormalize() error {
	settings.Default(&c.Gin.Logger, true)
	settings.Default(&c.Gin.Recovery, true)
	if err := c.Database.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating database settings: %w", err)
	}
	if err := c.Logging.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating logging settings: %w", err)
	}
	if err := c.Cache.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating cache settings: %w", err)
	}
	if err := c.Kafka.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating kafka settings: %w", err)
	}
	if err := c.Usecases.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating use cases settings: %w", err)
	}
	return nil
}

// Clone creates a deep copy of c. Pointers are renewed too, so changes
// in the returned Config instance and c stay independent.
func (c *Config) Clone() *Config {
	cc := *c
	cc.Gin.Logger = settings.Clone(c.Gin.Logger)
	cc.Gin.Recovery = settings.Clone(c.Gin.Recovery)
	cc.Kafka.Brokers = append([]string(nil), c.Kafka.Brokers...)
	cc.Cache.TTL = settings.Clone(c.Cache.TTL)
	cc.Usecases = c.Usecases.Clone()
	return &cc
}
