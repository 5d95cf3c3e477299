// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"errors"
	"time"

	"github.com/m33pooh/plookaraid/pkg/adapter/cache/redisview"
	"github.com/m33pooh/plookaraid/pkg/adapter/config/settings"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"github.com/redis/go-redis/v9"
)

// Cache contains the settings of the Redis read view of the routes.
// Route searches may be served from that view while it is younger
// than TTL. An empty Addr disables the cache.
type Cache struct {
	Addr     string             `yaml:"addr,omitempty"`
	Password string             `yaml:"password,omitempty"`
	DB       int                `yaml:"db,omitempty"`
	TTL      *settings.Duration `yaml:"ttl,omitempty"`
}

// ValidateAndNormalize fills the default TTL. It takes a pointer
// receiver since it updates c.
func (c *Cache) ValidateAndNormalize() error {
	settings.Default(&c.TTL, settings.Duration(30*time.Second))
	if *c.TTL <= 0 {
		return errors.New("cache ttl must be positive")
	}
	return nil
}

// WrapRoutes returns routes unchanged if the cache is disabled.
// Otherwise, it returns a view which serves the routes listings from
// Redis and a function which closes the Redis client.
func (c Cache) WrapRoutes(routes repo.Routes) (repo.Routes, func() error) {
	if c.Addr == "" {
		return routes, func() error { return nil }
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})
	return redisview.New(rdb, routes, time.Duration(*c.TTL)), rdb.Close
}
