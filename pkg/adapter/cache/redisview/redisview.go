// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package redisview decorates a routes repository, so the route lists
// which are read by the matching engine are cached in Redis for a short
// time. Matching tolerates stale candidates because a join re-checks
// the capacity against the authoritative routes repository.
package redisview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix prefixes all keys which are written by a View.
const KeyPrefix = "plook:routes:"

// View is a read-through cache of the route lists. Only the List query
// of a connection-based queryer is cached; other queries and all of
// the transaction-based queryers delegate to the inner repository.
type View struct {
	rdb    redis.Cmdable
	routes repo.Routes
	ttl    time.Duration
}

// New instantiates a View which caches the List results of routes in
// rdb for ttl.
func New(rdb redis.Cmdable, routes repo.Routes, ttl time.Duration) *View {
	return &View{rdb: rdb, routes: routes, ttl: ttl}
}

// Conn takes a connection and returns a cached routes queryer.
func (v *View) Conn(c repo.Conn) repo.RoutesQueryer {
	return queryer{RoutesQueryer: v.routes.Conn(c), v: v}
}

// Tx takes a transaction and returns the inner routes queryer, so
// writers never see cached rows.
func (v *View) Tx(tx repo.Tx) repo.RoutesQueryer {
	return v.routes.Tx(tx)
}

type queryer struct {
	repo.RoutesQueryer
	v *View
}

// entry keeps the Version which is hidden from the JSON form of a
// model.Route.
type entry struct {
	Route   *model.Route `json:"route"`
	Version int64        `json:"version"`
}

func (q queryer) List(
	ctx context.Context, f model.RouteFilter,
) ([]*model.Route, error) {
	key := Key(f)
	ctx = log.WithAttrs(ctx, slog.String("key", key))
	b, err := q.v.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var es []entry
		uerr := json.Unmarshal(b, &es)
		if uerr == nil {
			rs := make([]*model.Route, len(es))
			for i, e := range es {
				e.Route.Version = e.Version
				rs[i] = e.Route
			}
			return rs, nil
		}
		log.Warn(ctx, "dropping malformed cached routes", log.Err("err", uerr))
	case errors.Is(err, redis.Nil):
		log.Debug(ctx, "routes cache miss")
	default:
		log.Warn(ctx, "reading routes cache", log.Err("err", err))
	}
	rs, err := q.RoutesQueryer.List(ctx, f)
	if err != nil {
		return nil, err
	}
	es := make([]entry, len(rs))
	for i, r := range rs {
		es[i] = entry{Route: r, Version: r.Version}
	}
	if b, err = json.Marshal(es); err != nil {
		return nil, fmt.Errorf("marshaling routes: %w", err)
	}
	if err := q.v.rdb.Set(ctx, key, b, q.v.ttl).Err(); err != nil {
		log.Warn(ctx, "writing routes cache", log.Err("err", err))
	}
	return rs, nil
}

// Key returns the cache key of the f filtered routes list.
func Key(f model.RouteFilter) string {
	var sb strings.Builder
	sb.WriteString(KeyPrefix)
	for i, s := range f.Statuses {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(string(s))
	}
	fmt.Fprintf(&sb, ":%s:%s", dateKey(f.From), dateKey(f.To))
	if f.DriverID != uuid.Nil {
		fmt.Fprintf(&sb, ":%s", f.DriverID)
	} else {
		sb.WriteString(":")
	}
	fmt.Fprintf(&sb, ":%d", f.MinRemain)
	return sb.String()
}

func dateKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
