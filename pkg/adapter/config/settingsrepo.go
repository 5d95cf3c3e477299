// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/m33pooh/plookaraid/pkg/core/cerr"
	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"github.com/m33pooh/plookaraid/pkg/core/usecase/appuc"
)

// SettingsStore keeps the serialized mutable settings. The Load
// returns nil data when nothing is stored yet.
type SettingsStore interface {
	Load(ctx context.Context, c repo.Conn) ([]byte, error)
	Persist(ctx context.Context, tx repo.Tx, data []byte) error
}

// SettingsRepo implements the appuc.SettingsRepo interface by merging
// the json encoded mutable settings of a SettingsStore into clones of
// a base configuration.
type SettingsRepo struct {
	base  *Config
	store SettingsStore
}

// NewSettingsRepo instantiates a settings repository. The base config
// must be validated and is not modified.
func NewSettingsRepo(base *Config, store SettingsStore) *SettingsRepo {
	return &SettingsRepo{base: base, store: store}
}

// Conn returns the connection queryer of the settings.
func (r *SettingsRepo) Conn(c repo.Conn) appuc.SettingsConnQueryer {
	return settingsConnQueryer{SettingsRepo: r, c: c}
}

// Tx returns the transaction queryer of the settings.
func (r *SettingsRepo) Tx(tx repo.Tx) appuc.SettingsTxQueryer {
	return settingsTxQueryer{SettingsRepo: r, tx: tx}
}

type settingsConnQueryer struct {
	*SettingsRepo
	c repo.Conn
}

type settingsTxQueryer struct {
	*SettingsRepo
	tx repo.Tx
}

func (q settingsConnQueryer) Fetch(ctx context.Context) (
	appuc.Builder, *model.VisibleSettings, *model.Settings, *model.Settings, error,
) {
	data, err := q.store.Load(ctx, q.c)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	cc := q.base.Clone()
	if data != nil {
		var s model.Settings
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("decoding settings: %w", err)
		}
		s.ImmutableSettings = nil
		if err := cc.Mutate(s); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("mutating config: %w", err)
		}
	}
	_ = cc.Usecases.verifyRanges(func(err error) {
		log.Warn(ctx, "stored setting is out of range", log.Err("err", err))
	})
	minb, maxb := cc.Bounds()
	return cc, cc.Visible(), minb, maxb, nil
}

func (q settingsTxQueryer) Update(ctx context.Context, s *model.Settings) (
	appuc.Builder, *model.VisibleSettings, *model.Settings, *model.Settings, error,
) {
	cc := q.base.Clone()
	if err := cc.Mutate(*s); err != nil {
		return nil, nil, nil, nil, cerr.BadRequest(err)
	}
	if err := cc.Usecases.verifyRanges(nil); err != nil {
		return nil, nil, nil, nil, cerr.BadRequest(err)
	}
	data, err := json.Marshal(cc.Serializable())
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encoding settings: %w", err)
	}
	if err := q.store.Persist(ctx, q.tx, data); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("persisting settings: %w", err)
	}
	minb, maxb := cc.Bounds()
	return cc, cc.Visible(), minb, maxb, nil
}
