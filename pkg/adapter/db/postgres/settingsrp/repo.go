// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settingsrp stores the serialized mutable settings in the
// single row of the settings table. The serialization format belongs
// to the configuration adapter, so this package only moves bytes.
package settingsrp

import (
	"context"
	"fmt"

	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"gorm.io/gorm/clause"
)

type gSettings struct {
	ID     int16 `gorm:"primaryKey"`
	Config []byte
}

func (gs *gSettings) TableName() string {
	return "settings"
}

// Store is the PostgreSQL store of the mutable settings.
type Store struct {
}

func New() *Store {
	return &Store{}
}

// Load returns the stored settings, or nil if they were never stored.
func (s *Store) Load(ctx context.Context, c repo.Conn) ([]byte, error) {
	var gss []gSettings
	err := c.(*postgres.Conn).GORM(ctx).Where("id = 1").Find(&gss).Error
	if err != nil {
		return nil, fmt.Errorf("selecting settings: %w", err)
	}
	if len(gss) == 0 {
		return nil, nil
	}
	return gss[0].Config, nil
}

// Persist replaces the stored settings by data in the tx transaction.
func (s *Store) Persist(ctx context.Context, tx repo.Tx, data []byte) error {
	gs := gSettings{ID: 1, Config: data}
	err := tx.(*postgres.Tx).GORM(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"config"}),
	}).Create(&gs).Error
	if err != nil {
		return fmt.Errorf("upserting settings: %w", postgres.Classify(err))
	}
	return nil
}
