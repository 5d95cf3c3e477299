// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"
	"fmt"

	"github.com/m33pooh/plookaraid/pkg/core/repo"
	"gorm.io/gorm"
)

// Conn represents one connection which is acquired from a Pool.
type Conn struct {
	*gorm.DB
}

// Tx begins a READ COMMITTED transaction and passes it to f. The
// transaction is committed if f returns nil, otherwise, it is rolled
// back and the error of f is returned after wrapping. A panic in f is
// recovered and reported as an error after the rollback.
func (c *Conn) Tx(ctx context.Context, f repo.TxHandler) (err error) {
	tx := c.DB.WithContext(ctx).Begin()
	if err = tx.Error; err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			if err2 := tx.Rollback().Error; err2 != nil {
				err = fmt.Errorf("panicked: %v, rollback: %w", r, err2)
				return
			}
			err = fmt.Errorf("panicked: %v", r)
			return
		}
		if err != nil {
			if err2 := tx.Rollback().Error; err2 != nil {
				err = fmt.Errorf("handler: %w, rollback: %w", err, err2)
				return
			}
			err = fmt.Errorf("handler: %w", err)
			return
		}
		if err = tx.Commit().Error; err != nil {
			err = fmt.Errorf("commit: %w", Classify(err))
		}
	}()
	return f(ctx, &Tx{DB: tx})
}

// IsConn method prevents a non-Conn object (such as a Tx) to
// mistakenly implement the Conn interface.
func (c *Conn) IsConn() {
}

// GORM returns a GORM session of this connection for ctx.
func (c *Conn) GORM(ctx context.Context) *gorm.DB {
	return c.DB.WithContext(ctx)
}
