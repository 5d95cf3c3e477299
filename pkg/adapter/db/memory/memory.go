// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package memory is an in-process database adapter. It implements the
// repo.Pool, repo.Conn, and repo.Tx interfaces and all repositories of
// the core layer over a set of maps, so the use cases can be exercised
// by tests and development servers without a PostgreSQL server.
//
// Each query locks the whole Store, so it is atomic on its own. A Tx
// keeps an undo log and reverts its changes if its handler fails, but
// it does not isolate concurrent transactions; the use cases rely on
// compare-and-swap queries (like a READ-COMMITTED PostgreSQL
// transaction would need) rather than on isolation.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/cerr"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/m33pooh/plookaraid/pkg/core/repo"
)

// Store keeps all entities of one in-memory database.
type Store struct {
	mu sync.Mutex

	routes       map[uuid.UUID]model.Route
	reservations map[uuid.UUID]model.Reservation
	participants map[uuid.UUID]model.Participant
	requests     map[uuid.UUID]model.Request
	vehicles     map[uuid.UUID]model.Vehicle
	settings     []byte

	routeLocks map[uuid.UUID]*sync.Mutex

	now func() time.Time
}

// NewStore instantiates an empty Store. Creation times are taken from
// the now function, or time.Now if it is nil.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		routes:       make(map[uuid.UUID]model.Route),
		reservations: make(map[uuid.UUID]model.Reservation),
		participants: make(map[uuid.UUID]model.Participant),
		requests:     make(map[uuid.UUID]model.Request),
		vehicles:     make(map[uuid.UUID]model.Vehicle),
		routeLocks:   make(map[uuid.UUID]*sync.Mutex),
		now:          now,
	}
}

// Pool is the repo.Pool of a Store. Its connections are unlimited.
type Pool struct {
	s *Store
}

// NewPool wraps the s store as a repo.Pool.
func NewPool(s *Store) *Pool {
	return &Pool{s: s}
}

// Conn passes a fresh connection of the store to the f handler.
func (p *Pool) Conn(ctx context.Context, f repo.ConnHandler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f(ctx, &Conn{s: p.s})
}

// Close does nothing; the store lives as long as it is referenced.
func (p *Pool) Close() error {
	return nil
}

// Conn is a connection to a Store. Queries which run on a Conn are
// applied immediately and cannot be reverted.
type Conn struct {
	s *Store
}

// Tx runs f in a new transaction. If f returns an error or panics,
// all changes of the transaction are reverted in the reverse order.
func (c *Conn) Tx(ctx context.Context, f repo.TxHandler) (err error) {
	tx := &Tx{s: c.s, locked: make(map[uuid.UUID]bool)}
	defer tx.unlockAll()
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			err = fmt.Errorf("panicked: %v", r)
			return
		}
		if err != nil {
			tx.rollback()
			err = fmt.Errorf("handler: %w", err)
		}
	}()
	return f(ctx, tx)
}

// IsConn method prevents a non-Conn object (such as a Tx) to
// mistakenly implement the Conn interface.
func (c *Conn) IsConn() {
}

// Tx is an ongoing transaction of a Store.
type Tx struct {
	s      *Store
	undo   []func()
	unlock []func()
	locked map[uuid.UUID]bool
}

// IsTx method prevents a non-Tx object (such as a Conn) to
// mistakenly implement the Tx interface.
func (tx *Tx) IsTx() {
}

func (tx *Tx) rollback() {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *Tx) unlockAll() {
	for i := len(tx.unlock) - 1; i >= 0; i-- {
		tx.unlock[i]()
	}
	tx.unlock = nil
}

// queryer is embedded by all repositories queryers. Its tx is nil
// when it wraps a connection.
type queryer struct {
	s  *Store
	tx *Tx
}

func connQueryer(c repo.Conn) queryer {
	return queryer{s: c.(*Conn).s}
}

func txQueryer(tx repo.Tx) queryer {
	tt := tx.(*Tx)
	return queryer{s: tt.s, tx: tt}
}

// lock locks the store and returns its unlocking function.
func (q queryer) lock() func() {
	q.s.mu.Lock()
	return q.s.mu.Unlock
}

// onRollback records f to be called (with the store being locked) if
// the ongoing transaction is reverted. It must be called while the
// store is locked.
func (q queryer) onRollback(f func()) {
	if q.tx != nil {
		q.tx.undo = append(q.tx.undo, f)
	}
}

// restore returns an undo function which puts back the old value of
// the id key in m, or deletes it if it had no old value.
func restore[V any](m map[uuid.UUID]V, id uuid.UUID) func() {
	old, existed := m[id]
	return func() {
		if existed {
			m[id] = old
		} else {
			delete(m, id)
		}
	}
}

func notFound(kind string, id uuid.UUID) error {
	return cerr.NotFound(fmt.Errorf(
		"%s %s: %w", kind, id, model.ErrNotFound,
	))
}

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
