// MIT License
//
// Copyright (c) 2025-2026 AtomGrid Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package store defines the transactional key-value contract the atomic data
// structures are built upon, together with a set of backing implementations.
package store

import (
	"context"
	"errors"
)

// Mode specifies the concurrency control a transaction runs under.
type Mode int

const (
	// Pessimistic acquires an exclusive hold on the scoped key for the
	// duration of the transaction. Concurrent transactions on the same key
	// block behind it, on any node sharing the store.
	Pessimistic Mode = iota
	// Optimistic defers conflict detection to commit time. The commit fails
	// with ErrConflict when the scoped key changed since it was first read.
	Optimistic
)

// Isolation specifies the read isolation of a transaction.
type Isolation int

const (
	// RepeatableRead guarantees that every read of the scoped key within the
	// transaction observes the same value.
	RepeatableRead Isolation = iota
	// ReadCommitted allows reads to observe the latest committed value.
	ReadCommitted
)

var (
	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("store is closed")
	// ErrTxDone is returned when a completed transaction is used again.
	ErrTxDone = errors.New("transaction has already been committed or rolled back")
	// ErrConflict is returned by Commit when the scoped key was concurrently
	// modified under optimistic concurrency control.
	ErrConflict = errors.New("transaction conflict")
)

// Tx is a transaction scoped to a single key. A Tx must be finished with
// exactly one call to Commit or Rollback; Rollback after a failed Commit is a
// safe no-op. Dropping a Tx without committing leaves the stored value
// untouched once Rollback runs, which callers are expected to arrange with a
// deferred Rollback.
type Tx interface {
	// Get returns the current value of the scoped key. The boolean reports
	// whether the key exists. Under RepeatableRead, repeated calls return the
	// same snapshot; a value written by Put in this transaction is visible.
	Get() ([]byte, bool, error)
	// Put stages the given value for the scoped key. It becomes visible to
	// other transactions only after Commit.
	Put(value []byte) error
	// Delete stages removal of the scoped key.
	Delete() error
	// Commit atomically applies the staged writes and releases any hold on
	// the key. A commit with no staged writes is valid and releases the hold.
	Commit() error
	// Rollback discards the staged writes and releases any hold on the key.
	// It is a no-op on a finished transaction.
	Rollback() error
}

// Store is a transactional key-value store. Implementations must guarantee
// that values are only ever observed in a state produced by a committed
// transaction.
type Store interface {
	// Begin starts a transaction scoped to the given key. Under Pessimistic
	// mode the call blocks until the exclusive hold on the key is acquired or
	// the context is done.
	Begin(ctx context.Context, key string, mode Mode, isolation Isolation) (Tx, error)
	// Close releases the resources held by the store.
	Close() error
}
