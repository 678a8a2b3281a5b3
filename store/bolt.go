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

package store

import (
	"context"
	"os"
	"time"

	bbolt "go.etcd.io/bbolt"
	"go.uber.org/atomic"
)

const (
	boltFileMode   os.FileMode = 0o600
	boltBucketName             = "data_structures"
)

var (
	boltTimeout        = 5 * time.Second
	defaultBoltOptions = &bbolt.Options{Timeout: boltTimeout, NoGrowSync: true}
)

// BoltStore implements Store using go.etcd.io/bbolt for durable persistence.
//
// Concurrency:
//   - bbolt allows a single writable transaction at a time. Every Begin opens
//     a writable transaction, so the database's writer lock doubles as the
//     pessimistic per-key hold. Optimistic mode therefore behaves identically
//     and never reports ErrConflict.
//
// Use cases:
//   - Durable single-node deployments where all processes sharing a data
//     structure run against the same database file.
type BoltStore struct {
	db     *bbolt.DB
	bucket []byte
	path   string
	closed atomic.Bool
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore opens (or creates) a BoltDB-backed Store at the given path.
// The backing bucket is created on first open.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, boltFileMode, defaultBoltOptions)
	if err != nil {
		return nil, err
	}

	bucket := []byte(boltBucketName)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{
		db:     db,
		bucket: bucket,
		path:   path,
	}, nil
}

// Begin starts a transaction scoped to the given key. The call blocks until
// the database writer lock is available; the context only guards entry.
func (b *BoltStore) Begin(ctx context.Context, key string, _ Mode, _ Isolation) (Tx, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx, err := b.db.Begin(true)
	if err != nil {
		return nil, err
	}
	return &boltTx{
		tx:     tx,
		bucket: b.bucket,
		key:    []byte(key),
	}, nil
}

// Path returns the location of the backing database file.
func (b *BoltStore) Path() string {
	return b.path
}

// Close closes the backing database. It is idempotent.
func (b *BoltStore) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}

// boltTx is a single-key transaction backed by a writable bbolt transaction.
type boltTx struct {
	tx     *bbolt.Tx
	bucket []byte
	key    []byte
	done   bool
}

var _ Tx = (*boltTx)(nil)

// Get returns the scoped key's value. bbolt hands out memory that is only
// valid for the transaction's lifetime, so the value is copied out.
func (t *boltTx) Get() ([]byte, bool, error) {
	if t.done {
		return nil, false, ErrTxDone
	}
	value := t.tx.Bucket(t.bucket).Get(t.key)
	if value == nil {
		return nil, false, nil
	}
	return cloneBytes(value), true, nil
}

// Put stages the given value for the scoped key.
func (t *boltTx) Put(value []byte) error {
	if t.done {
		return ErrTxDone
	}
	return t.tx.Bucket(t.bucket).Put(t.key, value)
}

// Delete stages removal of the scoped key.
func (t *boltTx) Delete() error {
	if t.done {
		return ErrTxDone
	}
	return t.tx.Bucket(t.bucket).Delete(t.key)
}

// Commit applies the staged writes and releases the writer lock.
func (t *boltTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	return t.tx.Commit()
}

// Rollback discards the staged writes and releases the writer lock. It is a
// no-op on a finished transaction.
func (t *boltTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}
