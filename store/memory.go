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
	"sync"

	"go.uber.org/atomic"
)

// MemoryStore is an in-memory implementation of Store.
//
// Concurrency:
//   - Pessimistic transactions take a per-key exclusive hold backed by a
//     lazily created one-slot channel, so acquisition honors context
//     cancellation.
//   - Optimistic transactions validate a per-key version number at commit.
//
// Use cases:
//   - Suitable for tests, single-process deployments, or ephemeral runtime
//     state where durability is not required.
//   - Not suitable when persistence across restarts or multi-process sharing
//     is needed.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	versions map[string]uint64
	holds    map[string]chan struct{}
	closed   atomic.Bool
}

var _ Store = (*MemoryStore)(nil) // enforce compilation error

// NewMemoryStore returns a new in-memory Store implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]byte),
		versions: make(map[string]uint64),
		holds:    make(map[string]chan struct{}),
	}
}

// Begin starts a transaction scoped to the given key.
func (m *MemoryStore) Begin(ctx context.Context, key string, mode Mode, isolation Isolation) (Tx, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	tx := &memoryTx{
		store:     m,
		key:       key,
		mode:      mode,
		isolation: isolation,
	}

	if mode == Pessimistic {
		hold := m.holdFor(key)
		select {
		case hold <- struct{}{}:
			tx.hold = hold
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return tx, nil
}

// Close marks the store closed and drops all retained state. In-flight
// transactions finish against the dropped maps; new ones fail with ErrClosed.
func (m *MemoryStore) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.mu.Lock()
	clear(m.data)
	clear(m.versions)
	m.mu.Unlock()
	return nil
}

// holdFor returns the one-slot hold channel for the given key, creating it on
// first use. Hold channels are retained for the lifetime of the store.
func (m *MemoryStore) holdFor(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	hold, ok := m.holds[key]
	if !ok {
		hold = make(chan struct{}, 1)
		m.holds[key] = hold
	}
	return hold
}

// memoryTx is a single-key transaction against a MemoryStore.
type memoryTx struct {
	store     *MemoryStore
	key       string
	mode      Mode
	isolation Isolation
	hold      chan struct{}

	read     bool
	snapshot []byte
	snapOK   bool
	readVer  uint64

	pending []byte
	hasPut  bool
	hasDel  bool
	done    bool
}

var _ Tx = (*memoryTx)(nil)

// Get returns the scoped key's value. The first call under RepeatableRead
// captures the snapshot every later call observes; writes staged by this
// transaction take precedence.
func (t *memoryTx) Get() ([]byte, bool, error) {
	if t.done {
		return nil, false, ErrTxDone
	}
	if t.hasDel {
		return nil, false, nil
	}
	if t.hasPut {
		return cloneBytes(t.pending), true, nil
	}
	if !t.read || t.isolation == ReadCommitted {
		t.store.mu.Lock()
		value, ok := t.store.data[t.key]
		t.snapshot = cloneBytes(value)
		t.snapOK = ok
		if !t.read {
			t.readVer = t.store.versions[t.key]
		}
		t.store.mu.Unlock()
		t.read = true
	}
	if !t.snapOK {
		return nil, false, nil
	}
	return cloneBytes(t.snapshot), true, nil
}

// Put stages the given value for the scoped key.
func (t *memoryTx) Put(value []byte) error {
	if t.done {
		return ErrTxDone
	}
	t.pending = cloneBytes(value)
	t.hasPut = true
	t.hasDel = false
	return nil
}

// Delete stages removal of the scoped key.
func (t *memoryTx) Delete() error {
	if t.done {
		return ErrTxDone
	}
	t.hasDel = true
	t.hasPut = false
	t.pending = nil
	return nil
}

// Commit applies the staged writes. Under Optimistic mode the commit fails
// with ErrConflict when the key's version moved since the first read.
func (t *memoryTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.release()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.mode == Optimistic && t.read && t.store.versions[t.key] != t.readVer {
		return ErrConflict
	}
	switch {
	case t.hasPut:
		t.store.data[t.key] = cloneBytes(t.pending)
		t.store.versions[t.key]++
	case t.hasDel:
		delete(t.store.data, t.key)
		t.store.versions[t.key]++
	}
	return nil
}

// Rollback discards the staged writes and releases the key hold. It is a
// no-op on a finished transaction.
func (t *memoryTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.release()
	return nil
}

func (t *memoryTx) release() {
	if t.hold != nil {
		<-t.hold
		t.hold = nil
	}
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out
}
