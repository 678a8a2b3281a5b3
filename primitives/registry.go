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

package primitives

import (
	"context"
	"fmt"
	"sync"

	"github.com/atomgrid/atomgrid/internal/syncmap"
	"github.com/atomgrid/atomgrid/log"
	"github.com/atomgrid/atomgrid/store"
)

// Registry is the naming authority for the atomic data structures of one
// node. It creates, locates and retires named data structures against the
// shared store, and keeps the node's live handles so that at most one handle
// state machine exists per name at resolution time.
type Registry struct {
	nodeID string
	store  store.Store
	logger log.Logger

	// bind serializes local handle binding so two racing creators for the
	// same name end up sharing one handle instance.
	bind  sync.Mutex
	longs *syncmap.SyncMap[string, *AtomicLong]
	refs  *syncmap.SyncMap[string, *AtomicReference]
}

func newRegistry(nodeID string, s store.Store, logger log.Logger) *Registry {
	return &Registry{
		nodeID: nodeID,
		store:  s,
		logger: logger,
		longs:  syncmap.New[string, *AtomicLong](),
		refs:   syncmap.New[string, *AtomicReference](),
	}
}

// longKey derives the stable store key addressing a counter's value.
func longKey(name string) string {
	return "long/" + name
}

// refKey derives the stable store key addressing a reference's value.
func refKey(name string) string {
	return "ref/" + name
}

// GetOrCreateLong returns a handle bound to the named counter. When the value
// already exists under the derived key the handle binds to it and the initial
// value is ignored. When it is absent and createIfAbsent is set, the value is
// created transactionally with the initial value; concurrent creators for the
// same name all bind to the single created value. When absent and
// createIfAbsent is not set the call fails with ErrNotFound.
func (r *Registry) GetOrCreateLong(ctx context.Context, name string, initial int64, createIfAbsent bool) (*AtomicLong, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	r.bind.Lock()
	if existing, ok := r.longs.Get(name); ok && !existing.Removed() {
		r.bind.Unlock()
		return existing, nil
	}
	r.bind.Unlock()

	if err := r.ensure(ctx, longKey(name), name, createIfAbsent, encodeInt64(initial)); err != nil {
		return nil, err
	}

	r.bind.Lock()
	defer r.bind.Unlock()
	if existing, ok := r.longs.Get(name); ok && !existing.Removed() {
		return existing, nil
	}
	handle := newAtomicLong(r, name)
	r.longs.Set(name, handle)
	return handle, nil
}

// GetOrCreateReference returns a handle bound to the named reference,
// following the same existence semantics as GetOrCreateLong.
func (r *Registry) GetOrCreateReference(ctx context.Context, name string, initial []byte, createIfAbsent bool) (*AtomicReference, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	r.bind.Lock()
	if existing, ok := r.refs.Get(name); ok && !existing.Removed() {
		r.bind.Unlock()
		return existing, nil
	}
	r.bind.Unlock()

	if err := r.ensure(ctx, refKey(name), name, createIfAbsent, encodeBytes(initial)); err != nil {
		return nil, err
	}

	r.bind.Lock()
	defer r.bind.Unlock()
	if existing, ok := r.refs.Get(name); ok && !existing.Removed() {
		return existing, nil
	}
	handle := newAtomicReference(r, name)
	r.refs.Set(name, handle)
	return handle, nil
}

// ensure verifies the value exists under the given key, creating it with the
// initial payload when allowed. The create runs under a pessimistic
// transaction so the second of two racing creators observes the first one's
// committed value instead of overwriting it.
func (r *Registry) ensure(ctx context.Context, key, name string, createIfAbsent bool, initial []byte) error {
	const op = "getOrCreate"

	tx, err := r.store.Begin(ctx, key, store.Pessimistic, store.RepeatableRead)
	if err != nil {
		r.logger.Errorf("failed to %s on data structure=(%s): %v", op, name, err)
		return &TxError{Op: op, Name: name, Err: err}
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	_, found, err := tx.Get()
	if err != nil {
		r.logger.Errorf("failed to %s on data structure=(%s): %v", op, name, err)
		return &TxError{Op: op, Name: name, Err: err}
	}
	if !found {
		if !createIfAbsent {
			return fmt.Errorf("failed to find data structure with given name=(%s): %w", name, ErrNotFound)
		}
		if err := tx.Put(initial); err != nil {
			r.logger.Errorf("failed to %s on data structure=(%s): %v", op, name, err)
			return &TxError{Op: op, Name: name, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Errorf("failed to %s on data structure=(%s): %v", op, name, err)
		return &TxError{Op: op, Name: name, Err: err}
	}
	committed = true
	return nil
}

// RemoveLong transactionally deletes the named counter from the store and
// marks the node's handle for it removed. Handles held by other nodes observe
// the removal lazily, the next time an operation finds the key missing.
// Removing a counter that does not exist returns ErrNotFound. A remove that
// fails at the store leaves the local handle untouched so the caller can
// retry; the handle is only invalidated once the value is gone.
func (r *Registry) RemoveLong(ctx context.Context, name string) error {
	if name == "" {
		return ErrNameRequired
	}
	err := r.remove(ctx, longKey(name), name)
	if err == nil || IsNotFound(err) {
		r.invalidateLong(name)
	}
	return err
}

// RemoveReference transactionally deletes the named reference from the store
// and marks the node's handle for it removed. Like RemoveLong, a store
// failure leaves the handle untouched for a retry.
func (r *Registry) RemoveReference(ctx context.Context, name string) error {
	if name == "" {
		return ErrNameRequired
	}
	err := r.remove(ctx, refKey(name), name)
	if err == nil || IsNotFound(err) {
		r.invalidateRef(name)
	}
	return err
}

func (r *Registry) remove(ctx context.Context, key, name string) error {
	const op = "remove"

	tx, err := r.store.Begin(ctx, key, store.Pessimistic, store.RepeatableRead)
	if err != nil {
		r.logger.Errorf("failed to %s on data structure=(%s): %v", op, name, err)
		return &TxError{Op: op, Name: name, Err: err}
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	_, found, err := tx.Get()
	if err != nil {
		r.logger.Errorf("failed to %s on data structure=(%s): %v", op, name, err)
		return &TxError{Op: op, Name: name, Err: err}
	}
	if !found {
		return fmt.Errorf("failed to find data structure with given name=(%s): %w", name, ErrNotFound)
	}

	if err := tx.Delete(); err != nil {
		r.logger.Errorf("failed to %s on data structure=(%s): %v", op, name, err)
		return &TxError{Op: op, Name: name, Err: err}
	}
	if err := tx.Commit(); err != nil {
		r.logger.Errorf("failed to %s on data structure=(%s): %v", op, name, err)
		return &TxError{Op: op, Name: name, Err: err}
	}
	committed = true
	return nil
}

// invalidateLong marks the node's handle for the given name removed and
// evicts it so a later GetOrCreateLong binds a fresh handle. The evicted
// handle never resurrects.
func (r *Registry) invalidateLong(name string) {
	r.bind.Lock()
	if handle, ok := r.longs.GetAndDelete(name); ok {
		handle.removed.Store(true)
	}
	r.bind.Unlock()
}

func (r *Registry) invalidateRef(name string) {
	r.bind.Lock()
	if handle, ok := r.refs.GetAndDelete(name); ok {
		handle.removed.Store(true)
	}
	r.bind.Unlock()
}

// applyLong routes a counter operation through the transactional executor.
func (r *Registry) applyLong(ctx context.Context, name, op string, transform func(int64) (int64, bool)) (int64, error) {
	return execute(ctx, r, longKey(name), name, op, decodeInt64, encodeInt64, transform)
}

// applyRef routes a reference operation through the transactional executor.
func (r *Registry) applyRef(ctx context.Context, name, op string, transform func([]byte) ([]byte, bool)) ([]byte, error) {
	return execute(ctx, r, refKey(name), name, op, decodeBytes, encodeBytes, transform)
}
