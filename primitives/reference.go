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
	"bytes"
	"context"

	"go.uber.org/atomic"
)

// AtomicReference is a cluster-wide atomic value holding an opaque payload.
// It is built on the same transactional path as AtomicLong and gives the same
// linearizability and removal semantics for arbitrary byte values.
type AtomicReference struct {
	registry *Registry
	name     string
	key      string
	removed  atomic.Bool
}

func newAtomicReference(r *Registry, name string) *AtomicReference {
	return &AtomicReference{
		registry: r,
		name:     name,
		key:      refKey(name),
	}
}

// Name returns the reference's cluster-wide name.
func (a *AtomicReference) Name() string {
	return a.name
}

// Key returns the derived store key addressing the reference's value.
func (a *AtomicReference) Key() string {
	return a.key
}

// Removed reports whether the handle observed removal.
func (a *AtomicReference) Removed() bool {
	return a.removed.Load()
}

// Get returns the current value.
func (a *AtomicReference) Get(ctx context.Context) ([]byte, error) {
	if err := a.checkRemoved(); err != nil {
		return nil, err
	}
	value, err := a.registry.applyRef(ctx, a.name, "get", func(v []byte) ([]byte, bool) {
		return v, false
	})
	return value, a.observe(err)
}

// Set unconditionally replaces the value.
func (a *AtomicReference) Set(ctx context.Context, value []byte) error {
	if err := a.checkRemoved(); err != nil {
		return err
	}
	_, err := a.registry.applyRef(ctx, a.name, "set", func([]byte) ([]byte, bool) {
		return value, true
	})
	return a.observe(err)
}

// GetAndSet replaces the value and returns the previous value.
func (a *AtomicReference) GetAndSet(ctx context.Context, value []byte) ([]byte, error) {
	if err := a.checkRemoved(); err != nil {
		return nil, err
	}
	var previous []byte
	_, err := a.registry.applyRef(ctx, a.name, "getAndSet", func(v []byte) ([]byte, bool) {
		previous = v
		return value, true
	})
	return previous, a.observe(err)
}

// CompareAndSet sets the value to newValue when the current value equals
// expected byte-for-byte, and reports whether the swap happened.
func (a *AtomicReference) CompareAndSet(ctx context.Context, expected, newValue []byte) (bool, error) {
	if err := a.checkRemoved(); err != nil {
		return false, err
	}
	swapped := false
	_, err := a.registry.applyRef(ctx, a.name, "compareAndSet", func(v []byte) ([]byte, bool) {
		if bytes.Equal(v, expected) {
			swapped = true
			return newValue, true
		}
		return v, false
	})
	if err := a.observe(err); err != nil {
		return false, err
	}
	return swapped, nil
}

// Close retires the reference's name cluster-wide and marks the handle
// removed. It is idempotent.
func (a *AtomicReference) Close(ctx context.Context) error {
	if a.removed.Load() {
		return nil
	}
	if err := a.registry.RemoveReference(ctx, a.name); err != nil && !IsNotFound(err) {
		return err
	}
	a.removed.Store(true)
	return nil
}

// OnInvalid is an extension point for future invalidation policies.
func (a *AtomicReference) OnInvalid(cause error) {
	// No-op.
}

func (a *AtomicReference) checkRemoved() error {
	if a.removed.Load() {
		return &RemovedError{Name: a.name}
	}
	return nil
}

func (a *AtomicReference) observe(err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		a.removed.Store(true)
	}
	return err
}
