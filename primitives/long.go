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

	"go.uber.org/atomic"
)

// AtomicLong is a cluster-wide atomic counter. Its value lives in the shared
// store; every operation on any node runs against the same single value
// through a pessimistic transaction, so the commit order on the backing key
// defines one total order all callers observe.
//
// An AtomicLong is a handle, not the value: it carries the name, the derived
// store key and a removal flag. Once the handle observes removal, either
// through Close or by finding the backing value missing, it is permanently
// unusable and every operation fails with RemovedError.
type AtomicLong struct {
	registry *Registry
	name     string
	key      string
	removed  atomic.Bool
}

func newAtomicLong(r *Registry, name string) *AtomicLong {
	return &AtomicLong{
		registry: r,
		name:     name,
		key:      longKey(name),
	}
}

// Name returns the counter's cluster-wide name.
func (l *AtomicLong) Name() string {
	return l.name
}

// Key returns the derived store key addressing the counter's value.
func (l *AtomicLong) Key() string {
	return l.key
}

// Removed reports whether the handle observed removal.
func (l *AtomicLong) Removed() bool {
	return l.removed.Load()
}

// Get returns the current value.
func (l *AtomicLong) Get(ctx context.Context) (int64, error) {
	if err := l.checkRemoved(); err != nil {
		return 0, err
	}
	value, err := l.registry.applyLong(ctx, l.name, "get", func(v int64) (int64, bool) {
		return v, false
	})
	return value, l.observe(err)
}

// IncrementAndGet increments the value by one and returns the new value.
func (l *AtomicLong) IncrementAndGet(ctx context.Context) (int64, error) {
	return l.addAndGet(ctx, "incrementAndGet", 1)
}

// GetAndIncrement increments the value by one and returns the previous value.
func (l *AtomicLong) GetAndIncrement(ctx context.Context) (int64, error) {
	return l.getAndAdd(ctx, "getAndIncrement", 1)
}

// DecrementAndGet decrements the value by one and returns the new value.
func (l *AtomicLong) DecrementAndGet(ctx context.Context) (int64, error) {
	return l.addAndGet(ctx, "decrementAndGet", -1)
}

// GetAndDecrement decrements the value by one and returns the previous value.
func (l *AtomicLong) GetAndDecrement(ctx context.Context) (int64, error) {
	return l.getAndAdd(ctx, "getAndDecrement", -1)
}

// AddAndGet adds the given delta to the value and returns the new value.
func (l *AtomicLong) AddAndGet(ctx context.Context, delta int64) (int64, error) {
	return l.addAndGet(ctx, "addAndGet", delta)
}

// GetAndAdd adds the given delta to the value and returns the previous value.
func (l *AtomicLong) GetAndAdd(ctx context.Context, delta int64) (int64, error) {
	return l.getAndAdd(ctx, "getAndAdd", delta)
}

// addAndGet applies the delta and returns the new value, reporting failures
// under the invoked operation's name.
func (l *AtomicLong) addAndGet(ctx context.Context, op string, delta int64) (int64, error) {
	if err := l.checkRemoved(); err != nil {
		return 0, err
	}
	value, err := l.registry.applyLong(ctx, l.name, op, func(v int64) (int64, bool) {
		return v + delta, true
	})
	return value, l.observe(err)
}

// getAndAdd applies the delta and returns the previous value, reporting
// failures under the invoked operation's name.
func (l *AtomicLong) getAndAdd(ctx context.Context, op string, delta int64) (int64, error) {
	if err := l.checkRemoved(); err != nil {
		return 0, err
	}
	var previous int64
	_, err := l.registry.applyLong(ctx, l.name, op, func(v int64) (int64, bool) {
		previous = v
		return v + delta, true
	})
	return previous, l.observe(err)
}

// GetAndSet sets the value and returns the previous value.
func (l *AtomicLong) GetAndSet(ctx context.Context, value int64) (int64, error) {
	if err := l.checkRemoved(); err != nil {
		return 0, err
	}
	var previous int64
	_, err := l.registry.applyLong(ctx, l.name, "getAndSet", func(v int64) (int64, bool) {
		previous = v
		return value, true
	})
	return previous, l.observe(err)
}

// CompareAndSet sets the value to newValue when the current value equals
// expected, and reports whether the swap happened. A failed comparison
// commits without writing, so it has no external side effect.
func (l *AtomicLong) CompareAndSet(ctx context.Context, expected, newValue int64) (bool, error) {
	if err := l.checkRemoved(); err != nil {
		return false, err
	}
	swapped := false
	_, err := l.registry.applyLong(ctx, l.name, "compareAndSet", func(v int64) (int64, bool) {
		if v == expected {
			swapped = true
			return newValue, true
		}
		return v, false
	})
	if err := l.observe(err); err != nil {
		return false, err
	}
	return swapped, nil
}

// Close retires the counter's name cluster-wide and marks the handle removed.
// It is idempotent; closing a handle that already observed removal is a
// no-op. A counter concurrently removed by another node counts as closed.
func (l *AtomicLong) Close(ctx context.Context) error {
	if l.removed.Load() {
		return nil
	}
	if err := l.registry.RemoveLong(ctx, l.name); err != nil && !IsNotFound(err) {
		return err
	}
	l.removed.Store(true)
	return nil
}

// OnInvalid is invoked by the registry when the handle becomes unusable for
// reasons other than removal, such as an unrecoverable store failure. It is
// an extension point for future invalidation policies.
func (l *AtomicLong) OnInvalid(cause error) {
	// No-op.
}

// Token returns the identity pair carried across a serialization boundary in
// place of the counter's value.
func (l *AtomicLong) Token() Token {
	return Token{NodeID: l.registry.nodeID, Name: l.name}
}

// checkRemoved fails fast on a stale handle before any transaction work.
func (l *AtomicLong) checkRemoved() error {
	if l.removed.Load() {
		return &RemovedError{Name: l.name}
	}
	return nil
}

// observe inspects an executor failure. A missing backing value means the
// counter was removed by another node; the handle is marked removed so later
// calls fail locally, and the error surfaces unchanged.
func (l *AtomicLong) observe(err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		l.removed.Store(true)
	}
	return err
}
