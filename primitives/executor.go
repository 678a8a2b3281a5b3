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

	"github.com/atomgrid/atomgrid/store"
)

// execute runs a single read-modify-write cycle against the shared store
// inside a pessimistic repeatable-read transaction scoped to the given key.
// The transform receives the current value and returns the new value together
// with a flag telling whether the new value must be written back; a false
// flag commits the transaction without touching the stored value. Every
// mutating and reading operation of the data structures is routed through
// this single path.
//
// Any failure before the commit aborts the transaction, so the stored value
// is never observed in a half-written state. Failures are logged with the
// operation's identity before being surfaced.
func execute[T any](
	ctx context.Context,
	r *Registry,
	key string,
	name string,
	op string,
	decode func([]byte) (T, error),
	encode func(T) []byte,
	transform func(T) (T, bool),
) (T, error) {
	var zero T

	tx, err := r.store.Begin(ctx, key, store.Pessimistic, store.RepeatableRead)
	if err != nil {
		r.logger.Errorf("failed to %s on data structure=(%s): %v", op, name, err)
		return zero, &TxError{Op: op, Name: name, Err: err}
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	raw, found, err := tx.Get()
	if err != nil {
		r.logger.Errorf("failed to %s on data structure=(%s): %v", op, name, err)
		return zero, &TxError{Op: op, Name: name, Err: err}
	}
	if !found {
		return zero, fmt.Errorf("failed to find data structure with given name=(%s): %w", name, ErrNotFound)
	}

	current, err := decode(raw)
	if err != nil {
		r.logger.Errorf("failed to %s on data structure=(%s): %v", op, name, err)
		return zero, &TxError{Op: op, Name: name, Err: err}
	}

	next, write := transform(current)
	if write {
		if err := tx.Put(encode(next)); err != nil {
			r.logger.Errorf("failed to %s on data structure=(%s): %v", op, name, err)
			return zero, &TxError{Op: op, Name: name, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Errorf("failed to %s on data structure=(%s): %v", op, name, err)
		return zero, &TxError{Op: op, Name: name, Err: err}
	}
	committed = true
	return next, nil
}
