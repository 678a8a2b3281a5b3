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
	"errors"
	"fmt"
)

var (
	// ErrNameRequired is returned when a data structure name is empty.
	ErrNameRequired = errors.New("data structure name is required")

	// ErrNotFound is returned when the value backing a data structure is
	// missing from the store. A concurrent removal by another node surfaces
	// the same way as a name that never existed.
	ErrNotFound = errors.New("data structure not found")

	// ErrTxFailure is returned when the underlying store could not run or
	// commit a transaction. It is never retried at this level.
	ErrTxFailure = errors.New("transaction failed")

	// ErrRehydration is returned when a token cannot be resolved to a live
	// data structure on the receiving process.
	ErrRehydration = errors.New("failed to rehydrate data structure handle")
)

// RemovedError is returned by every operation invoked on a handle after it
// observed removal. The check is local and synchronous; no store call is made.
type RemovedError struct {
	// Name is the removed data structure's name.
	Name string
}

func (e *RemovedError) Error() string {
	return fmt.Sprintf("atomic data structure was removed: %s", e.Name)
}

// TxError carries a store-level failure together with the identity of the
// failing operation. It matches ErrTxFailure with errors.Is while the
// original cause stays reachable through errors.Unwrap.
type TxError struct {
	// Op is the name of the failing operation.
	Op string
	// Name is the data structure's name.
	Name string
	// Err is the underlying store failure.
	Err error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("failed to %s on data structure %s: %v", e.Op, e.Name, e.Err)
}

func (e *TxError) Unwrap() error {
	return e.Err
}

func (e *TxError) Is(target error) bool {
	return target == ErrTxFailure
}

// RehydrationError carries a token resolution failure together with the name
// that could not be resolved. It matches ErrRehydration with errors.Is.
type RehydrationError struct {
	// Name is the data structure name carried by the token.
	Name string
	// Err is the underlying resolution failure.
	Err error
}

func (e *RehydrationError) Error() string {
	return fmt.Sprintf("failed to rehydrate data structure %s: %v", e.Name, e.Err)
}

func (e *RehydrationError) Unwrap() error {
	return e.Err
}

func (e *RehydrationError) Is(target error) bool {
	return target == ErrRehydration
}

// IsRemoved reports whether the given error tells the caller the handle it
// used is stale.
func IsRemoved(err error) bool {
	var removed *RemovedError
	return errors.As(err, &removed)
}

// IsNotFound reports whether the given error says the backing value is
// missing from the store.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
