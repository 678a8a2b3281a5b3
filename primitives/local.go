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

import "sync"

// LocalCounters is a process-scoped table of lock-free counters, the cheap
// tier for callers that only need per-process bookkeeping, such as counting
// lifecycle events on this node. Entries are never replicated and carry no
// cross-process guarantee; when cluster-wide consistency is required use an
// AtomicLong instead.
//
// K is the counter key type, arbitrary as long as it is comparable.
type LocalCounters[K comparable] struct {
	counters sync.Map // map[K]int64
}

// NewLocalCounters returns an empty counter table.
func NewLocalCounters[K comparable]() *LocalCounters[K] {
	return &LocalCounters[K]{}
}

// Increment bumps the counter for the given key by one and returns the new
// value, initializing an absent counter to one. Updates go through an
// optimistic compare-and-swap loop: a lost race within this process only
// means a re-read and retry, so the call always makes progress and no update
// is ever lost under concurrent writers on the same key.
func (c *LocalCounters[K]) Increment(key K) int64 {
	for {
		current, ok := c.counters.Load(key)
		if !ok {
			if _, raced := c.counters.LoadOrStore(key, int64(1)); !raced {
				return 1
			}
			// lost the insert race, fall through to the swap loop
			continue
		}
		value := current.(int64)
		if c.counters.CompareAndSwap(key, value, value+1) {
			return value + 1
		}
	}
}

// Get returns the counter's current value. The boolean reports whether the
// counter exists.
func (c *LocalCounters[K]) Get(key K) (int64, bool) {
	current, ok := c.counters.Load(key)
	if !ok {
		return 0, false
	}
	return current.(int64), true
}

// Delete drops the counter for the given key.
func (c *LocalCounters[K]) Delete(key K) {
	c.counters.Delete(key)
}
