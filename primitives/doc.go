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

// Package primitives provides cluster-wide atomic data structures whose state
// lives in a shared transactional key-value store while their API looks like
// a single in-process atomic variable to every caller on every node.
//
// A Node owns a Registry, the naming authority that creates, locates and
// retires named data structures. Handles obtained from the registry route
// every operation through a pessimistic repeatable-read transaction on the
// backing key, which makes compare-and-swap and the increment family
// linearizable across machines. Handles crossing a process boundary travel as
// a Token and rebind to the same cluster-wide value on arrival.
//
// For per-process bookkeeping that needs no cross-node consistency,
// LocalCounters offers a lock-free counter table that never touches the
// store.
package primitives
