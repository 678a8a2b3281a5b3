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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/atomgrid/atomgrid/store"
)

func TestAtomicLongArithmetic(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t)

	counter, err := node.Registry().GetOrCreateLong(ctx, "arith", 0, true)
	require.NoError(t, err)
	assert.Equal(t, "arith", counter.Name())

	value, err := counter.IncrementAndGet(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, value)

	value, err = counter.GetAndIncrement(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, value)

	value, err = counter.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, value)

	value, err = counter.AddAndGet(ctx, 40)
	require.NoError(t, err)
	assert.EqualValues(t, 42, value)

	value, err = counter.GetAndAdd(ctx, -2)
	require.NoError(t, err)
	assert.EqualValues(t, 42, value)

	value, err = counter.DecrementAndGet(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 39, value)

	value, err = counter.GetAndDecrement(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 39, value)

	value, err = counter.GetAndSet(ctx, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 38, value)

	value, err = counter.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 100, value)
}

func TestAtomicLongAddAndGetNegativeDelta(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t)

	counter, err := node.Registry().GetOrCreateLong(ctx, "neg", 10, true)
	require.NoError(t, err)

	value, err := counter.AddAndGet(ctx, -25)
	require.NoError(t, err)
	assert.EqualValues(t, -15, value)

	value, err = counter.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, -15, value)
}

func TestAtomicLongCompareAndSet(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t)

	counter, err := node.Registry().GetOrCreateLong(ctx, "cas", 5, true)
	require.NoError(t, err)

	swapped, err := counter.CompareAndSet(ctx, 5, 7)
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = counter.CompareAndSet(ctx, 5, 9)
	require.NoError(t, err)
	assert.False(t, swapped)

	value, err := counter.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 7, value)
}

// The end-to-end lifecycle: create, mutate, compare-and-swap both ways,
// close, then verify the stale handle is rejected with the counter's name.
func TestAtomicLongLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t)

	counter, err := node.Registry().GetOrCreateLong(ctx, "counter", 0, true)
	require.NoError(t, err)

	value, err := counter.IncrementAndGet(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, value)

	value, err = counter.AddAndGet(ctx, 5)
	require.NoError(t, err)
	require.EqualValues(t, 6, value)

	swapped, err := counter.CompareAndSet(ctx, 6, 10)
	require.NoError(t, err)
	require.True(t, swapped)

	swapped, err = counter.CompareAndSet(ctx, 6, 20)
	require.NoError(t, err)
	require.False(t, swapped)

	value, err = counter.Get(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 10, value)

	require.NoError(t, counter.Close(ctx))

	_, err = counter.Get(ctx)
	require.Error(t, err)
	assert.True(t, IsRemoved(err))
	assert.ErrorContains(t, err, "counter")
}

func TestAtomicLongRemovedHandleRejectsEveryOperation(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t)

	counter, err := node.Registry().GetOrCreateLong(ctx, "doomed", 0, true)
	require.NoError(t, err)
	require.NoError(t, counter.Close(ctx))
	require.True(t, counter.Removed())

	_, err = counter.Get(ctx)
	assert.True(t, IsRemoved(err))
	_, err = counter.IncrementAndGet(ctx)
	assert.True(t, IsRemoved(err))
	_, err = counter.GetAndIncrement(ctx)
	assert.True(t, IsRemoved(err))
	_, err = counter.DecrementAndGet(ctx)
	assert.True(t, IsRemoved(err))
	_, err = counter.GetAndDecrement(ctx)
	assert.True(t, IsRemoved(err))
	_, err = counter.AddAndGet(ctx, 1)
	assert.True(t, IsRemoved(err))
	_, err = counter.GetAndAdd(ctx, 1)
	assert.True(t, IsRemoved(err))
	_, err = counter.GetAndSet(ctx, 1)
	assert.True(t, IsRemoved(err))
	_, err = counter.CompareAndSet(ctx, 0, 1)
	assert.True(t, IsRemoved(err))

	// closing again is a no-op
	require.NoError(t, counter.Close(ctx))
}

func TestAtomicLongFailedCloseLeavesHandleUsable(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })
	node := newTestNodeWithStore(t, s)

	counter, err := node.Registry().GetOrCreateLong(ctx, "held", 6, true)
	require.NoError(t, err)

	// a concurrent transaction holds the key, so the close cannot acquire it
	blocker, err := s.Begin(ctx, counter.Key(), store.Pessimistic, store.RepeatableRead)
	require.NoError(t, err)

	closeCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err = counter.Close(closeCtx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTxFailure)

	// the failed close retires nothing: the handle stays live and the value
	// stays in the store
	require.False(t, counter.Removed())
	require.NoError(t, blocker.Rollback())

	value, err := counter.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 6, value)

	// retrying once the key is free succeeds
	require.NoError(t, counter.Close(ctx))
	assert.True(t, counter.Removed())
	_, err = counter.Get(ctx)
	assert.True(t, IsRemoved(err))
}

func TestAtomicLongFailureCarriesInvokedOperation(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	node := newTestNodeWithStore(t, s)

	counter, err := node.Registry().GetOrCreateLong(ctx, "ops", 0, true)
	require.NoError(t, err)

	// closing the store makes every transaction fail; the surfaced error must
	// name the operation the caller invoked, not the shared delegate
	require.NoError(t, s.Close())

	_, err = counter.IncrementAndGet(ctx)
	assert.ErrorContains(t, err, "incrementAndGet")
	_, err = counter.GetAndIncrement(ctx)
	assert.ErrorContains(t, err, "getAndIncrement")
	_, err = counter.DecrementAndGet(ctx)
	assert.ErrorContains(t, err, "decrementAndGet")
	_, err = counter.GetAndDecrement(ctx)
	assert.ErrorContains(t, err, "getAndDecrement")
	assert.False(t, counter.Removed())
}

func TestAtomicLongOldHandleNeverResurrects(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t)

	old, err := node.Registry().GetOrCreateLong(ctx, "phoenix", 0, true)
	require.NoError(t, err)
	require.NoError(t, old.Close(ctx))

	// recreating the name binds a fresh handle; the old one stays dead
	fresh, err := node.Registry().GetOrCreateLong(ctx, "phoenix", 7, true)
	require.NoError(t, err)
	require.NotSame(t, old, fresh)

	value, err := fresh.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 7, value)

	_, err = old.Get(ctx)
	assert.True(t, IsRemoved(err))
}

func TestAtomicLongConcurrentIncrements(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	node := newTestNode(t)

	counter, err := node.Registry().GetOrCreateLong(ctx, "contended", 0, true)
	require.NoError(t, err)

	const writers = 50
	g, gctx := errgroup.WithContext(ctx)
	for n := 0; n < writers; n++ {
		g.Go(func() error {
			_, err := counter.IncrementAndGet(gctx)
			return err
		})
	}
	require.NoError(t, g.Wait())

	value, err := counter.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, writers, value)
}

func TestAtomicLongVisibleAcrossNodes(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t)
	peer := newTestNodeWithStore(t, node.store)

	mine, err := node.Registry().GetOrCreateLong(ctx, "shared", 0, true)
	require.NoError(t, err)
	theirs, err := peer.Registry().GetOrCreateLong(ctx, "shared", 999, true)
	require.NoError(t, err)

	// the second creator binds to the existing value, ignoring its initial
	value, err := theirs.Get(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, value)

	_, err = mine.AddAndGet(ctx, 3)
	require.NoError(t, err)

	value, err = theirs.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, value)
}

func TestAtomicLongRemovalObservedLazilyByPeer(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t)
	peer := newTestNodeWithStore(t, node.store)

	mine, err := node.Registry().GetOrCreateLong(ctx, "vanishing", 0, true)
	require.NoError(t, err)
	theirs, err := peer.Registry().GetOrCreateLong(ctx, "vanishing", 0, true)
	require.NoError(t, err)

	require.NoError(t, mine.Close(ctx))
	require.False(t, theirs.Removed())

	// the peer's next operation finds the key missing, which is removal
	_, err = theirs.IncrementAndGet(ctx)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.True(t, theirs.Removed())

	_, err = theirs.Get(ctx)
	assert.True(t, IsRemoved(err))
}
