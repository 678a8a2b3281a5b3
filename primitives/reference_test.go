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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicReferenceLifecycle(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t)

	ref, err := node.Registry().GetOrCreateReference(ctx, "leader", []byte("node-a"), true)
	require.NoError(t, err)
	assert.Equal(t, "leader", ref.Name())

	value, err := ref.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("node-a"), value)

	require.NoError(t, ref.Set(ctx, []byte("node-b")))

	previous, err := ref.GetAndSet(ctx, []byte("node-c"))
	require.NoError(t, err)
	assert.Equal(t, []byte("node-b"), previous)

	swapped, err := ref.CompareAndSet(ctx, []byte("node-c"), []byte("node-d"))
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = ref.CompareAndSet(ctx, []byte("node-c"), []byte("node-e"))
	require.NoError(t, err)
	assert.False(t, swapped)

	value, err = ref.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("node-d"), value)

	require.NoError(t, ref.Close(ctx))
	_, err = ref.Get(ctx)
	assert.True(t, IsRemoved(err))
	require.NoError(t, ref.Close(ctx))
}

func TestAtomicReferenceAbsentWithoutCreate(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t)

	_, err := node.Registry().GetOrCreateReference(ctx, "ghost", nil, false)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestAtomicReferenceSharesNamespacePerKind(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t)

	// a counter and a reference may carry the same name without colliding
	counter, err := node.Registry().GetOrCreateLong(ctx, "twin", 1, true)
	require.NoError(t, err)
	ref, err := node.Registry().GetOrCreateReference(ctx, "twin", []byte("payload"), true)
	require.NoError(t, err)

	value, err := counter.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, value)

	payload, err := ref.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), payload)
}

func TestAtomicReferenceVisibleAcrossNodes(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t)
	peer := newTestNodeWithStore(t, node.store)

	mine, err := node.Registry().GetOrCreateReference(ctx, "shared-ref", []byte("v1"), true)
	require.NoError(t, err)
	theirs, err := peer.Registry().GetOrCreateReference(ctx, "shared-ref", []byte("ignored"), true)
	require.NoError(t, err)

	require.NoError(t, mine.Set(ctx, []byte("v2")))

	value, err := theirs.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)
}
