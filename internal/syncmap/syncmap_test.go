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

package syncmap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncMapBasicOperations(t *testing.T) {
	m := New[string, int]()

	m.Set("a", 1)
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = m.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 1, m.Len())

	m.Delete("a")
	_, ok = m.Get("a")
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestSyncMapGetAndDelete(t *testing.T) {
	m := New[string, string]()
	m.Set("k", "v")

	v, ok := m.GetAndDelete("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok = m.GetAndDelete("k")
	assert.False(t, ok)
}

func TestSyncMapRangeAndReset(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 10; i++ {
		m.Set(i, i*i)
	}

	seen := make(map[int]int)
	m.Range(func(k, v int) {
		seen[k] = v
	})
	assert.Len(t, seen, 10)
	assert.Equal(t, 81, seen[9])

	m.Reset()
	assert.Zero(t, m.Len())
}

func TestSyncMapConcurrentReadersAndWriters(t *testing.T) {
	m := New[int, int]()

	const writers = 64
	var wg sync.WaitGroup

	wg.Add(writers * 2)
	for i := 0; i < writers; i++ {
		go func(id int) {
			defer wg.Done()
			m.Set(id, id*id)
		}(i)
		go func(id int) {
			defer wg.Done()
			if v, ok := m.Get(id); ok {
				assert.Equal(t, id*id, v)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, writers, m.Len())
}
