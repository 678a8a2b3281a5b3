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
	"github.com/google/uuid"

	"github.com/atomgrid/atomgrid/internal/syncmap"
	"github.com/atomgrid/atomgrid/log"
	"github.com/atomgrid/atomgrid/store"
)

// nodes indexes every live node of this process by identifier so token
// resolution can find the right registry when multiple logical nodes share
// one runtime.
var nodes = syncmap.New[string, *Node]()

// Node is one logical member of the data-structure grid inside this process.
// It owns the registry for its data structures and the handle to the shared
// store backing them. Several nodes may coexist in one process, each with its
// own registry, typically in tests or embedded multi-tenant setups.
type Node struct {
	id       string
	store    store.Store
	logger   log.Logger
	registry *Registry
}

// NewNode creates a node on top of the given shared store and registers it in
// the process-wide node index. The caller keeps ownership of the store.
func NewNode(s store.Store, opts ...Option) *Node {
	node := &Node{
		id:     uuid.NewString(),
		store:  s,
		logger: log.DefaultLogger,
	}
	for _, opt := range opts {
		opt.Apply(node)
	}
	node.registry = newRegistry(node.id, s, node.logger)
	nodes.Set(node.id, node)
	node.logger.Infof("data structure node=(%s) started", node.id)
	return node
}

// LookupNode returns the live node with the given identifier in this process.
func LookupNode(id string) (*Node, bool) {
	return nodes.Get(id)
}

// ID returns the node's process-scoped identifier. It is the execution
// context reference carried by rehydration tokens.
func (n *Node) ID() string {
	return n.id
}

// Registry returns this node's data structure registry.
func (n *Node) Registry() *Registry {
	return n.registry
}

// Close removes the node from the process-wide index. Handles bound through
// the node keep working as long as the underlying store is open; the store
// itself stays with its owner.
func (n *Node) Close() error {
	nodes.Delete(n.id)
	n.logger.Infof("data structure node=(%s) stopped", n.id)
	return nil
}
