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

package store

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
	"go.uber.org/atomic"
)

const (
	etcdSessionTTL      = 10
	etcdDefaultBasePath = "atomgrid"
)

// EtcdStore implements Store against an etcd cluster.
//
// Concurrency:
//   - Pessimistic transactions serialize on a per-key concurrency.Mutex
//     attached to the store's lease session, so holders on any node block
//     each other for the transaction's duration.
//   - Every commit additionally guards the write with a mod-revision compare,
//     which is what makes Optimistic mode work without the mutex. Under
//     Pessimistic mode the guard cannot fire unless the mutex lease expired.
//
// The caller owns the etcd client; Close only ends the lease session.
type EtcdStore struct {
	client   *clientv3.Client
	session  *concurrency.Session
	basePath string
	closed   atomic.Bool
}

var _ Store = (*EtcdStore)(nil)

// NewEtcdStore creates an etcd-backed Store sharing the given client. A lease
// session is created to back the per-key mutexes; it expires when this
// process dies, so crashed holders do not wedge the key.
func NewEtcdStore(client *clientv3.Client) (*EtcdStore, error) {
	session, err := concurrency.NewSession(client, concurrency.WithTTL(etcdSessionTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to create store session: %w", err)
	}
	return &EtcdStore{
		client:   client,
		session:  session,
		basePath: etcdDefaultBasePath,
	}, nil
}

// Begin starts a transaction scoped to the given key.
func (e *EtcdStore) Begin(ctx context.Context, key string, mode Mode, _ Isolation) (Tx, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	tx := &etcdTx{
		ctx:     ctx,
		kv:      e.client.KV,
		dataKey: fmt.Sprintf("%s/data/%s", e.basePath, key),
	}

	if mode == Pessimistic {
		mutex := concurrency.NewMutex(e.session, fmt.Sprintf("%s/locks/%s", e.basePath, key))
		if err := mutex.Lock(ctx); err != nil {
			return nil, fmt.Errorf("failed to lock key %q: %w", key, err)
		}
		tx.mutex = mutex
	}
	return tx, nil
}

// Close ends the lease session. The underlying client stays open for the
// caller to reuse or close.
func (e *EtcdStore) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	return e.session.Close()
}

// etcdTx is a single-key transaction against etcd. Reads and the commit run
// on the context the transaction was begun with.
type etcdTx struct {
	ctx     context.Context
	kv      clientv3.KV
	dataKey string
	mutex   *concurrency.Mutex

	read    bool
	readRev int64
	snap    []byte
	snapOK  bool

	pending []byte
	hasPut  bool
	hasDel  bool
	done    bool
}

var _ Tx = (*etcdTx)(nil)

// Get returns the scoped key's value. The first read records the key's mod
// revision; later reads return the recorded snapshot so the transaction
// observes a repeatable view even while unlocked in Optimistic mode.
func (t *etcdTx) Get() ([]byte, bool, error) {
	if t.done {
		return nil, false, ErrTxDone
	}
	if t.hasDel {
		return nil, false, nil
	}
	if t.hasPut {
		return cloneBytes(t.pending), true, nil
	}
	if !t.read {
		resp, err := t.kv.Get(t.ctx, t.dataKey)
		if err != nil {
			return nil, false, err
		}
		t.read = true
		if len(resp.Kvs) > 0 {
			t.readRev = resp.Kvs[0].ModRevision
			t.snap = cloneBytes(resp.Kvs[0].Value)
			t.snapOK = true
		}
	}
	if !t.snapOK {
		return nil, false, nil
	}
	return cloneBytes(t.snap), true, nil
}

// Put stages the given value for the scoped key.
func (t *etcdTx) Put(value []byte) error {
	if t.done {
		return ErrTxDone
	}
	t.pending = cloneBytes(value)
	t.hasPut = true
	t.hasDel = false
	return nil
}

// Delete stages removal of the scoped key.
func (t *etcdTx) Delete() error {
	if t.done {
		return ErrTxDone
	}
	t.hasDel = true
	t.hasPut = false
	t.pending = nil
	return nil
}

// Commit applies the staged writes in a single etcd transaction guarded by
// the recorded mod revision, then releases the mutex when one is held. A
// revision mismatch surfaces as ErrConflict.
func (t *etcdTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.unlock()

	if !t.hasPut && !t.hasDel {
		return nil
	}

	var guards []clientv3.Cmp
	if t.read {
		// ModRevision of a missing key compares equal to zero, so the guard
		// also covers create-if-absent races.
		guards = append(guards, clientv3.Compare(clientv3.ModRevision(t.dataKey), "=", t.readRev))
	}

	var op clientv3.Op
	if t.hasPut {
		op = clientv3.OpPut(t.dataKey, string(t.pending))
	} else {
		op = clientv3.OpDelete(t.dataKey)
	}

	resp, err := t.kv.Txn(t.ctx).If(guards...).Then(op).Commit()
	if err != nil {
		return err
	}
	if !resp.Succeeded {
		return ErrConflict
	}
	return nil
}

// Rollback discards the staged writes and releases the mutex when one is
// held. It is a no-op on a finished transaction.
func (t *etcdTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.unlock()
	return nil
}

func (t *etcdTx) unlock() {
	if t.mutex != nil {
		// unlock on a fresh context so a canceled transaction still releases
		// the key for other holders
		_ = t.mutex.Unlock(context.WithoutCancel(t.ctx))
		t.mutex = nil
	}
}
