// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ofp

import (
	"sync"
	"time"
)

// waiter accumulates the fragments of one outstanding multi-part stats reply.
type waiter struct {
	mu     sync.Mutex
	flows  []FlowStats
	done   chan struct{}
	closed bool
}

func (w *waiter) append(flows []FlowStats) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flows = append(w.flows, flows...)
}

func (w *waiter) signal() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		close(w.done)
		w.closed = true
	}
}

func (w *waiter) snapshot() []FlowStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]FlowStats, len(w.flows))
	copy(out, w.flows)
	return out
}

// Waiters correlates outstanding flow-stats requests with their (possibly
// fragmented) replies, keyed by (datapath id, xid). It is the asynchronous
// request/reply coordinator described in §4.5/§5: one shared map per
// controller, mutated from whichever goroutine the switch session delivers
// StatsReply events on, and read by whichever goroutine is blocked in
// RequestFlowStats.
type Waiters struct {
	mu   sync.Mutex
	byDP map[uint64]map[uint32]*waiter
}

// NewWaiters constructs an empty coordinator.
func NewWaiters() *Waiters {
	return &Waiters{byDP: make(map[uint64]map[uint32]*waiter)}
}

func (w *Waiters) register(dpID uint64, xid uint32) *waiter {
	w.mu.Lock()
	defer w.mu.Unlock()
	ent := &waiter{done: make(chan struct{})}
	m, ok := w.byDP[dpID]
	if !ok {
		m = make(map[uint32]*waiter)
		w.byDP[dpID] = m
	}
	m[xid] = ent
	return ent
}

func (w *Waiters) unregister(dpID uint64, xid uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if m, ok := w.byDP[dpID]; ok {
		delete(m, xid)
		if len(m) == 0 {
			delete(w.byDP, dpID)
		}
	}
}

func (w *Waiters) lookup(dpID uint64, xid uint32) (*waiter, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.byDP[dpID]
	if !ok {
		return nil, false
	}
	ent, ok := m[xid]
	return ent, ok
}

// RequestFlowStats allocates an XID, sends the request built by build, and
// blocks up to StatsRequestTimeout for the (possibly multi-part) reply. On
// timeout it returns whatever fragments arrived so far rather than erroring:
// callers (flow delete/GC) treat a short result as "nothing more to do".
func (w *Waiters) RequestFlowStats(dp Datapath, build func(xid uint32) any) []FlowStats {
	xid := dp.NextXID()
	ent := w.register(dp.ID(), xid)
	defer w.unregister(dp.ID(), xid)

	if err := dp.SendMessage(build(xid)); err != nil {
		return nil
	}

	select {
	case <-ent.done:
	case <-time.After(StatsRequestTimeout):
	}
	return ent.snapshot()
}

// Dispatch delivers one StatsReply fragment from the switch session's event
// loop. Unknown (dpID, xid) pairs are ignored (§4.5: "ignore if unknown").
func (w *Waiters) Dispatch(reply StatsReply) {
	ent, ok := w.lookup(reply.DatapathID, reply.XID)
	if !ok {
		return
	}
	ent.append(reply.Flows)
	if reply.More {
		return
	}
	w.unregister(reply.DatapathID, reply.XID)
	ent.signal()
}
