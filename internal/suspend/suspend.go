// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package suspend holds the bounded queue of packets awaiting next-hop
// ARP resolution (§4.3 "IPv4 -> other", §4.3 "Suspend list").
package suspend

import (
	"net"
	"sync"
	"time"
)

// MaxSuspended is the per-VlanRouter bound on outstanding packets (§8
// invariant 6).
const MaxSuspended = 3

// ReplyTimeout is how long a suspended packet waits for an ARP reply
// before its caller is asked to emit host-unreachable (§4.3 S4).
const ReplyTimeout = 10 * time.Second

// Packet is one suspended frame: the original Ethernet frame, the
// next-hop IP it is waiting to resolve, and the port it arrived on.
type Packet struct {
	DstIP  net.IP
	InPort uint32
	Data   []byte

	timer   *time.Timer
	expired bool
}

// OnExpire is invoked (from the timer's own goroutine) when a suspended
// packet times out without an ARP reply; callers use it to emit ICMP
// host-unreachable (§4.3 Suspend list).
type OnExpire func(p *Packet)

// List is the bounded suspend queue for one VlanRouter. Callers serialize
// access through the owning VlanRouter's mutex (§5); List itself holds no
// lock beyond what is needed to protect its own slice against the timer
// goroutines it spawns.
type List struct {
	mu      sync.Mutex
	packets []*Packet
	onExpire OnExpire
}

// NewList builds an empty suspend list; onExpire is called from a timer
// goroutine whenever a packet's ReplyTimeout elapses.
func NewList(onExpire OnExpire) *List {
	return &List{onExpire: onExpire}
}

// Full reports whether the list is at MaxSuspended capacity.
func (l *List) Full() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.packets) >= MaxSuspended
}

// Len reports the current queue depth.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.packets)
}

// Add enqueues data awaiting ARP resolution of dstIP, starting its
// ReplyTimeout timer. Returns false without enqueuing if the list is
// already full.
func (l *List) Add(dstIP net.IP, inPort uint32, data []byte) (*Packet, bool) {
	l.mu.Lock()
	if len(l.packets) >= MaxSuspended {
		l.mu.Unlock()
		return nil, false
	}
	p := &Packet{DstIP: dstIP, InPort: inPort, Data: data}
	p.timer = time.AfterFunc(ReplyTimeout, func() { l.expire(p) })
	l.packets = append(l.packets, p)
	l.mu.Unlock()
	return p, true
}

func (l *List) expire(p *Packet) {
	l.mu.Lock()
	idx := l.indexOf(p)
	if idx < 0 {
		l.mu.Unlock()
		return
	}
	p.expired = true
	l.removeAt(idx)
	l.mu.Unlock()
	if l.onExpire != nil {
		l.onExpire(p)
	}
}

func (l *List) indexOf(p *Packet) int {
	for i, q := range l.packets {
		if q == p {
			return i
		}
	}
	return -1
}

func (l *List) removeAt(i int) {
	l.packets = append(l.packets[:i], l.packets[i+1:]...)
}

// DequeueByDst cancels the timers of and removes every packet waiting on
// dstIP, returning them for resubmission to the flow pipeline (§4.3 ARP
// protocol action "Reply to a router IP", §8 invariant 7).
func (l *List) DequeueByDst(dstIP net.IP) []*Packet {
	l.mu.Lock()
	defer l.mu.Unlock()

	var matched []*Packet
	var remaining []*Packet
	for _, p := range l.packets {
		if p.DstIP.Equal(dstIP) {
			p.timer.Stop()
			matched = append(matched, p)
		} else {
			remaining = append(remaining, p)
		}
	}
	l.packets = remaining
	return matched
}

// CancelWhere cancels the timers of and removes every packet for which
// match returns true, used on Address deletion to drop packets destined
// into the removed subnet (§4.3 Suspend list).
func (l *List) CancelWhere(match func(*Packet) bool) []*Packet {
	l.mu.Lock()
	defer l.mu.Unlock()

	var matched []*Packet
	var remaining []*Packet
	for _, p := range l.packets {
		if match(p) {
			p.timer.Stop()
			matched = append(matched, p)
		} else {
			remaining = append(remaining, p)
		}
	}
	l.packets = remaining
	return matched
}
