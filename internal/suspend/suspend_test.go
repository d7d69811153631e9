// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package suspend

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_AddRejectsBeyondCapacity(t *testing.T) {
	l := NewList(nil)
	for i := 0; i < MaxSuspended; i++ {
		_, ok := l.Add(net.IPv4(10, 0, 0, byte(i)), 1, []byte("x"))
		require.True(t, ok)
	}
	assert.True(t, l.Full())

	_, ok := l.Add(net.IPv4(10, 0, 0, 99), 1, []byte("x"))
	assert.False(t, ok)
	assert.Equal(t, MaxSuspended, l.Len())
}

func TestList_DequeueByDstCancelsTimerAndRemoves(t *testing.T) {
	var expired sync.Map
	l := NewList(func(p *Packet) { expired.Store(p.DstIP.String(), true) })

	dst := net.IPv4(10, 0, 0, 5)
	_, ok := l.Add(dst, 1, []byte("x"))
	require.True(t, ok)

	matched := l.DequeueByDst(dst)
	require.Len(t, matched, 1)
	assert.Equal(t, 0, l.Len())

	time.Sleep(ReplyTimeout + 50*time.Millisecond)
	_, wasExpired := expired.Load(dst.String())
	assert.False(t, wasExpired, "timer must not fire after explicit dequeue")
}

func TestList_CancelWhere(t *testing.T) {
	l := NewList(nil)
	inSubnet := net.IPv4(192, 168, 1, 5)
	outside := net.IPv4(10, 0, 0, 5)
	_, ok := l.Add(inSubnet, 1, nil)
	require.True(t, ok)
	_, ok = l.Add(outside, 1, nil)
	require.True(t, ok)

	_, subnet, _ := net.ParseCIDR("192.168.1.0/24")
	matched := l.CancelWhere(func(p *Packet) bool { return subnet.Contains(p.DstIP) })

	require.Len(t, matched, 1)
	assert.Equal(t, 1, l.Len())
}
