// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package registry

import (
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaoyj11/plexus/internal/ofp"
)

type fakeDatapath struct {
	id      uint64
	version ofp.Version
	ports   []ofp.Port
	xid     uint32
}

func (f *fakeDatapath) ID() uint64             { return f.id }
func (f *fakeDatapath) Version() ofp.Version   { return f.version }
func (f *fakeDatapath) Ports() []ofp.Port      { return f.ports }
func (f *fakeDatapath) NumTables() int         { return 2 }
func (f *fakeDatapath) NextXID() uint32        { return atomic.AddUint32(&f.xid, 1) }
func (f *fakeDatapath) SendMessage(msg any) error { return nil }

func TestOnSwitchJoin_RegistersRouter(t *testing.T) {
	reg := New(nil)
	dp := &fakeDatapath{id: 42, version: ofp.Version13, ports: []ofp.Port{{PortNo: 1, HWAddr: net.HardwareAddr{1, 2, 3, 4, 5, 6}}}}

	require.NoError(t, reg.OnSwitchJoin(dp))

	r, ok := reg.Lookup(42)
	require.True(t, ok)
	assert.Equal(t, uint64(42), r.DatapathID())
	t.Cleanup(func() { reg.OnSwitchLeave(42) })
}

func TestOnSwitchJoin_UnsupportedVersionRejected(t *testing.T) {
	reg := New(nil)
	dp := &fakeDatapath{id: 7, version: ofp.VersionUnknown}

	err := reg.OnSwitchJoin(dp)
	assert.Error(t, err)

	_, ok := reg.Lookup(7)
	assert.False(t, ok, "a rejected switch must not be registered")
}

func TestOnSwitchLeave_Unregisters(t *testing.T) {
	reg := New(nil)
	dp := &fakeDatapath{id: 1, version: ofp.Version13}
	require.NoError(t, reg.OnSwitchJoin(dp))

	reg.OnSwitchLeave(1)
	_, ok := reg.Lookup(1)
	assert.False(t, ok)
}

func TestAll_ReturnsEveryRegisteredRouter(t *testing.T) {
	reg := New(nil)
	require.NoError(t, reg.OnSwitchJoin(&fakeDatapath{id: 1, version: ofp.Version13}))
	require.NoError(t, reg.OnSwitchJoin(&fakeDatapath{id: 2, version: ofp.Version13}))
	t.Cleanup(func() {
		reg.OnSwitchLeave(1)
		reg.OnSwitchLeave(2)
	})

	assert.Len(t, reg.All(), 2)
}

func TestMetrics_NotNil(t *testing.T) {
	reg := New(nil)
	assert.NotNil(t, reg.Metrics())
}
