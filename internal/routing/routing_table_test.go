// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flerrors "github.com/yaoyj11/plexus/internal/errors"
	"github.com/yaoyj11/plexus/internal/netaddr"
)

func TestRoutingTable_AddRejectsDuplicateDestination(t *testing.T) {
	table := NewRoutingTable(nil)
	dst := mustParsePrefix(t, "10.0.0.0/24")

	require.NoError(t, table.Add(&Route{ID: 1, Dst: dst}))

	err := table.Add(&Route{ID: 2, Dst: dst})
	require.Error(t, err)
	assert.Equal(t, flerrors.KindConflict, flerrors.GetKind(err))
}

func TestRoutingTable_LookupLongestPrefix(t *testing.T) {
	table := NewRoutingTable(nil)
	require.NoError(t, table.Add(&Route{ID: 1, Dst: netaddr.Default()}))
	require.NoError(t, table.Add(&Route{ID: 2, Dst: mustParsePrefix(t, "10.0.0.0/16")}))
	require.NoError(t, table.Add(&Route{ID: 3, Dst: mustParsePrefix(t, "10.0.1.0/24")}))

	route, ok := table.LookupLongestPrefix(mustParseIP(t, "10.0.1.5"))
	require.True(t, ok)
	assert.Equal(t, uint32(3), route.ID)

	route, ok = table.LookupLongestPrefix(mustParseIP(t, "10.0.2.5"))
	require.True(t, ok)
	assert.Equal(t, uint32(2), route.ID)

	route, ok = table.LookupLongestPrefix(mustParseIP(t, "192.168.1.1"))
	require.True(t, ok)
	assert.Equal(t, uint32(1), route.ID)
}

func TestRoutingTable_LookupByGatewayMAC(t *testing.T) {
	table := NewRoutingTable(nil)
	mac := mustParseMAC(t, "aa:bb:cc:dd:ee:ff")
	require.NoError(t, table.Add(&Route{ID: 1, Dst: mustParsePrefix(t, "10.0.0.0/24"), GatewayMAC: mac}))

	route, ok := table.LookupByGatewayMAC(mac)
	require.True(t, ok)
	assert.Equal(t, uint32(1), route.ID)

	_, ok = table.LookupByGatewayMAC(mustParseMAC(t, "11:22:33:44:55:66"))
	assert.False(t, ok)
}

func TestRoutingTable_DeleteAndEmpty(t *testing.T) {
	table := NewRoutingTable(nil)
	require.NoError(t, table.Add(&Route{ID: 1, Dst: mustParsePrefix(t, "10.0.0.0/24")}))
	assert.False(t, table.Empty())

	assert.True(t, table.Delete(1))
	assert.True(t, table.Empty())
	assert.False(t, table.Delete(1))
}
