// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaoyj11/plexus/internal/netaddr"
)

func TestPolicyRoutingTable_AddToAnySource(t *testing.T) {
	p := NewPolicyRoutingTable()

	route, err := p.Add(mustParsePrefix(t, "10.0.0.0/24"), mustParseIP(t, "10.0.0.1"), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), route.ID)
	assert.True(t, route.Src.IsDefault())
	assert.Len(t, p.All(), 1)
}

func TestPolicyRoutingTable_IDsSharedAcrossTables(t *testing.T) {
	p := NewPolicyRoutingTable()
	src := mustParsePrefix(t, "192.168.1.0/24")

	r1, err := p.Add(mustParsePrefix(t, "10.0.0.0/24"), mustParseIP(t, "10.0.0.1"), nil, 1)
	require.NoError(t, err)
	r2, err := p.Add(mustParsePrefix(t, "10.0.1.0/24"), mustParseIP(t, "10.0.1.1"), &src, 2)
	require.NoError(t, err)

	assert.NotEqual(t, r1.ID, r2.ID)
	assert.Len(t, p.All(), 2)
}

func TestPolicyRoutingTable_GetDataFallsBackToAnySource(t *testing.T) {
	p := NewPolicyRoutingTable()
	src := mustParsePrefix(t, "192.168.1.0/24")

	anyRoute, err := p.Add(netaddr.Default(), mustParseIP(t, "10.0.0.1"), nil, 1)
	require.NoError(t, err)
	_, err = p.Add(mustParsePrefix(t, "10.0.1.0/24"), mustParseIP(t, "10.0.1.1"), &src, 2)
	require.NoError(t, err)

	route, ok := p.GetData(nil, mustParseIP(t, "8.8.8.8"), mustParseIP(t, "192.168.1.50"))
	require.True(t, ok)
	assert.Equal(t, anyRoute.ID, route.ID)
}

func TestPolicyRoutingTable_GetDataPrefersSourceQualified(t *testing.T) {
	p := NewPolicyRoutingTable()
	src := mustParsePrefix(t, "192.168.1.0/24")

	_, err := p.Add(netaddr.Default(), mustParseIP(t, "10.0.0.1"), nil, 1)
	require.NoError(t, err)
	qualified, err := p.Add(netaddr.Default(), mustParseIP(t, "10.0.1.1"), &src, 2)
	require.NoError(t, err)

	route, ok := p.GetData(nil, mustParseIP(t, "8.8.8.8"), mustParseIP(t, "192.168.1.50"))
	require.True(t, ok)
	assert.Equal(t, qualified.ID, route.ID)
}

func TestPolicyRoutingTable_GetDataByGatewayMAC(t *testing.T) {
	p := NewPolicyRoutingTable()
	mac := mustParseMAC(t, "aa:bb:cc:dd:ee:ff")

	route, err := p.Add(mustParsePrefix(t, "10.0.0.0/24"), mustParseIP(t, "10.0.0.1"), nil, 1)
	require.NoError(t, err)
	route.GatewayMAC = mac

	got, ok := p.GetData(mac, nil, nil)
	require.True(t, ok)
	assert.Equal(t, route.ID, got.ID)
}

func TestPolicyRoutingTable_Delete(t *testing.T) {
	p := NewPolicyRoutingTable()
	route, err := p.Add(mustParsePrefix(t, "10.0.0.0/24"), mustParseIP(t, "10.0.0.1"), nil, 1)
	require.NoError(t, err)

	deleted, err := p.Delete(route.ID)
	require.NoError(t, err)
	assert.Equal(t, route.ID, deleted.ID)

	_, err = p.Delete(route.ID)
	require.Error(t, err)
}

func TestPolicyRoutingTable_GCSubnetTables(t *testing.T) {
	p := NewPolicyRoutingTable()
	src := mustParsePrefix(t, "192.168.1.0/24")

	route, err := p.Add(mustParsePrefix(t, "10.0.0.0/24"), mustParseIP(t, "10.0.0.1"), &src, 1)
	require.NoError(t, err)
	assert.Len(t, p.bySrc, 1)

	_, err = p.Delete(route.ID)
	require.NoError(t, err)

	p.GCSubnetTables()
	assert.Len(t, p.bySrc, 0)
}

func TestPolicyRoutingTable_AllGatewayInfo(t *testing.T) {
	p := NewPolicyRoutingTable()
	src := mustParsePrefix(t, "192.168.1.0/24")

	_, err := p.Add(mustParsePrefix(t, "10.0.0.0/24"), mustParseIP(t, "10.0.0.1"), nil, 1)
	require.NoError(t, err)
	_, err = p.Add(mustParsePrefix(t, "10.0.1.0/24"), mustParseIP(t, "10.0.1.1"), &src, 2)
	require.NoError(t, err)

	infos := p.AllGatewayInfo()
	assert.Len(t, infos, 2)
}
