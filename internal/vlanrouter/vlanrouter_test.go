// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package vlanrouter

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaoyj11/plexus/internal/ofctl"
	"github.com/yaoyj11/plexus/internal/ofp"
	"github.com/yaoyj11/plexus/internal/routing"
)

type fakeDatapath struct {
	id uint64
}

func (f *fakeDatapath) ID() uint64             { return f.id }
func (f *fakeDatapath) Version() ofp.Version   { return ofp.Version13 }
func (f *fakeDatapath) Ports() []ofp.Port      { return nil }
func (f *fakeDatapath) NumTables() int         { return 2 }
func (f *fakeDatapath) NextXID() uint32        { return 1 }
func (f *fakeDatapath) SendMessage(msg any) error { return nil }

// fakeCtl records flow installs/deletes and packet-outs so tests can assert
// on them without a real OpenFlow session (mirrors the teacher's
// record-then-assert fake style used for ofctl.controller_test.go).
type fakeCtl struct {
	flows        []ofp.FlowStats
	nextCookie   uint64
	deleted      []ofp.FlowStats
	packetsOut   int
	arpRequests  int
	routingFlows int
}

func (f *fakeCtl) ClearFlows() error      { return nil }
func (f *fakeCtl) SetSwConfigForTTL() error { return nil }
func (f *fakeCtl) GetAllFlow(waiters *ofp.Waiters) []ofp.FlowStats { return f.flows }

func (f *fakeCtl) SetPacketinFlow(cookie uint64, priority uint16, match ofctl.Match) error {
	return nil
}

func (f *fakeCtl) SetRoutingFlow(cookie uint64, priority uint16, outPort uint32, match ofctl.Match, srcMAC, dstMAC net.HardwareAddr, idleTimeout uint16, decTTL bool) error {
	f.routingFlows++
	return nil
}

func (f *fakeCtl) DeleteFlow(flow ofp.FlowStats) error {
	f.deleted = append(f.deleted, flow)
	kept := f.flows[:0]
	for _, fl := range f.flows {
		if fl.Cookie != flow.Cookie {
			kept = append(kept, fl)
		}
	}
	f.flows = kept
	return nil
}

func (f *fakeCtl) SendARPRequest(vlanID uint16, srcMAC net.HardwareAddr, srcIP, targetIP net.IP, outPort uint32) error {
	f.arpRequests++
	return nil
}
func (f *fakeCtl) SendARPReply(vlanID uint16, srcMAC net.HardwareAddr, srcIP net.IP, dstMAC net.HardwareAddr, dstIP net.IP, outPort uint32) error {
	return nil
}
func (f *fakeCtl) SendICMP(vlanID uint16, srcMAC, dstMAC net.HardwareAddr, payload []byte, outPort uint32) error {
	return nil
}
func (f *fakeCtl) SendDHCPDiscover(vlanID uint16, srcMAC net.HardwareAddr) error { return nil }
func (f *fakeCtl) SendPacketOut(data []byte, inPort uint32, ports []uint32) error {
	f.packetsOut++
	return nil
}
func (f *fakeCtl) GetPacketinInport(pin ofp.PacketIn) uint32 { return pin.InPort }

func newTestVlanRouter(t *testing.T) (*VlanRouter, *fakeCtl) {
	t.Helper()
	ports := routing.NewPortData()
	ports.Add(1, net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff})
	ctl := &fakeCtl{}
	vr := New(VlanIDNone, &fakeDatapath{id: 1}, ctl, nil, ports, false, nil)
	return vr, ctl
}

func TestSetData_AddAddress(t *testing.T) {
	vr, _ := newTestVlanRouter(t)
	results := vr.SetData(SetDataRequest{Address: strPtr("10.0.0.1/24")})
	require.Len(t, results, 1)
	assert.Equal(t, "success", results[0].Result)

	addrs, _ := vr.GetData()
	require.Len(t, addrs, 1)
	assert.Equal(t, "10.0.0.1/24", addrs[0].Address)
}

func TestSetData_OverlappingAddressRejected(t *testing.T) {
	vr, _ := newTestVlanRouter(t)
	vr.SetData(SetDataRequest{Address: strPtr("10.0.0.1/24")})
	results := vr.SetData(SetDataRequest{Address: strPtr("10.0.0.128/25")})
	require.Len(t, results, 1)
	assert.Equal(t, "failure", results[0].Result)
}

func TestSetData_RouteGatewayOutsideAnyAddress(t *testing.T) {
	vr, _ := newTestVlanRouter(t)
	vr.SetData(SetDataRequest{Address: strPtr("10.0.0.1/24")})
	results := vr.SetData(SetDataRequest{Gateway: strPtr("192.168.1.1")})
	require.Len(t, results, 1)
	assert.Equal(t, "failure", results[0].Result)
}

func TestSetData_RouteGatewayEqualsDefaultGWRejected(t *testing.T) {
	vr, _ := newTestVlanRouter(t)
	vr.SetData(SetDataRequest{Address: strPtr("10.0.0.1/24")})
	results := vr.SetData(SetDataRequest{Gateway: strPtr("10.0.0.1")})
	require.Len(t, results, 1)
	assert.Equal(t, "failure", results[0].Result)
}

func TestSetData_StaticRouteInstallsAndARPs(t *testing.T) {
	vr, ctl := newTestVlanRouter(t)
	vr.SetData(SetDataRequest{Address: strPtr("10.0.0.1/24")})
	results := vr.SetData(SetDataRequest{Destination: strPtr("192.168.5.0/24"), Gateway: strPtr("10.0.0.254")})
	require.Len(t, results, 1)
	assert.Equal(t, "success", results[0].Result)
	assert.Equal(t, 2, ctl.packetsOut, "gratuitous ARP for the address fires once, the route's ARP request fires a second time")

	_, routes := vr.GetData()
	require.Len(t, routes, 1)
	assert.Equal(t, "10.0.0.254", routes[0].Gateway)
}

func TestSetData_BareVLANSuppressesMutation(t *testing.T) {
	vr, _ := newTestVlanRouter(t)
	vr.SetData(SetDataRequest{Bare: boolPtr(true)})
	results := vr.SetData(SetDataRequest{Address: strPtr("10.0.0.1/24")})
	require.Len(t, results, 1)
	assert.Equal(t, "failure", results[0].Result)

	addrs, _ := vr.GetData()
	assert.Empty(t, addrs)
}

func TestDeleteData_AddressSkippedWhenRouteGatewayInside(t *testing.T) {
	vr, _ := newTestVlanRouter(t)
	vr.SetData(SetDataRequest{Address: strPtr("10.0.0.1/24")})
	vr.SetData(SetDataRequest{Gateway: strPtr("10.0.0.254")})

	results := vr.DeleteData(DeleteRequest{AddressID: &DeleteTarget{ID: 1}})
	require.Len(t, results, 1)
	assert.Equal(t, "failure", results[0].Result)
	assert.Contains(t, results[0].Details, "Skip delete")

	addrs, _ := vr.GetData()
	assert.Len(t, addrs, 1, "address must not be removed while a route's gateway lies inside it")
}

func TestDeleteData_AllAddressesWhenNoRoutesBlock(t *testing.T) {
	vr, _ := newTestVlanRouter(t)
	vr.SetData(SetDataRequest{Address: strPtr("10.0.0.1/24")})
	vr.SetData(SetDataRequest{Address: strPtr("10.0.1.1/24")})

	results := vr.DeleteData(DeleteRequest{AddressID: &DeleteTarget{All: true}})
	assert.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "success", r.Result)
	}

	addrs, _ := vr.GetData()
	assert.Empty(t, addrs)
}

func TestEmpty(t *testing.T) {
	vr, _ := newTestVlanRouter(t)
	assert.True(t, vr.Empty())
	vr.SetData(SetDataRequest{Address: strPtr("10.0.0.1/24")})
	assert.False(t, vr.Empty())
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
