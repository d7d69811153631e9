// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package vlanrouter implements the per-VLAN routing state machine (§4.3):
// address/route table mutation via REST, and the packet-in pipeline that
// classifies ARP/ICMP/IPv4 traffic and synthesises flow rules from it.
package vlanrouter

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync"

	"github.com/yaoyj11/plexus/internal/logging"
	"github.com/yaoyj11/plexus/internal/metrics"
	"github.com/yaoyj11/plexus/internal/netaddr"
	"github.com/yaoyj11/plexus/internal/ofctl"
	"github.com/yaoyj11/plexus/internal/ofp"
	"github.com/yaoyj11/plexus/internal/routing"
	"github.com/yaoyj11/plexus/internal/suspend"
)

// VlanIDNone is the slot a Router keeps for untagged traffic (§4.4).
const VlanIDNone uint16 = 0

// VlanRouter owns one VLAN's address/route state on one switch and
// synthesises the flow rules and packets that realise it. Operations are
// invoked either from REST dispatch or from the packet-in pipeline; both
// paths serialize through mu (§5: Go schedules packet-in callbacks and
// REST handlers concurrently, unlike the single-threaded original).
type VlanRouter struct {
	mu sync.Mutex

	vlanID  uint16
	dp      ofp.Datapath
	ctl     ofctl.OfCtl
	waiters *ofp.Waiters
	ports   *routing.PortData
	bare    bool

	addresses *routing.AddressData
	policy    *routing.PolicyRoutingTable
	suspended *suspend.List

	metrics *metrics.Router
	log     *logging.Logger
}

// New builds a VlanRouter bound to dp/ctl for vlanID. waiters is the
// datapath's shared stats-request coordinator (§4.5), used by
// delete_data to enumerate installed flows. bare makes address and route
// additions fail, so they install no flows (§6 POST {"bare":true}, §9.4).
// mx may be nil (metrics disabled, e.g. in tests).
func New(vlanID uint16, dp ofp.Datapath, ctl ofctl.OfCtl, waiters *ofp.Waiters, ports *routing.PortData, bare bool, mx *metrics.Router) *VlanRouter {
	vr := &VlanRouter{
		vlanID:    vlanID,
		dp:        dp,
		ctl:       ctl,
		waiters:   waiters,
		ports:     ports,
		bare:      bare,
		addresses: routing.NewAddressData(),
		policy:    routing.NewPolicyRoutingTable(),
		metrics:   mx,
		log:       logging.WithComponent("vlanrouter"),
	}
	vr.suspended = suspend.NewList(vr.onSuspendExpire)
	return vr
}

func (vr *VlanRouter) dpidHex() string { return fmt.Sprintf("%016x", vr.dp.ID()) }

func (vr *VlanRouter) observeSuspendedQueueLen() {
	if vr.metrics == nil {
		return
	}
	vr.metrics.SuspendedQueue.WithLabelValues(vr.dpidHex(), strconv.FormatUint(uint64(vr.vlanID), 10)).Set(float64(vr.suspended.Len()))
}

// VlanID returns the VLAN this router manages (VlanIDNone for untagged).
func (vr *VlanRouter) VlanID() uint16 { return vr.vlanID }

func (vr *VlanRouter) vlanTagged() bool { return vr.vlanID != VlanIDNone }

// Empty reports whether this VlanRouter holds no addresses and only an
// empty any-source routing table, the GC condition checked by Router
// (§4.4 Empty-VlanRouter GC).
func (vr *VlanRouter) Empty() bool {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	return vr.addresses.Len() == 0 && vr.policy.AnyTable().Empty()
}

// SweepTarget is one gateway the background sweeper should re-ARP,
// sourced from the local Address that owns it (§4.4 Sweep).
type SweepTarget struct {
	SourceIP  net.IP
	GatewayIP net.IP
}

// SweepTargets flattens every known gateway across this VLAN's routing
// tables, paired with the default_gw of the Address that owns each
// gateway (§4.4 Sweep: "send ARP request from each gateway's
// Address.default_gw to the gateway IP").
func (vr *VlanRouter) SweepTargets() []SweepTarget {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	var targets []SweepTarget
	for _, gw := range vr.policy.AllGatewayInfo() {
		owning, ok := vr.addresses.GetByIP(gw.IP)
		if !ok {
			continue
		}
		targets = append(targets, SweepTarget{SourceIP: owning.Gateway, GatewayIP: gw.IP})
	}
	return targets
}

func (vr *VlanRouter) routerPortMAC() net.HardwareAddr {
	ports := vr.ports.All()
	if len(ports) == 0 {
		return nil
	}
	return ports[0].MAC
}

// CommandResult mirrors the REST response item shape of §6:
// {result, details, vlan_id?}.
type CommandResult struct {
	Result  string `json:"result"`
	Details string `json:"details"`
	VlanID  *uint16 `json:"vlan_id,omitempty"`
}

func success(details string) CommandResult { return CommandResult{Result: "success", Details: details} }
func failure(details string) CommandResult { return CommandResult{Result: "failure", Details: details} }

// SetDataRequest is the closed set of recognised POST body keys (§9:
// "Reject unknown keys" — enforced by the REST layer's DisallowUnknownFields,
// not here).
type SetDataRequest struct {
	Address     *string  `json:"address,omitempty"`
	Destination *string  `json:"destination,omitempty"`
	Gateway     *string  `json:"gateway,omitempty"`
	AddressID   *uint32  `json:"address_id,omitempty"`
	DHCPServers []string `json:"dhcp_servers,omitempty"`
	Bare        *bool    `json:"bare,omitempty"`
}

// SetData dispatches a POST body to the matching mutation (§4.3).
func (vr *VlanRouter) SetData(req SetDataRequest) []CommandResult {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	if req.Bare != nil {
		vr.bare = *req.Bare
		return []CommandResult{success("Set bare VLAN")}
	}
	if req.Address != nil {
		return []CommandResult{vr.setAddress(*req.Address)}
	}
	if req.Gateway != nil {
		return []CommandResult{vr.setRoute(req)}
	}
	if req.DHCPServers != nil {
		return []CommandResult{vr.setDHCPServers(req.DHCPServers)}
	}
	return []CommandResult{failure("no recognised operation in request")}
}

func (vr *VlanRouter) setAddress(cidr string) CommandResult {
	if vr.bare {
		return failure("VLAN is bare: address mutation suppressed")
	}
	addr, err := vr.addresses.Add(cidr)
	if err != nil {
		return failure(err.Error())
	}

	vr.installAddressFlows(addr)

	if mac := vr.routerPortMAC(); mac != nil {
		if data, err := ofctl.BuildGratuitousARP(vr.vlanID, mac, addr.Gateway); err == nil {
			_ = vr.ctl.SendPacketOut(data, 0, vr.allPortNumbers())
		}
	}

	return success("Add address [address_id=" + strconv.FormatUint(uint64(addr.ID), 10) + "]")
}

func (vr *VlanRouter) installAddressFlows(addr *routing.Address) {
	cookie := ofctl.EncodeCookie(vr.vlanID, 0, uint16(addr.ID))

	macLearnMatch := ofctl.Match{VlanID: vr.vlanID, EthType: 0x0800, NwDst: &net.IPNet{IP: addr.Network.IP, Mask: addr.Network.Mask()}}
	_ = vr.ctl.SetPacketinFlow(cookie, ofctl.MACLearnPriority(vr.vlanTagged()), macLearnMatch)
	vr.countFlowInstall("mac_learn")

	ipHandlingMatch := ofctl.Match{VlanID: vr.vlanID, EthType: 0x0800, NwDst: &net.IPNet{IP: addr.Gateway, Mask: net.CIDRMask(32, 32)}}
	_ = vr.ctl.SetPacketinFlow(cookie, ofctl.IPHandlingPriority(vr.vlanTagged()), ipHandlingMatch)
	vr.countFlowInstall("ip_handling")
}

func (vr *VlanRouter) countFlowInstall(kind string) {
	if vr.metrics == nil {
		return
	}
	vr.metrics.FlowInstallTotal.WithLabelValues(vr.dpidHex(), kind).Inc()
}

func (vr *VlanRouter) setRoute(req SetDataRequest) CommandResult {
	if vr.bare {
		return failure("VLAN is bare: route mutation suppressed")
	}
	gwIP, err := netaddr.ParseIPv4(*req.Gateway)
	if err != nil {
		return failure(err.Error())
	}

	owning, ok := vr.addresses.GetByIP(gwIP)
	if !ok {
		return failure("gateway " + gwIP.String() + " is outside every local address")
	}
	if owning.Gateway.Equal(gwIP) {
		return failure("gateway " + gwIP.String() + " equals this address's own default gateway")
	}

	dst := netaddr.Default()
	if req.Destination != nil {
		parsed, err := netaddr.ParseCIDR(*req.Destination)
		if err != nil {
			return failure(err.Error())
		}
		dst = parsed
	}

	var src *netaddr.Prefix
	var addressID uint32
	if req.AddressID != nil {
		addressID = *req.AddressID
		srcAddr, ok := vr.addresses.Get(addressID)
		if !ok {
			return failure("unknown address_id")
		}
		src = &srcAddr.Network
	}

	route, err := vr.policy.Add(dst, gwIP, src, addressID)
	if err != nil {
		return failure(err.Error())
	}

	vr.installRoutePacketinFlow(route)

	if mac := vr.routerPortMAC(); mac != nil {
		if data, err := ofctl.BuildARPRequest(vr.vlanID, mac, owning.Gateway, gwIP); err == nil {
			_ = vr.ctl.SendPacketOut(data, 0, vr.allPortNumbers())
		}
	}

	return success("Add route [route_id=" + strconv.FormatUint(uint64(route.ID), 10) + "]")
}

func (vr *VlanRouter) installRoutePacketinFlow(route *routing.Route) {
	cookie := ofctl.EncodeCookie(vr.vlanID, uint16(route.ID), uint16(route.AddressID))
	ones, _ := route.Dst.Mask().Size()
	base := ofctl.RouteBasePriority(route.IsDefault(), route.AddressID != 0)
	priority := ofctl.RoutePriority(base, ones, vr.vlanTagged())

	match := ofctl.Match{VlanID: vr.vlanID, EthType: 0x0800}
	if !route.Dst.IsDefault() {
		match.NwDst = &net.IPNet{IP: route.Dst.IP, Mask: route.Dst.Mask()}
	}
	if route.AddressID != 0 && !route.Src.IsDefault() {
		match.NwSrc = &net.IPNet{IP: route.Src.IP, Mask: route.Src.Mask()}
	}
	_ = vr.ctl.SetPacketinFlow(cookie, priority, match)
	vr.countFlowInstall("route")
}

func (vr *VlanRouter) setDHCPServers(servers []string) CommandResult {
	ips := make([]net.IP, 0, len(servers))
	for _, s := range servers {
		ip, err := netaddr.ParseIPv4(s)
		if err != nil {
			return failure(err.Error())
		}
		ips = append(ips, ip)
	}
	vr.policy.DHCPServers = ips
	return success("Set DHCP servers")
}

// DeleteRequest mirrors §6 DELETE bodies.
type DeleteRequest struct {
	AddressID *DeleteTarget `json:"address_id,omitempty"`
	RouteID   *DeleteTarget `json:"route_id,omitempty"`
}

// DeleteTarget is either a specific numeric id or the literal "all".
type DeleteTarget struct {
	All bool
	ID  uint32
}

// DeleteData dispatches a DELETE body (§4.3 delete_data).
func (vr *VlanRouter) DeleteData(req DeleteRequest) []CommandResult {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	if req.AddressID != nil {
		return vr.deleteAddresses(*req.AddressID)
	}
	if req.RouteID != nil {
		return vr.deleteRoutes(*req.RouteID)
	}
	return []CommandResult{failure("no recognised operation in request")}
}

func (vr *VlanRouter) deleteAddresses(target DeleteTarget) []CommandResult {
	ids := []uint32{target.ID}
	if target.All {
		ids = nil
		for _, a := range vr.addresses.All() {
			ids = append(ids, a.ID)
		}
	}

	var results []CommandResult
	for _, id := range ids {
		results = append(results, vr.deleteOneAddress(id))
	}
	return results
}

func (vr *VlanRouter) deleteOneAddress(id uint32) CommandResult {
	addr, ok := vr.addresses.Get(id)
	if !ok {
		return failure("unknown address_id")
	}
	for _, r := range vr.policy.All() {
		if addr.Network.Contains(r.Gateway) {
			return failure("Skip delete (related route exist) [address_id=" + strconv.FormatUint(uint64(id), 10) + "]")
		}
	}

	vr.deleteFlowsByPredicate(func(cookie uint64) bool {
		v, _, a := ofctl.DecodeCookie(cookie)
		return v == vr.vlanID && a == uint16(id)
	})

	vr.suspended.CancelWhere(func(p *suspend.Packet) bool { return addr.Network.Contains(p.DstIP) })
	vr.observeSuspendedQueueLen()

	_, _ = vr.addresses.Delete(id)
	return success("Delete address [address_id=" + strconv.FormatUint(uint64(id), 10) + "]")
}

func (vr *VlanRouter) deleteRoutes(target DeleteTarget) []CommandResult {
	ids := []uint32{target.ID}
	if target.All {
		ids = nil
		for _, r := range vr.policy.All() {
			ids = append(ids, r.ID)
		}
	}

	var results []CommandResult
	for _, id := range ids {
		results = append(results, vr.deleteOneRoute(id))
	}
	return results
}

func (vr *VlanRouter) deleteOneRoute(id uint32) CommandResult {
	route, err := vr.policy.Delete(id)
	if err != nil {
		return failure(err.Error())
	}

	vr.deleteFlowsByPredicate(func(cookie uint64) bool {
		v, r, _ := ofctl.DecodeCookie(cookie)
		return v == vr.vlanID && r == uint16(id)
	})

	if route.IsDefault() {
		vr.installDefaultDrop()
	}

	vr.policy.GCSubnetTables()
	return success("Delete route [route_id=" + strconv.FormatUint(uint64(id), 10) + "]")
}

func (vr *VlanRouter) installDefaultDrop() {
	cookie := ofctl.EncodeCookie(vr.vlanID, 0, 0)
	match := ofctl.Match{VlanID: vr.vlanID, EthType: 0x0800}
	_ = vr.ctl.SetPacketinFlow(cookie, ofctl.PriorityDefRoute, match)
	vr.countFlowInstall("default_drop")
}

func (vr *VlanRouter) deleteFlowsByPredicate(matches func(cookie uint64) bool) {
	flows := vr.ctl.GetAllFlow(vr.waiters)
	for _, f := range flows {
		if matches(f.Cookie) {
			_ = vr.ctl.DeleteFlow(f)
			if vr.metrics != nil {
				vr.metrics.FlowDeleteTotal.WithLabelValues(vr.dpidHex()).Inc()
			}
		}
	}
}

func (vr *VlanRouter) allPortNumbers() []uint32 {
	ports := vr.ports.All()
	out := make([]uint32, 0, len(ports))
	for _, p := range ports {
		out = append(out, p.PortNo)
	}
	return out
}

// AddressView and RouteView are the GET response shapes (§4.3 get_data,
// §6).
type AddressView struct {
	AddressID uint32 `json:"address_id"`
	Address   string `json:"address"`
}

type RouteView struct {
	RouteID    uint32 `json:"route_id"`
	Destination string `json:"destination"`
	Gateway     string `json:"gateway"`
	GatewayMAC  string `json:"gateway_mac,omitempty"`
	Source      string `json:"source,omitempty"`
}

// GetData renders the current address and route tables (§4.3 get_data).
func (vr *VlanRouter) GetData() ([]AddressView, []RouteView) {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	addrs := make([]AddressView, 0, vr.addresses.Len())
	for _, a := range vr.addresses.All() {
		addrs = append(addrs, AddressView{AddressID: a.ID, Address: fmt.Sprintf("%s/%d", a.Gateway, a.Network.Bits)})
	}

	routes := make([]RouteView, 0)
	for _, r := range vr.policy.All() {
		rv := RouteView{RouteID: r.ID, Destination: r.Dst.String(), Gateway: r.Gateway.String()}
		if r.HasGatewayMAC() {
			rv.GatewayMAC = r.GatewayMAC.String()
		}
		if !r.Src.IsDefault() {
			rv.Source = r.Src.String()
		}
		routes = append(routes, rv)
	}

	// addresses.All()/policy.All() range over maps; sort so repeated GETs
	// with no intervening mutation return a byte-identical body (§8).
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].AddressID < addrs[j].AddressID })
	sort.Slice(routes, func(i, j int) bool { return routes[i].RouteID < routes[j].RouteID })

	return addrs, routes
}

