// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package routing

import (
	"net"

	flerrors "github.com/yaoyj11/plexus/internal/errors"
	"github.com/yaoyj11/plexus/internal/netaddr"
)

// GatewayInfo is one (gateway IP, resolved MAC) pair, flattened across every
// table for the ARP sweeper (§4.4).
type GatewayInfo struct {
	IP  net.IP
	MAC net.HardwareAddr
}

// PolicyRoutingTable is the per-VLAN collection of RoutingTables: one
// "any source" table that always exists, plus source-subnet-qualified
// tables created lazily on first insert (§3, §4.2). route_id is allocated
// from a single counter shared across every table it owns.
type PolicyRoutingTable struct {
	any    *RoutingTable
	bySrc  map[string]*RoutingTable // keyed by src prefix string
	nextID uint32

	// DHCPServers is the list set via {"dhcp_servers": [...]} (§4.3, §9.1).
	DHCPServers []net.IP
}

// NewPolicyRoutingTable builds a table with just the any-source table.
func NewPolicyRoutingTable() *PolicyRoutingTable {
	return &PolicyRoutingTable{
		any:   NewRoutingTable(nil),
		bySrc: make(map[string]*RoutingTable),
	}
}

func (p *PolicyRoutingTable) allocID() uint32 {
	for {
		p.nextID++
		if p.nextID == 0 {
			p.nextID = 1
		}
		if !p.idInUse(p.nextID) {
			return p.nextID
		}
	}
}

func (p *PolicyRoutingTable) idInUse(id uint32) bool {
	if _, ok := p.any.Get(id); ok {
		return true
	}
	for _, t := range p.bySrc {
		if _, ok := t.Get(id); ok {
			return true
		}
	}
	return false
}

// tableFor returns the RoutingTable scoped to src, creating it if src is
// non-nil and not yet present.
func (p *PolicyRoutingTable) tableFor(src *netaddr.Prefix, create bool) *RoutingTable {
	if src == nil || src.IsDefault() {
		return p.any
	}
	key := src.String()
	t, ok := p.bySrc[key]
	if !ok {
		if !create {
			return nil
		}
		t = NewRoutingTable(src)
		p.bySrc[key] = t
	}
	return t
}

// Add allocates a route id and inserts a new Route for (dst, gateway),
// scoped to src (nil/default = any-source). Gateway-validity (must sit
// inside a local Address, must not equal that Address's default_gw) is the
// VlanRouter's job (§4.2: "caller enforces"); this method only owns
// id allocation and the unique-destination invariant.
func (p *PolicyRoutingTable) Add(dst netaddr.Prefix, gateway net.IP, src *netaddr.Prefix, addressID uint32) (*Route, error) {
	table := p.tableFor(src, true)
	route := &Route{
		ID:        p.allocID(),
		Dst:       dst,
		Gateway:   gateway,
		AddressID: addressID,
	}
	if src != nil {
		route.Src = *src
	} else {
		route.Src = netaddr.Default()
	}
	if err := table.Add(route); err != nil {
		return nil, err
	}
	return route, nil
}

// GetData implements the lookup described in §4.2: pick the table for
// srcIP (or any-source if srcIP is zero), then resolve by gwMAC, or by
// longest-prefix dstIP match, falling back to the any-source table on a
// miss in a source-qualified one.
func (p *PolicyRoutingTable) GetData(gwMAC net.HardwareAddr, dstIP net.IP, srcIP net.IP) (*Route, bool) {
	table := p.any
	usingSubnet := false
	if srcIP != nil {
		for _, t := range p.bySrc {
			if t.srcAddress != nil && t.srcAddress.Contains(srcIP) {
				table = t
				usingSubnet = true
				break
			}
		}
	}

	find := func(t *RoutingTable) (*Route, bool) {
		if gwMAC != nil {
			return t.LookupByGatewayMAC(gwMAC)
		}
		if dstIP != nil {
			return t.LookupLongestPrefix(dstIP)
		}
		return nil, false
	}

	if route, ok := find(table); ok {
		return route, true
	}
	if usingSubnet {
		return find(p.any)
	}
	return nil, false
}

// Delete removes a route by id from whichever table holds it.
func (p *PolicyRoutingTable) Delete(id uint32) (*Route, error) {
	if route, ok := p.any.Get(id); ok {
		p.any.Delete(id)
		return route, nil
	}
	for _, t := range p.bySrc {
		if route, ok := t.Get(id); ok {
			t.Delete(id)
			return route, nil
		}
	}
	return nil, flerrors.Errorf(flerrors.KindNotFound, "route id %d not found", id)
}

// Get returns the route with the given id from whichever table holds it.
func (p *PolicyRoutingTable) Get(id uint32) (*Route, bool) {
	if route, ok := p.any.Get(id); ok {
		return route, true
	}
	for _, t := range p.bySrc {
		if route, ok := t.Get(id); ok {
			return route, true
		}
	}
	return nil, false
}

// All returns every route across every table.
func (p *PolicyRoutingTable) All() []*Route {
	out := append([]*Route{}, p.any.All()...)
	for _, t := range p.bySrc {
		out = append(out, t.All()...)
	}
	return out
}

// AnyTable returns the always-present any-source table.
func (p *PolicyRoutingTable) AnyTable() *RoutingTable {
	return p.any
}

// GCSubnetTables drops empty source-qualified tables, never the any-source one.
func (p *PolicyRoutingTable) GCSubnetTables() {
	for key, t := range p.bySrc {
		if t.Empty() {
			delete(p.bySrc, key)
		}
	}
}

// AllGatewayInfo flattens (gateway_ip, gateway_mac) across every table, used
// by the ARP sweeper (§4.4).
func (p *PolicyRoutingTable) AllGatewayInfo() []GatewayInfo {
	seen := make(map[string]bool)
	var out []GatewayInfo
	add := func(r *Route) {
		key := r.Gateway.String()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, GatewayInfo{IP: r.Gateway, MAC: r.GatewayMAC})
	}
	for _, r := range p.any.All() {
		add(r)
	}
	for _, t := range p.bySrc {
		for _, r := range t.All() {
			add(r)
		}
	}
	return out
}
