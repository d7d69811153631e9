// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package routing

import (
	"net"

	flerrors "github.com/yaoyj11/plexus/internal/errors"
	"github.com/yaoyj11/plexus/internal/netaddr"
)

// RoutingTable maps destination CIDR to Route, scoped to one source subnet
// (or to "any source" when SrcAddress is the zero prefix / absent). It
// implements the longest-prefix-match lookup described in §4.2 and §8
// invariant 3.
type RoutingTable struct {
	srcAddress *netaddr.Prefix // nil for the any-source table
	routes     map[string]*Route
}

// NewRoutingTable builds a table scoped to src (nil for the any-source table).
func NewRoutingTable(src *netaddr.Prefix) *RoutingTable {
	return &RoutingTable{srcAddress: src, routes: make(map[string]*Route)}
}

// SrcAddress returns the source-subnet this table is scoped to, or nil for
// the any-source table.
func (t *RoutingTable) SrcAddress() *netaddr.Prefix {
	return t.srcAddress
}

// Add inserts route, keyed by its destination CIDR. Fails if that
// destination is already present in this table (§3 invariant: unique
// destination CIDRs within a source-qualified table).
func (t *RoutingTable) Add(route *Route) error {
	key := route.Dst.String()
	if _, exists := t.routes[key]; exists {
		return flerrors.Errorf(flerrors.KindConflict, "destination %s already routed in this table", key)
	}
	t.routes[key] = route
	return nil
}

// Delete removes a route by id, reporting whether it was present.
func (t *RoutingTable) Delete(id uint32) bool {
	for key, r := range t.routes {
		if r.ID == id {
			delete(t.routes, key)
			return true
		}
	}
	return false
}

// Get returns the route with the given id, if any.
func (t *RoutingTable) Get(id uint32) (*Route, bool) {
	for _, r := range t.routes {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// All returns every route in the table, order unspecified.
func (t *RoutingTable) All() []*Route {
	out := make([]*Route, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r)
	}
	return out
}

// Empty reports whether the table holds no routes.
func (t *RoutingTable) Empty() bool {
	return len(t.routes) == 0
}

// LookupLongestPrefix returns the route whose destination prefix contains ip
// with the longest mask. A mask of 0 only matches the explicit default
// route, never "any destination" implicitly (§4.2).
func (t *RoutingTable) LookupLongestPrefix(ip net.IP) (*Route, bool) {
	var best *Route
	for _, r := range t.routes {
		if !r.Dst.Contains(ip) {
			continue
		}
		if best == nil || r.Dst.Bits > best.Dst.Bits {
			best = r
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// LookupByGatewayMAC linear-scans for a route whose resolved next-hop MAC
// equals mac (§4.2 get_data with gw_mac). The ARP-reply path does not use
// it; it matches routes by gateway IP instead.
func (t *RoutingTable) LookupByGatewayMAC(mac net.HardwareAddr) (*Route, bool) {
	for _, r := range t.routes {
		if r.HasGatewayMAC() && sameMAC(r.GatewayMAC, mac) {
			return r, true
		}
	}
	return nil, false
}

func sameMAC(a, b net.HardwareAddr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
