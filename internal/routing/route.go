// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package routing

import (
	"net"

	"github.com/yaoyj11/plexus/internal/netaddr"
)

// Route is one static or default route (§3). GatewayMAC starts nil and is
// filled in lazily the first time an ARP reply is observed from GatewayIP
// (§4.3 packet-in ARP handling, step "Route-table update").
type Route struct {
	ID         uint32
	Dst        netaddr.Prefix // 0.0.0.0/0 for the default route
	Gateway    net.IP
	GatewayMAC net.HardwareAddr
	Src        netaddr.Prefix // 0.0.0.0/0 when no source qualifier was given
	// AddressID is set when the route was created with an explicit
	// address_id (source-qualified route, §4.3); 0 means "no source address".
	AddressID uint32
}

// IsDefault reports whether this is the 0.0.0.0/0 destination (default route).
func (r *Route) IsDefault() bool {
	return r.Dst.IsDefault()
}

// HasGatewayMAC reports whether ARP resolution has completed for this route.
func (r *Route) HasGatewayMAC() bool {
	return len(r.GatewayMAC) == 6
}
