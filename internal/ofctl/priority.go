// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ofctl

// Base priority values (§3). Larger always wins; the scheme guarantees
// addressed beats unaddressed, static beats default, longer prefix beats
// shorter, and VLAN-scoped beats non-VLAN-scoped at the same class.
const (
	PriorityARP             uint16 = 1
	PriorityDefRoute        uint16 = 1
	PriorityAddrDefRoute    uint16 = 2
	PriorityMACLearn        uint16 = 3
	PriorityStaticRoute     uint16 = 3
	PriorityAddrStaticRoute uint16 = 4
	PriorityImplicit        uint16 = 5
	PriorityL2              uint16 = 6
	PriorityIPHandling      uint16 = 7

	vlanTaggedBonus      uint16 = 1000
	aboveAddrStaticBonus uint16 = 32
)

// RoutePriority computes the installed priority for a route rule: base +
// dst_netmask, plus the "above ADDR_STATIC_ROUTE" bonus when base exceeds
// PriorityAddrStaticRoute, plus the VLAN-tagged bonus when vlanTagged is
// true. base is one of PriorityDefRoute/PriorityStaticRoute/
// PriorityAddrStaticRoute depending on whether the route is a default
// route and whether it carries an address_id.
func RoutePriority(base uint16, dstNetmask int, vlanTagged bool) uint16 {
	p := base + uint16(dstNetmask)
	if base > PriorityAddrStaticRoute {
		p += aboveAddrStaticBonus
	}
	if vlanTagged {
		p += vlanTaggedBonus
	}
	return p
}

// RouteBasePriority picks the base class for a route given whether it is
// the default route and whether it is source/address-qualified.
func RouteBasePriority(isDefault bool, addressed bool) uint16 {
	switch {
	case isDefault && addressed:
		return PriorityAddrDefRoute
	case isDefault:
		return PriorityDefRoute
	case addressed:
		return PriorityAddrStaticRoute
	default:
		return PriorityStaticRoute
	}
}

// IPHandlingPriority computes the priority for the per-address IP-handling
// packet-in flow (dst=default_gw/32), which always carries the
// IP-handling bonus (the same +1000 a VLAN-tagged rule gets, applied once
// whether or not vlanTagged is set) plus the above-ADDR_STATIC_ROUTE bonus.
func IPHandlingPriority(vlanTagged bool) uint16 {
	return PriorityIPHandling + vlanTaggedBonus + aboveAddrStaticBonus
}

// MACLearnPriority computes the priority for the per-address MAC-learning
// packet-in flow (dst=nw_addr/mask).
func MACLearnPriority(vlanTagged bool) uint16 {
	p := PriorityMACLearn
	if vlanTagged {
		p += vlanTaggedBonus
	}
	return p
}

// ImplicitPriority computes the priority for a host-learned implicit
// routing flow, including the above-ADDR_STATIC_ROUTE bonus.
func ImplicitPriority(vlanTagged bool) uint16 {
	p := PriorityImplicit + aboveAddrStaticBonus
	if vlanTagged {
		p += vlanTaggedBonus
	}
	return p
}

// ARPPriority computes the priority for the ARP-capture flow.
func ARPPriority(vlanTagged bool) uint16 {
	p := PriorityARP
	if vlanTagged {
		p += vlanTaggedBonus
	}
	return p
}
