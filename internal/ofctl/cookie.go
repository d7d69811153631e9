// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ofctl is the version-abstracted OpenFlow translator (§4.5): it
// turns routing state into flow entries and packet-in/stats-reply events
// back into routing identities, via the cookie scheme and priority scheme
// of §3.
package ofctl

// EncodeCookie packs (vlanID, addressID, routeID) into the 64-bit cookie
// layout of §3: bits 63-32 = vlan_id, bits 31-16 = route_id, bits 15-0 =
// address_id. A "default" rule for a VLAN carries only vlanID encoded,
// addressID and routeID both zero.
func EncodeCookie(vlanID uint16, routeID uint16, addressID uint16) uint64 {
	return uint64(vlanID)<<32 | uint64(routeID)<<16 | uint64(addressID)
}

// DecodeCookie is the inverse of EncodeCookie.
func DecodeCookie(cookie uint64) (vlanID uint16, routeID uint16, addressID uint16) {
	vlanID = uint16(cookie >> 32)
	routeID = uint16((cookie & 0xFFFFFFFF) >> 16)
	addressID = uint16(cookie & 0xFFFF)
	return vlanID, routeID, addressID
}

// CookieVlan extracts only the vlan_id field, used to filter flow-stats
// replies down to one VLAN's entries (§4.3 delete_data).
func CookieVlan(cookie uint64) uint16 {
	return uint16(cookie >> 32)
}

// CookieAddress extracts only the address_id field.
func CookieAddress(cookie uint64) uint16 {
	return uint16(cookie & 0xFFFF)
}

// CookieRoute extracts only the route_id field.
func CookieRoute(cookie uint64) uint16 {
	return uint16((cookie & 0xFFFFFFFF) >> 16)
}
