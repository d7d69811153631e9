// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ofctl

import "net"

// Match is the version-neutral match vocabulary every flow builder works
// against; version-specific controllers translate it to OF 1.0 wildcard
// bitmasks or OF 1.2/1.3 OXM fields.
type Match struct {
	VlanID  uint16 // 0 = untagged / no-VLAN slot
	EthType uint16 // 0 = wildcard
	NwSrc   *net.IPNet
	NwDst   *net.IPNet
	IPProto uint8 // 0 = wildcard
}

// HasIPFields reports whether the match constrains any IP-specific field,
// the condition that routes a flow to table 1 (§4.5 table selection).
func (m Match) HasIPFields() bool {
	return m.NwSrc != nil || m.NwDst != nil || m.IPProto != 0
}

// Actions describes the forwarding behaviour of an installed routing
// flow. An empty Actions with OutputController true means "send to
// controller" (a packet-in flow); OutputPort with SrcMAC/DstMAC set means
// "rewrite and forward".
type Actions struct {
	OutputController bool
	OutputAll        bool
	OutputPort       uint32 // valid when neither of the above is set
	SetSrcMAC        net.HardwareAddr
	SetDstMAC        net.HardwareAddr
	DecTTL           bool
}

// FlowMod is a fully-specified flow entry: what to match, at what
// priority, tagged with which cookie, doing what.
type FlowMod struct {
	Cookie   uint64
	Priority uint16
	Match    Match
	Actions  Actions
	// IdleTimeoutSeconds is 0 for permanent flows, 300 for implicit
	// host-learned flows (§4.3 host learning).
	IdleTimeoutSeconds uint16
}

// TableForMatch implements the table-0-vs-table-1 selection described in
// §4.5: L2-only matches go to table 0, IP-field matches go to table 1,
// collapsing to table 0 when the datapath advertises a single table
// (Arista/Cisco compatibility).
func TableForMatch(m Match, numTables int) uint8 {
	if numTables <= 1 {
		return 0
	}
	if m.HasIPFields() {
		return 1
	}
	return 0
}
