// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ofctl

// The wire codec itself is out of scope (§1): these message types are the
// boundary handed to ofp.Datapath.SendMessage. A real deployment's OF
// wire layer type-switches on them to produce FLOW_MOD / PACKET_OUT /
// SET_CONFIG / STATS_REQUEST wire bytes for the negotiated version.

// FlowModMessage requests installing (Delete=false) or removing
// (Delete=true) a flow entry.
type FlowModMessage struct {
	Table  uint8
	Delete bool
	Flow   FlowMod
}

// PacketOutMessage requests emitting a raw frame out one or more ports.
type PacketOutMessage struct {
	InPort uint32 // the port the triggering packet-in arrived on, or 0
	Ports  []uint32
	Data   []byte
}

// SetConfigMessage requests a switch configuration change.
type SetConfigMessage struct {
	MissSendLen  uint16
	InvalidTTLToController bool
}

// StatsRequestMessage requests an unfiltered dump of every flow's stats.
type StatsRequestMessage struct {
	XID uint32
}
