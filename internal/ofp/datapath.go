// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ofp declares the boundary between this controller and the
// OpenFlow wire codec / switch-session manager it runs on top of. That
// codec — framing, the echo/hello handshake, per-connection XID bookkeeping,
// demultiplexing raw OFPT_* messages into Go events — is an external
// collaborator and out of scope here (§1). This package only names the
// shapes that collaborator is expected to hand us: a Datapath handle, its
// port inventory, and the two event types (packet-in, stats-reply) our
// pipeline and coordinator react to.
package ofp

import (
	"net"
	"time"
)

// Version identifies the OpenFlow wire version spoken by a Datapath.
type Version int

const (
	VersionUnknown Version = iota
	Version10
	Version12
	Version13
)

func (v Version) String() string {
	switch v {
	case Version10:
		return "1.0"
	case Version12:
		return "1.2"
	case Version13:
		return "1.3"
	default:
		return "unknown"
	}
}

// Port is one switch port as reported by the session's features/port-desc reply.
type Port struct {
	PortNo uint32
	HWAddr net.HardwareAddr
	Name   string
}

// Datapath is the handle the switch-session manager hands the controller for
// one connected switch. Everything on it is provided by that external layer;
// this controller only calls it, never implements it in production (tests
// supply a fake).
type Datapath interface {
	ID() uint64
	Version() Version
	Ports() []Port
	// NumTables reports how many flow tables the switch advertised in its
	// features reply. OfCtl uses this to decide whether IP-matching flows
	// can live in table 1 or must collapse into table 0 (§4.5).
	NumTables() int
	// NextXID allocates a fresh transaction id, unique for the lifetime of
	// this connection, for correlating a stats request with its reply.
	NextXID() uint32
	// SendMessage hands a version-specific message (built by package ofctl)
	// to the session for wire encoding and transmission. Fire-and-forget for
	// flow-mods and packet-outs; for stats requests the caller separately
	// waits on the reply via the Waiters coordinator.
	SendMessage(msg any) error
}

// PacketInReason mirrors the OFPR_* / OFPR_INVALID_TTL reason codes that
// matter to this controller; other reasons are treated as ReasonAction.
type PacketInReason int

const (
	ReasonNoMatch PacketInReason = iota
	ReasonAction
	ReasonInvalidTTL
)

// PacketIn is the decoded packet-in event delivered by the switch session.
type PacketIn struct {
	DatapathID uint64
	InPort     uint32
	Reason     PacketInReason
	Data       []byte // raw Ethernet frame, VLAN tag included if present
}

// FlowStats is one entry of a multi-part flow-stats reply, already
// flattened to the fields ofctl's cookie scheme and delete-by-match care
// about.
type FlowStats struct {
	Cookie   uint64
	Priority uint16
	// Match fields relevant to delete-by-exact-match (§4.5 delete_flow).
	VlanID  uint16 // 0 = untagged / VLANID_NONE
	EthType uint16
	NwSrc   *net.IPNet
	NwDst   *net.IPNet
}

// StatsReply is one fragment of a (possibly multi-part) flow-stats reply,
// correlated to its request by XID.
type StatsReply struct {
	DatapathID uint64
	XID        uint32
	Flows      []FlowStats
	// More reports OFPMPF_REPLY_MORE (1.3) / OFPSF_REPLY_MORE (1.0/1.2):
	// another fragment for this XID is still coming.
	More bool
}

// StatsRequestTimeout bounds how long send_stats_request blocks for replies (§4.5).
const StatsRequestTimeout = 1 * time.Second
