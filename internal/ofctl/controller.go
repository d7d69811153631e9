// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ofctl

import (
	"fmt"
	"net"

	"github.com/yaoyj11/plexus/internal/logging"
	"github.com/yaoyj11/plexus/internal/ofp"
)

// OfCtl is the version-neutral contract exposed to VlanRouter/Router
// (§4.5). One instance is bound to one datapath for its lifetime.
type OfCtl interface {
	ClearFlows() error
	SetSwConfigForTTL() error
	GetAllFlow(waiters *ofp.Waiters) []ofp.FlowStats

	SetPacketinFlow(cookie uint64, priority uint16, match Match) error
	SetRoutingFlow(cookie uint64, priority uint16, outPort uint32, match Match, srcMAC, dstMAC net.HardwareAddr, idleTimeout uint16, decTTL bool) error
	DeleteFlow(flow ofp.FlowStats) error

	SendARPRequest(vlanID uint16, srcMAC net.HardwareAddr, srcIP, targetIP net.IP, outPort uint32) error
	SendARPReply(vlanID uint16, srcMAC net.HardwareAddr, srcIP net.IP, dstMAC net.HardwareAddr, dstIP net.IP, outPort uint32) error
	SendICMP(vlanID uint16, srcMAC, dstMAC net.HardwareAddr, payload []byte, outPort uint32) error
	SendDHCPDiscover(vlanID uint16, srcMAC net.HardwareAddr) error
	SendPacketOut(data []byte, inPort uint32, ports []uint32) error

	GetPacketinInport(pin ofp.PacketIn) uint32
}

// Factory selects the OfCtl implementation for dp's negotiated version
// (§4.5 "version registration"). For any other version it logs a warning
// and returns an "unsupported OpenFlow version" error.
func Factory(dp ofp.Datapath) (OfCtl, error) {
	switch dp.Version() {
	case ofp.Version10:
		return &controller{dp: dp, decTTLAvailable: false}, nil
	case ofp.Version12, ofp.Version13:
		return &controller{dp: dp, decTTLAvailable: true}, nil
	default:
		err := fmt.Errorf("ofctl: unsupported OpenFlow version %s on datapath %016x", dp.Version(), dp.ID())
		logging.WithComponent("ofctl").Warn("rejecting switch join", "error", err)
		return nil, err
	}
}

// controller is the shared implementation across 1.0/1.2/1.3: the match
// vocabulary and table-selection logic are version-neutral at this layer
// (§4.5); decTTLAvailable gates whether SetRoutingFlow honours dec_ttl.
type controller struct {
	dp              ofp.Datapath
	decTTLAvailable bool
}

func (c *controller) ClearFlows() error {
	return c.dp.SendMessage(FlowModMessage{Delete: true, Flow: FlowMod{}})
}

func (c *controller) SetSwConfigForTTL() error {
	if !c.decTTLAvailable {
		return nil
	}
	return c.dp.SendMessage(SetConfigMessage{InvalidTTLToController: true})
}

func (c *controller) GetAllFlow(waiters *ofp.Waiters) []ofp.FlowStats {
	return waiters.RequestFlowStats(c.dp, func(xid uint32) any {
		return StatsRequestMessage{XID: xid}
	})
}

func (c *controller) SetPacketinFlow(cookie uint64, priority uint16, match Match) error {
	table := TableForMatch(match, c.dp.NumTables())
	flow := FlowMod{Cookie: cookie, Priority: priority, Match: match, Actions: Actions{OutputController: true}}
	return c.dp.SendMessage(FlowModMessage{Table: table, Flow: flow})
}

// SetRoutingFlow installs a routing flow. decTTL is opt-in (§4.5): even on
// a datapath where decTTLAvailable, a caller must ask for it explicitly, and
// a request is downgraded to false when the version can't honour it.
func (c *controller) SetRoutingFlow(cookie uint64, priority uint16, outPort uint32, match Match, srcMAC, dstMAC net.HardwareAddr, idleTimeout uint16, decTTL bool) error {
	table := TableForMatch(match, c.dp.NumTables())
	flow := FlowMod{
		Cookie:             cookie,
		Priority:           priority,
		Match:              match,
		IdleTimeoutSeconds: idleTimeout,
		Actions: Actions{
			OutputPort: outPort,
			SetSrcMAC:  srcMAC,
			SetDstMAC:  dstMAC,
			DecTTL:     decTTL && c.decTTLAvailable,
		},
	}
	return c.dp.SendMessage(FlowModMessage{Table: table, Flow: flow})
}

func (c *controller) DeleteFlow(flow ofp.FlowStats) error {
	match := Match{VlanID: flow.VlanID, EthType: flow.EthType, NwSrc: flow.NwSrc, NwDst: flow.NwDst}
	table := TableForMatch(match, c.dp.NumTables())
	return c.dp.SendMessage(FlowModMessage{
		Table:  table,
		Delete: true,
		Flow:   FlowMod{Cookie: flow.Cookie, Priority: flow.Priority, Match: match},
	})
}

func (c *controller) SendARPRequest(vlanID uint16, srcMAC net.HardwareAddr, srcIP, targetIP net.IP, outPort uint32) error {
	data, err := BuildARPRequest(vlanID, srcMAC, srcIP, targetIP)
	if err != nil {
		return err
	}
	return c.SendPacketOut(data, 0, c.outPortsOrFlood(outPort))
}

func (c *controller) SendARPReply(vlanID uint16, srcMAC net.HardwareAddr, srcIP net.IP, dstMAC net.HardwareAddr, dstIP net.IP, outPort uint32) error {
	data, err := BuildARPReply(vlanID, srcMAC, srcIP, dstMAC, dstIP)
	if err != nil {
		return err
	}
	return c.SendPacketOut(data, 0, []uint32{outPort})
}

func (c *controller) SendICMP(vlanID uint16, srcMAC, dstMAC net.HardwareAddr, payload []byte, outPort uint32) error {
	return c.SendPacketOut(payload, 0, []uint32{outPort})
}

func (c *controller) SendDHCPDiscover(vlanID uint16, srcMAC net.HardwareAddr) error {
	data, err := BuildDHCPDiscover(vlanID, srcMAC)
	if err != nil {
		return err
	}
	return c.SendPacketOut(data, 0, c.allPorts())
}

func (c *controller) SendPacketOut(data []byte, inPort uint32, ports []uint32) error {
	return c.dp.SendMessage(PacketOutMessage{InPort: inPort, Ports: ports, Data: data})
}

func (c *controller) GetPacketinInport(pin ofp.PacketIn) uint32 {
	return pin.InPort
}

func (c *controller) outPortsOrFlood(outPort uint32) []uint32 {
	if outPort != 0 {
		return []uint32{outPort}
	}
	return c.allPorts()
}

func (c *controller) allPorts() []uint32 {
	ports := c.dp.Ports()
	out := make([]uint32, 0, len(ports))
	for _, p := range ports {
		out = append(out, p.PortNo)
	}
	return out
}

