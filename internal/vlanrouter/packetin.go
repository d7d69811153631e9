// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package vlanrouter

import (
	"net"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/yaoyj11/plexus/internal/ofctl"
	"github.com/yaoyj11/plexus/internal/ofp"
	"github.com/yaoyj11/plexus/internal/routing"
	"github.com/yaoyj11/plexus/internal/suspend"
)

// parsed is the tagged record described in §9 "runtime header-class
// discovery": populated by presence, classified by which fields are set
// rather than by a type-name string.
type parsed struct {
	eth  *layers.Ethernet
	vlan *layers.Dot1Q
	arp  *layers.ARP
	ip   *layers.IPv4
	icmp *layers.ICMPv4
	udp  *layers.UDP
}

func classify(data []byte) parsed {
	var p parsed
	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	if l := pkt.Layer(layers.LayerTypeEthernet); l != nil {
		p.eth = l.(*layers.Ethernet)
	}
	if l := pkt.Layer(layers.LayerTypeDot1Q); l != nil {
		p.vlan = l.(*layers.Dot1Q)
	}
	if l := pkt.Layer(layers.LayerTypeARP); l != nil {
		p.arp = l.(*layers.ARP)
	}
	if l := pkt.Layer(layers.LayerTypeIPv4); l != nil {
		p.ip = l.(*layers.IPv4)
	}
	if l := pkt.Layer(layers.LayerTypeICMPv4); l != nil {
		p.icmp = l.(*layers.ICMPv4)
	}
	if l := pkt.Layer(layers.LayerTypeUDP); l != nil {
		p.udp = l.(*layers.UDP)
	}
	return p
}

// HandlePacketIn is the central dispatcher (§4.3 "Packet-in handling").
// INVALID_TTL is filtered first; otherwise the packet is classified by its
// topmost non-VLAN protocol. Malformed packets that fail to classify into
// any known protocol are silently dropped (§7).
func (vr *VlanRouter) HandlePacketIn(pin ofp.PacketIn) {
	if vr.bare {
		return
	}
	if pin.Reason == ofp.ReasonInvalidTTL {
		vr.countPacketIn("invalid_ttl")
		vr.handleInvalidTTL(pin)
		return
	}

	p := classify(pin.Data)
	switch {
	case p.arp != nil:
		vr.countPacketIn("arp")
		vr.handleARP(pin, p)
	case p.ip != nil:
		vr.countPacketIn("ipv4")
		vr.handleIPv4(pin, p)
	default:
		vr.countPacketIn("unclassified")
	}
}

func (vr *VlanRouter) countPacketIn(kind string) {
	if vr.metrics == nil {
		return
	}
	vr.metrics.PacketInTotal.WithLabelValues(vr.dpidHex(), kind).Inc()
}

func (vr *VlanRouter) handleInvalidTTL(pin ofp.PacketIn) {
	p := classify(pin.Data)
	if p.ip == nil || p.eth == nil {
		return
	}
	vr.mu.Lock()
	srcAddr, ok := vr.addresses.GetByIP(p.ip.SrcIP)
	vr.mu.Unlock()
	if !ok {
		return
	}

	data, err := ofctl.BuildICMPTimeExceeded(vr.vlanID, p.eth.DstMAC, p.eth.SrcMAC, srcAddr.Gateway, p.ip.SrcIP, rawIPAndPayload(p))
	if err != nil {
		return
	}
	_ = vr.ctl.SendPacketOut(data, 0, []uint32{pin.InPort})
}

func rawIPAndPayload(p parsed) []byte {
	if p.ip == nil {
		return nil
	}
	return append(p.ip.Contents, p.ip.Payload...)
}

// handleARP implements §4.3's three ARP sub-behaviours: route-table
// update, host learning, and the protocol action itself.
func (vr *VlanRouter) handleARP(pin ofp.PacketIn, p parsed) {
	srcIP := net.IP(p.arp.SourceProtAddress)
	srcMAC := net.HardwareAddr(p.arp.SourceHwAddress)
	dstIP := net.IP(p.arp.DstProtAddress)

	vr.mu.Lock()
	_, inLocalAddress := vr.addresses.GetByIP(srcIP)
	if !inLocalAddress {
		vr.mu.Unlock()
		return
	}

	vr.updateRouteTable(srcIP, srcMAC, pin.InPort)
	vr.learnHost(srcIP, srcMAC, pin.InPort)
	vr.mu.Unlock()

	vr.takeARPProtocolAction(pin, p, srcIP, srcMAC, dstIP)
}

// updateRouteTable sets gateway_mac on every Route whose gateway equals
// srcIP and installs/overwrites its routing flow, plus a companion DHCP
// egress flow if this is also the default route's gateway.
func (vr *VlanRouter) updateRouteTable(srcIP net.IP, srcMAC net.HardwareAddr, inPort uint32) {
	routerMAC := vr.routerPortMAC()
	isDefaultGateway := false
	for _, route := range vr.policy.All() {
		if !route.Gateway.Equal(srcIP) {
			continue
		}
		route.GatewayMAC = srcMAC
		vr.installRoutingFlow(route, routerMAC, srcMAC, inPort)
		if route.IsDefault() {
			isDefaultGateway = true
		}
	}
	if isDefaultGateway {
		vr.installDHCPEgressFlow(inPort)
	}
}

func (vr *VlanRouter) installRoutingFlow(route *routing.Route, routerMAC, gatewayMAC net.HardwareAddr, outPort uint32) {
	cookie := ofctl.EncodeCookie(vr.vlanID, uint16(route.ID), uint16(route.AddressID))
	ones, _ := route.Dst.Mask().Size()
	base := ofctl.RouteBasePriority(route.IsDefault(), route.AddressID != 0)
	priority := ofctl.RoutePriority(base, ones, vr.vlanTagged())

	match := ofctl.Match{VlanID: vr.vlanID, EthType: 0x0800}
	if !route.Dst.IsDefault() {
		match.NwDst = &net.IPNet{IP: route.Dst.IP, Mask: route.Dst.Mask()}
	}
	if !route.Src.IsDefault() {
		match.NwSrc = &net.IPNet{IP: route.Src.IP, Mask: route.Src.Mask()}
	}
	_ = vr.ctl.SetRoutingFlow(cookie, priority, outPort, match, routerMAC, gatewayMAC, 0, false)
}

func (vr *VlanRouter) installDHCPEgressFlow(outPort uint32) {
	cookie := ofctl.EncodeCookie(vr.vlanID, 0, 0)
	match := ofctl.Match{
		VlanID:  vr.vlanID,
		EthType: 0x0800,
		NwSrc:   &net.IPNet{IP: net.IPv4zero, Mask: net.CIDRMask(32, 32)},
		NwDst:   &net.IPNet{IP: net.IPv4bcast, Mask: net.CIDRMask(32, 32)},
		IPProto: 17, // UDP
	}
	_ = vr.ctl.SetRoutingFlow(cookie, ofctl.PriorityIPHandling, outPort, match, nil, nil, 0, false)
}

// learnHost installs an implicit-routing rewrite flow for a non-router
// host observed via ARP (§4.3 "Host learning").
func (vr *VlanRouter) learnHost(srcIP net.IP, srcMAC net.HardwareAddr, inPort uint32) {
	if vr.addresses.IsDefaultGateway(srcIP) {
		return
	}
	routerMAC := vr.routerPortMAC()
	cookie := ofctl.EncodeCookie(vr.vlanID, 0, 0)
	match := ofctl.Match{VlanID: vr.vlanID, EthType: 0x0800, NwDst: &net.IPNet{IP: srcIP, Mask: net.CIDRMask(32, 32)}}
	_ = vr.ctl.SetRoutingFlow(cookie, ofctl.ImplicitPriority(vr.vlanTagged()), inPort, match, routerMAC, srcMAC, 300, false)
}

func (vr *VlanRouter) takeARPProtocolAction(pin ofp.PacketIn, p parsed, srcIP net.IP, srcMAC net.HardwareAddr, dstIP net.IP) {
	switch {
	case srcIP.Equal(dstIP):
		// Gratuitous ARP: flood.
		vr.floodRaw(pin)
	case p.arp.Operation == layers.ARPRequest && vr.isRouterIP(dstIP):
		vr.replyAsRouter(pin, srcMAC, srcIP, dstIP)
	case p.arp.Operation == layers.ARPReply && vr.isRouterIP(dstIP):
		vr.resolveSuspended(srcIP, srcMAC, pin.InPort)
	default:
		vr.mu.Lock()
		_, sameAddress := vr.addresses.GetByIP(dstIP)
		vr.mu.Unlock()
		if sameAddress {
			vr.floodRaw(pin)
		}
	}
}

func (vr *VlanRouter) isRouterIP(ip net.IP) bool {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	return vr.addresses.IsDefaultGateway(ip)
}

func (vr *VlanRouter) floodRaw(pin ofp.PacketIn) {
	_ = vr.ctl.SendPacketOut(pin.Data, pin.InPort, vr.allPortNumbers())
}

func (vr *VlanRouter) replyAsRouter(pin ofp.PacketIn, requesterMAC net.HardwareAddr, requesterIP, routerIP net.IP) {
	mac := vr.routerPortMAC()
	if mac == nil {
		return
	}
	_ = vr.ctl.SendARPReply(vr.vlanID, mac, routerIP, requesterMAC, requesterIP, pin.InPort)
}

// resolveSuspended implements §8 invariant 7: an ARP reply addressed to a
// router IP dequeues every suspended packet whose dst_ip is the reply's
// sender IP and resubmits it.
func (vr *VlanRouter) resolveSuspended(gatewayIP net.IP, gatewayMAC net.HardwareAddr, inPort uint32) {
	matched := vr.suspended.DequeueByDst(gatewayIP)
	vr.observeSuspendedQueueLen()
	for _, pkt := range matched {
		_ = vr.ctl.SendPacketOut(pkt.Data, 0, []uint32{pkt.InPort})
	}
}

// handleIPv4 implements the "IPv4 -> router port" and "IPv4 -> other"
// branches of §4.3.
func (vr *VlanRouter) handleIPv4(pin ofp.PacketIn, p parsed) {
	vr.mu.Lock()
	isRouterDst := vr.addresses.IsDefaultGateway(p.ip.DstIP)
	vr.mu.Unlock()

	if isRouterDst {
		vr.handleIPv4ToRouter(pin, p)
		return
	}
	vr.handleIPv4ToOther(pin, p)
}

func (vr *VlanRouter) handleIPv4ToRouter(pin ofp.PacketIn, p parsed) {
	routerMAC := vr.routerPortMAC()
	if routerMAC == nil || p.eth == nil {
		return
	}

	if p.icmp != nil {
		switch p.icmp.TypeCode.Type() {
		case layers.ICMPv4TypeEchoRequest:
			data, err := ofctl.BuildICMPEchoReply(vr.vlanID, routerMAC, p.eth.SrcMAC, p.ip.DstIP, p.ip.SrcIP, p.icmp.Id, p.icmp.Seq, p.icmp.Payload)
			if err == nil {
				_ = vr.ctl.SendPacketOut(data, 0, []uint32{pin.InPort})
			}
		case layers.ICMPv4TypeEchoReply:
			vr.log.Debug("icmp echo reply to router port observed", "src", p.ip.SrcIP.String())
		}
		return
	}

	// TCP (6) or UDP (17) to the router: unreachable.
	if p.ip.Protocol == 6 || p.ip.Protocol == 17 {
		code := ofctl.UnreachablePort
		data, err := ofctl.BuildICMPUnreachable(vr.vlanID, routerMAC, p.eth.SrcMAC, p.ip.DstIP, p.ip.SrcIP, code, rawIPAndPayload(p))
		if err == nil {
			_ = vr.ctl.SendPacketOut(data, 0, []uint32{pin.InPort})
		}
	}
}

func (vr *VlanRouter) handleIPv4ToOther(pin ofp.PacketIn, p parsed) {
	if vr.suspended.Full() {
		return
	}

	if p.udp != nil && ofctl.IsDHCPBootReplyOfferOrAck(p.udp.Payload) {
		vr.floodRaw(pin)
	}

	srcIP, nextHop, ok := vr.resolveNextHop(p.ip.DstIP, p.ip.SrcIP)
	if !ok {
		vr.log.Debug("no route for destination, dropping", "dst", p.ip.DstIP.String())
		return
	}

	if _, ok := vr.suspended.Add(nextHop, pin.InPort, pin.Data); !ok {
		return
	}
	vr.observeSuspendedQueueLen()

	mac := vr.routerPortMAC()
	if mac == nil {
		return
	}
	_ = vr.ctl.SendARPRequest(vr.vlanID, mac, srcIP, nextHop, 0)
}

// resolveNextHop picks (source, next-hop) per §4.3 "IPv4 -> other": local
// destination resolves directly, otherwise fall back to policy routing.
func (vr *VlanRouter) resolveNextHop(dstIP, srcIP net.IP) (net.IP, net.IP, bool) {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	if addr, ok := vr.addresses.GetByIP(dstIP); ok {
		return addr.Gateway, dstIP, true
	}

	route, ok := vr.policy.GetData(nil, dstIP, srcIP)
	if !ok {
		return nil, nil, false
	}
	owning, ok := vr.addresses.GetByIP(route.Gateway)
	if !ok {
		return nil, nil, false
	}
	return owning.Gateway, route.Gateway, true
}

func (vr *VlanRouter) onSuspendExpire(pkt *suspend.Packet) {
	vr.mu.Lock()
	srcAddr, ok := vr.addresses.GetByIP(pkt.DstIP)
	routerMAC := vr.routerPortMAC()
	vr.mu.Unlock()
	vr.observeSuspendedQueueLen()
	if !ok || routerMAC == nil {
		return
	}

	p := classify(pkt.Data)
	if p.ip == nil || p.eth == nil {
		return
	}
	data, err := ofctl.BuildICMPUnreachable(vr.vlanID, routerMAC, p.eth.SrcMAC, srcAddr.Gateway, p.ip.SrcIP, ofctl.UnreachableHost, rawIPAndPayload(p))
	if err != nil {
		return
	}
	_ = vr.ctl.SendPacketOut(data, 0, []uint32{pkt.InPort})
}
