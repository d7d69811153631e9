// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ofctl

import (
	"net"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/insomniacslk/dhcp/dhcpv4"

	flerrors "github.com/yaoyj11/plexus/internal/errors"
)

// DefaultIPTTL is the TTL used on every IP packet this controller
// originates (§6).
const DefaultIPTTL = 64

var broadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

func vlanShim(vlanID uint16, inner layers.EthernetType) *layers.Dot1Q {
	if vlanID == 0 {
		return nil
	}
	return &layers.Dot1Q{Priority: 0, DropEligible: false, VLANIdentifier: vlanID, Type: inner}
}

func serialize(vlanID uint16, ethType layers.EthernetType, srcMAC, dstMAC net.HardwareAddr, payload ...gopacket.SerializableLayer) ([]byte, error) {
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC}
	stack := []gopacket.SerializableLayer{eth}
	if vq := vlanShim(vlanID, ethType); vq != nil {
		eth.EthernetType = layers.EthernetTypeDot1Q
		stack = append(stack, vq)
	} else {
		eth.EthernetType = ethType
	}
	stack = append(stack, payload...)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, stack...); err != nil {
		return nil, flerrors.Wrap(err, flerrors.KindInternal, "serialize packet")
	}
	return buf.Bytes(), nil
}

// BuildARPRequest crafts an Ethernet+(802.1Q)+ARP "who-has" request:
// srcMAC/srcIP answering as the sender, broadcast to resolve targetIP.
func BuildARPRequest(vlanID uint16, srcMAC net.HardwareAddr, srcIP net.IP, targetIP net.IP) ([]byte, error) {
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   srcMAC,
		SourceProtAddress: srcIP.To4(),
		DstHwAddress:      make(net.HardwareAddr, 6),
		DstProtAddress:    targetIP.To4(),
	}
	return serialize(vlanID, layers.EthernetTypeARP, srcMAC, broadcastMAC, arp)
}

// BuildARPReply crafts an ARP reply claiming srcIP lives at srcMAC, sent
// directly to the requester (dstMAC/dstIP).
func BuildARPReply(vlanID uint16, srcMAC net.HardwareAddr, srcIP net.IP, dstMAC net.HardwareAddr, dstIP net.IP) ([]byte, error) {
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPReply,
		SourceHwAddress:   srcMAC,
		SourceProtAddress: srcIP.To4(),
		DstHwAddress:      dstMAC,
		DstProtAddress:    dstIP.To4(),
	}
	return serialize(vlanID, layers.EthernetTypeARP, srcMAC, dstMAC, arp)
}

// BuildGratuitousARP crafts an ARP request where sender and target IP are
// identical (§4.3 set_data MAC-learning install).
func BuildGratuitousARP(vlanID uint16, srcMAC net.HardwareAddr, ip net.IP) ([]byte, error) {
	return BuildARPRequest(vlanID, srcMAC, ip, ip)
}

func ipv4Header(srcIP, dstIP net.IP, proto layers.IPProtocol) *layers.IPv4 {
	return &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      DefaultIPTTL,
		Protocol: proto,
		SrcIP:    srcIP.To4(),
		DstIP:    dstIP.To4(),
	}
}

// BuildICMPEchoReply mirrors an echo request back to its sender with
// identical id/seq/payload (§4.3 S5).
func BuildICMPEchoReply(vlanID uint16, srcMAC, dstMAC net.HardwareAddr, srcIP, dstIP net.IP, id, seq uint16, payload []byte) ([]byte, error) {
	ip := ipv4Header(srcIP, dstIP, layers.IPProtocolICMPv4)
	icmp := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoReply, 0),
		Id:       id,
		Seq:      seq,
	}
	return serialize(vlanID, layers.EthernetTypeIPv4, srcMAC, dstMAC, ip, icmp, gopacket.Payload(payload))
}

// ICMPUnreachableCode selects the destination-unreachable code: host or
// port.
type ICMPUnreachableCode uint8

const (
	UnreachableHost ICMPUnreachableCode = iota
	UnreachablePort
)

// BuildICMPUnreachable crafts a destination/port-unreachable message
// carrying the triggering IP header plus its first 8 bytes (§4.3).
func BuildICMPUnreachable(vlanID uint16, srcMAC, dstMAC net.HardwareAddr, srcIP, dstIP net.IP, code ICMPUnreachableCode, originalIPHeaderAndPayload []byte) ([]byte, error) {
	ip := ipv4Header(srcIP, dstIP, layers.IPProtocolICMPv4)
	icmpCode := layers.ICMPv4CodeHost
	if code == UnreachablePort {
		icmpCode = layers.ICMPv4CodePort
	}
	icmp := &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeDestinationUnreachable, icmpCode)}
	return serialize(vlanID, layers.EthernetTypeIPv4, srcMAC, dstMAC, ip, icmp, gopacket.Payload(truncate(originalIPHeaderAndPayload)))
}

// BuildICMPTimeExceeded crafts a time-exceeded (TTL expired) message for
// the OF 1.2/1.3 INVALID_TTL packet-in path (§4.3).
func BuildICMPTimeExceeded(vlanID uint16, srcMAC, dstMAC net.HardwareAddr, srcIP, dstIP net.IP, originalIPHeaderAndPayload []byte) ([]byte, error) {
	ip := ipv4Header(srcIP, dstIP, layers.IPProtocolICMPv4)
	icmp := &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeTimeExceeded, 0)}
	return serialize(vlanID, layers.EthernetTypeIPv4, srcMAC, dstMAC, ip, icmp, gopacket.Payload(truncate(originalIPHeaderAndPayload)))
}

// truncate caps the embedded original-datagram payload to a header plus 8
// bytes, per RFC 792.
func truncate(b []byte) []byte {
	const max = 20 + 8
	if len(b) > max {
		return b[:max]
	}
	return b
}

// IsDHCPBootReplyOfferOrAck reports whether udpPayload parses as a DHCPv4
// BOOTREPLY whose message type is OFFER or ACK (§4.3 IPv4-to-other flood
// rule).
func IsDHCPBootReplyOfferOrAck(udpPayload []byte) bool {
	msg, err := dhcpv4.FromBytes(udpPayload)
	if err != nil {
		return false
	}
	if msg.OpCode != dhcpv4.OpcodeBootReply {
		return false
	}
	mt := msg.MessageType()
	return mt == dhcpv4.MessageTypeOffer || mt == dhcpv4.MessageTypeAck
}

// BuildDHCPDiscover crafts a DHCPDISCOVER broadcast from srcMAC (§4.5
// send_dhcp_discover; wired per the open DHCP question in §9, scaffolding
// only — no caller currently invokes it, mirroring the source).
func BuildDHCPDiscover(vlanID uint16, srcMAC net.HardwareAddr) ([]byte, error) {
	msg, err := dhcpv4.NewDiscovery(srcMAC)
	if err != nil {
		return nil, flerrors.Wrap(err, flerrors.KindInternal, "build dhcp discover")
	}
	ip := ipv4Header(net.IPv4zero, net.IPv4bcast, layers.IPProtocolUDP)
	udp := &layers.UDP{SrcPort: 68, DstPort: 67}
	_ = udp.SetNetworkLayerForChecksum(ip)
	return serialize(vlanID, layers.EthernetTypeIPv4, srcMAC, broadcastMAC, ip, udp, gopacket.Payload(msg.ToBytes()))
}
