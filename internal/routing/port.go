// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package routing holds the per-switch, per-VLAN routing state machine:
// the Address/Port inventories and the Route/RoutingTable/PolicyRoutingTable
// longest-prefix-match tables described in §3/§4.1/§4.2.
package routing

import "net"

// Port is one switch port: its OpenFlow port number and the MAC address the
// switch reports for it, used as the source MAC on anything this controller
// originates out that port.
type Port struct {
	PortNo uint32
	MAC    net.HardwareAddr
}

// PortData is the per-switch port inventory, keyed by port number.
type PortData struct {
	ports map[uint32]Port
}

// NewPortData builds an empty inventory.
func NewPortData() *PortData {
	return &PortData{ports: make(map[uint32]Port)}
}

// Add records or replaces a port's MAC.
func (p *PortData) Add(portNo uint32, mac net.HardwareAddr) {
	p.ports[portNo] = Port{PortNo: portNo, MAC: mac}
}

// Get returns the port, if known.
func (p *PortData) Get(portNo uint32) (Port, bool) {
	port, ok := p.ports[portNo]
	return port, ok
}

// All returns every known port, order unspecified.
func (p *PortData) All() []Port {
	out := make([]Port, 0, len(p.ports))
	for _, port := range p.ports {
		out = append(out, port)
	}
	return out
}
