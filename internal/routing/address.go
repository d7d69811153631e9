// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package routing

import (
	"net"

	flerrors "github.com/yaoyj11/plexus/internal/errors"
	"github.com/yaoyj11/plexus/internal/netaddr"
)

// Address is one locally-attached IPv4 subnet for one VLAN on one switch (§3).
type Address struct {
	ID      uint32
	Network netaddr.Prefix
	Gateway net.IP // default_gw: the router's own IP on this subnet
}

// AddressData is the set of Addresses attached to one VlanRouter. Not safe
// for concurrent use on its own — callers serialize through the owning
// VlanRouter's mutex (§5).
type AddressData struct {
	byID  map[uint32]*Address
	byKey map[string]*Address // keyed by Network.String(), for overlap checks
	nextID uint32
}

// NewAddressData builds an empty set.
func NewAddressData() *AddressData {
	return &AddressData{
		byID:  make(map[uint32]*Address),
		byKey: make(map[string]*Address),
	}
}

// Add parses cidr, rejects it if it overlaps any existing Address (either
// direction), and stores it under a freshly allocated id. The Address's
// Gateway (the router's own IP on the subnet, default_gw) is the host part
// of cidr, so "10.0.0.1/24" yields network 10.0.0.0/24 and gateway
// 10.0.0.1 (§4.3 set_data).
func (d *AddressData) Add(cidr string) (*Address, error) {
	prefix, err := netaddr.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	gw, _, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, flerrors.Wrapf(err, flerrors.KindValidation, "invalid CIDR %q", cidr)
	}

	for _, existing := range d.byID {
		if prefix.Overlaps(existing.Network) {
			return nil, flerrors.Errorf(flerrors.KindConflict, "address %s overlaps existing address %s", prefix, existing.Network)
		}
	}

	id := d.allocID()
	addr := &Address{ID: id, Network: prefix, Gateway: gw.To4()}
	d.byID[id] = addr
	d.byKey[prefix.String()] = addr
	return addr, nil
}

func (d *AddressData) allocID() uint32 {
	for {
		d.nextID++
		if d.nextID == 0 {
			d.nextID = 1
		}
		if _, exists := d.byID[d.nextID]; !exists {
			return d.nextID
		}
	}
}

// Delete removes an Address by id.
func (d *AddressData) Delete(id uint32) (*Address, error) {
	addr, ok := d.byID[id]
	if !ok {
		return nil, flerrors.Errorf(flerrors.KindNotFound, "address id %d not found", id)
	}
	delete(d.byID, id)
	delete(d.byKey, addr.Network.String())
	return addr, nil
}

// Get returns the Address with the given id.
func (d *AddressData) Get(id uint32) (*Address, bool) {
	a, ok := d.byID[id]
	return a, ok
}

// GetByIP returns the Address whose prefix contains ip, if any.
func (d *AddressData) GetByIP(ip net.IP) (*Address, bool) {
	for _, a := range d.byID {
		if a.Network.Contains(ip) {
			return a, true
		}
	}
	return nil, false
}

// All returns every Address, order unspecified.
func (d *AddressData) All() []*Address {
	out := make([]*Address, 0, len(d.byID))
	for _, a := range d.byID {
		out = append(out, a)
	}
	return out
}

// DefaultGateways returns the set of router IPs on this VLAN (default_gws).
func (d *AddressData) DefaultGateways() []net.IP {
	out := make([]net.IP, 0, len(d.byID))
	for _, a := range d.byID {
		out = append(out, a.Gateway)
	}
	return out
}

// IsDefaultGateway reports whether ip is one of this VLAN's own router IPs.
func (d *AddressData) IsDefaultGateway(ip net.IP) bool {
	for _, a := range d.byID {
		if a.Gateway.Equal(ip) {
			return true
		}
	}
	return false
}

// Len returns the number of Addresses currently held.
func (d *AddressData) Len() int {
	return len(d.byID)
}
