// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package netaddr holds the small IPv4 helpers shared by the address and
// routing tables: CIDR parsing, mask application, and overlap/containment
// checks. Kept dependency-free since net.IPNet already does the heavy lifting.
package netaddr

import (
	"fmt"
	"net"

	flerrors "github.com/yaoyj11/plexus/internal/errors"
)

// Prefix is a parsed IPv4 network: base address with host bits cleared, plus
// prefix length. It's the CIDR unit every table in this controller keys on.
type Prefix struct {
	IP   net.IP // 4-byte, network address (host bits cleared)
	Bits int    // 0..32
}

// ParseCIDR parses "A.B.C.D/N" into a Prefix, clearing host bits so two
// textually different strings for the same network compare equal.
func ParseCIDR(s string) (Prefix, error) {
	ip, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		return Prefix{}, flerrors.Wrapf(err, flerrors.KindValidation, "invalid CIDR %q", s)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return Prefix{}, flerrors.Errorf(flerrors.KindValidation, "%q is not an IPv4 address", s)
	}
	ones, bits := ipnet.Mask.Size()
	if bits != 32 {
		return Prefix{}, flerrors.Errorf(flerrors.KindValidation, "%q is not an IPv4 mask", s)
	}
	return Prefix{IP: ipnet.IP.To4(), Bits: ones}, nil
}

// MustParseCIDR panics on error; used only for compile-time-known constants in tests.
func MustParseCIDR(s string) Prefix {
	p, err := ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseIPv4 parses a bare dotted-quad address (no mask).
func ParseIPv4(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, flerrors.Errorf(flerrors.KindValidation, "invalid IPv4 address %q", s)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, flerrors.Errorf(flerrors.KindValidation, "%q is not an IPv4 address", s)
	}
	return ip4, nil
}

// Mask returns the net.IPMask for this prefix's bit length.
func (p Prefix) Mask() net.IPMask {
	return net.CIDRMask(p.Bits, 32)
}

// String renders "A.B.C.D/N", the canonical key used by tables in this package tree.
func (p Prefix) String() string {
	return fmt.Sprintf("%s/%d", p.IP, p.Bits)
}

// Contains reports whether ip falls within this prefix.
func (p Prefix) Contains(ip net.IP) bool {
	ip4 := ip.To4()
	if ip4 == nil {
		return false
	}
	net := (&net.IPNet{IP: p.IP, Mask: p.Mask()})
	return net.Contains(ip4)
}

// Overlaps reports whether p and q share any address: either contains the
// other's base, which for two valid CIDR prefixes is sufficient and necessary.
func (p Prefix) Overlaps(q Prefix) bool {
	return p.Contains(q.IP) || q.Contains(p.IP)
}

// Equal reports whether p and q are the same network/length pair.
func (p Prefix) Equal(q Prefix) bool {
	return p.Bits == q.Bits && p.IP.Equal(q.IP)
}

// Default is 0.0.0.0/0, the any-source / default-route prefix.
func Default() Prefix {
	return Prefix{IP: net.IPv4(0, 0, 0, 0).To4(), Bits: 0}
}

// IsDefault reports whether this is the 0.0.0.0/0 prefix.
func (p Prefix) IsDefault() bool {
	return p.Bits == 0
}
