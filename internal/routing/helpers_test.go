// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package routing

import (
	"net"
	"testing"

	"github.com/yaoyj11/plexus/internal/netaddr"
)

func mustParseIP(t *testing.T, s string) net.IP {
	t.Helper()
	ip, err := netaddr.ParseIPv4(s)
	if err != nil {
		t.Fatalf("parse ip %q: %v", s, err)
	}
	return ip
}

func mustParsePrefix(t *testing.T, s string) netaddr.Prefix {
	t.Helper()
	p, err := netaddr.ParseCIDR(s)
	if err != nil {
		t.Fatalf("parse cidr %q: %v", s, err)
	}
	return p
}

func mustParseMAC(t *testing.T, s string) net.HardwareAddr {
	t.Helper()
	mac, err := net.ParseMAC(s)
	if err != nil {
		t.Fatalf("parse mac %q: %v", s, err)
	}
	return mac
}
