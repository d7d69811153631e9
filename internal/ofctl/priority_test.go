// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ofctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutePriority_StaticBeatsDefault(t *testing.T) {
	def := RoutePriority(RouteBasePriority(true, false), 0, false)
	static := RoutePriority(RouteBasePriority(false, false), 24, false)
	assert.Greater(t, static, def)
}

func TestRoutePriority_LongerPrefixWins(t *testing.T) {
	base := RouteBasePriority(false, false)
	short := RoutePriority(base, 16, false)
	long := RoutePriority(base, 24, false)
	assert.Greater(t, long, short)
}

func TestRoutePriority_AddressedBeatsUnaddressed(t *testing.T) {
	unaddr := RoutePriority(RouteBasePriority(false, false), 24, false)
	addr := RoutePriority(RouteBasePriority(false, true), 24, false)
	assert.Greater(t, addr, unaddr)
}

func TestRoutePriority_VlanTaggedBeatsUntagged(t *testing.T) {
	base := RouteBasePriority(false, false)
	untagged := RoutePriority(base, 24, false)
	tagged := RoutePriority(base, 24, true)
	assert.Greater(t, tagged, untagged)
}

func TestRoutePriority_S2Scenario(t *testing.T) {
	// S1/S2: static route, /24 destination, untagged.
	p := RoutePriority(RouteBasePriority(false, false), 24, false)
	assert.EqualValues(t, 27, p)
}
