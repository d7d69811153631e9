// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package router implements the per-switch aggregate of VlanRouters and
// its background ARP sweeper (§4.4).
package router

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/yaoyj11/plexus/internal/logging"
	"github.com/yaoyj11/plexus/internal/metrics"
	"github.com/yaoyj11/plexus/internal/ofctl"
	"github.com/yaoyj11/plexus/internal/ofp"
	"github.com/yaoyj11/plexus/internal/routing"
	"github.com/yaoyj11/plexus/internal/vlanrouter"
)

// SweepInterval is how often the background task re-ARPs known gateways
// (§4.4 Sweep).
const SweepInterval = 30 * time.Second

// InterVlanDelay is the pause between VlanRouters within one sweep pass,
// to amortise the burst of ARP requests (§4.4 Sweep).
const InterVlanDelay = 1 * time.Second

// MinVlanID and MaxVlanID bound the valid tagged-VLAN range (§4.4
// _get_vlan_router validation: VID in {0} ∪ [2, 4094]).
const (
	MinVlanID = 2
	MaxVlanID = 4094
)

// Router owns one switch's VlanRouter map, keyed by vlan id (slot
// vlanrouter.VlanIDNone = untagged), and runs its sweep task (§4.4).
type Router struct {
	mu      sync.Mutex
	dp      ofp.Datapath
	ctl     ofctl.OfCtl
	waiters *ofp.Waiters
	ports   *routing.PortData
	vlans   map[uint16]*vlanrouter.VlanRouter
	metrics *metrics.Router

	log        *logging.Logger
	cancelSweep context.CancelFunc
	sweepDone  chan struct{}
}

// New constructs a Router for dp: installs the ARP-capture flow and the
// VlanIDNone VlanRouter, then starts the sweep task. mx may be nil
// (metrics disabled, e.g. in tests).
func New(dp ofp.Datapath, waiters *ofp.Waiters, mx *metrics.Router) (*Router, error) {
	ctl, err := ofctl.Factory(dp)
	if err != nil {
		return nil, err
	}

	ports := routing.NewPortData()
	for _, p := range dp.Ports() {
		ports.Add(p.PortNo, p.HWAddr)
	}

	r := &Router{
		dp:      dp,
		ctl:     ctl,
		waiters: waiters,
		ports:   ports,
		vlans:   make(map[uint16]*vlanrouter.VlanRouter),
		metrics: mx,
		log:     logging.WithComponent("router").With("dp_id", fmt.Sprintf("%016x", dp.ID())),
	}

	_ = ctl.SetSwConfigForTTL()
	cookie := ofctl.EncodeCookie(0, 0, 0)
	if err := ctl.SetPacketinFlow(cookie, ofctl.ARPPriority(false), ofctl.Match{EthType: 0x0806}); err != nil {
		r.log.Warn("failed to install ARP capture flow", "error", err)
	}

	r.vlans[vlanrouter.VlanIDNone] = vlanrouter.New(vlanrouter.VlanIDNone, dp, ctl, waiters, ports, false, mx)

	r.startSweep()
	return r, nil
}

// DatapathID returns the owning switch's id.
func (r *Router) DatapathID() uint64 { return r.dp.ID() }

// GetVlanRouter resolves "all" | vid per §4.4's _get_vlan_router,
// validating vid against {0} ∪ [MinVlanID, MaxVlanID]. vid names exactly
// one VLAN; "all" is handled by the caller iterating All().
func (r *Router) GetVlanRouter(vid uint16, create bool, bare bool) (*vlanrouter.VlanRouter, error) {
	if vid != vlanrouter.VlanIDNone && (vid < MinVlanID || vid > MaxVlanID) {
		return nil, fmt.Errorf("router: vlan id %d out of range", vid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	vr, ok := r.vlans[vid]
	if !ok {
		if !create {
			return nil, fmt.Errorf("router: vlan %d not found", vid)
		}
		vr = vlanrouter.New(vid, r.dp, r.ctl, r.waiters, r.ports, bare, r.metrics)
		r.vlans[vid] = vr
	}
	return vr, nil
}

// All returns every currently-registered VlanRouter.
func (r *Router) All() []*vlanrouter.VlanRouter {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*vlanrouter.VlanRouter, 0, len(r.vlans))
	for _, vr := range r.vlans {
		out = append(out, vr)
	}
	return out
}

// HandlePacketIn routes a packet-in event to the VlanRouter named by its
// VLAN tag, dropping silently if the tag is unknown (§7: "unknown VLAN
// tag -> debug log and drop").
func (r *Router) HandlePacketIn(pin ofp.PacketIn, vlanID uint16) {
	r.mu.Lock()
	vr, ok := r.vlans[vlanID]
	r.mu.Unlock()
	if !ok {
		r.log.Debug("packet-in for unknown vlan, dropping", "vlan_id", vlanID)
		return
	}
	vr.HandlePacketIn(pin)
}

// GCEmptyVlanRouters destroys any non-default VlanRouter left with zero
// addresses and an empty any-source routing table (§4.4 Empty-VlanRouter
// GC).
func (r *Router) GCEmptyVlanRouters() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for vid, vr := range r.vlans {
		if vid == vlanrouter.VlanIDNone {
			continue
		}
		if vr.Empty() {
			delete(r.vlans, vid)
		}
	}
}

func (r *Router) startSweep() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancelSweep = cancel
	r.sweepDone = make(chan struct{})
	go r.sweepLoop(ctx)
}

func (r *Router) sweepLoop(ctx context.Context) {
	defer close(r.sweepDone)
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce(ctx)
		}
	}
}

func (r *Router) sweepOnce(ctx context.Context) {
	for _, vr := range r.All() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		r.sweepVlan(vr)
		select {
		case <-ctx.Done():
			return
		case <-time.After(InterVlanDelay):
		}
	}
}

func (r *Router) sweepVlan(vr *vlanrouter.VlanRouter) {
	mac := r.routerPortMAC()
	if mac == nil {
		return
	}
	for _, target := range vr.SweepTargets() {
		_ = r.ctl.SendARPRequest(vr.VlanID(), mac, target.SourceIP, target.GatewayIP, 0)
		if r.metrics != nil {
			r.metrics.ARPSweepTotal.WithLabelValues(fmt.Sprintf("%016x", r.dp.ID())).Inc()
		}
	}
}

func (r *Router) routerPortMAC() net.HardwareAddr {
	ports := r.ports.All()
	if len(ports) == 0 {
		return nil
	}
	return ports[0].MAC
}

// Close stops the sweep task and waits for it to finish (§5 Cancellation:
// "on datapath disconnect, the Router's sweeper task is killed and
// awaited").
func (r *Router) Close() {
	if r.cancelSweep != nil {
		r.cancelSweep()
	}
	if r.sweepDone != nil {
		<-r.sweepDone
	}
}
