// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics holds the Prometheus collectors exported by the
// controller: packet-in throughput, suspend-queue depth, and flow
// install/delete counts, and gateway ARP sweeps, each broken down by
// datapath; the suspend-queue gauge is also broken down by VLAN.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Router aggregates the collectors touched by the routing core.
type Router struct {
	PacketInTotal    *prometheus.CounterVec
	FlowInstallTotal *prometheus.CounterVec
	FlowDeleteTotal  *prometheus.CounterVec
	SuspendedQueue   *prometheus.GaugeVec
	ARPSweepTotal    *prometheus.CounterVec
}

// New builds a Router with every collector defined but not yet registered.
func New() *Router {
	return &Router{
		PacketInTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plexus_packetin_total",
			Help: "Total number of packet-in events handled, by classification.",
		}, []string{"dpid", "kind"}),
		FlowInstallTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plexus_flow_install_total",
			Help: "Total number of flow-mod installs sent to a switch.",
		}, []string{"dpid", "kind"}),
		FlowDeleteTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plexus_flow_delete_total",
			Help: "Total number of flow-mod deletes sent to a switch.",
		}, []string{"dpid"}),
		SuspendedQueue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plexus_suspended_packets",
			Help: "Packets currently queued awaiting next-hop ARP resolution.",
		}, []string{"dpid", "vlan_id"}),
		ARPSweepTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plexus_arp_sweep_total",
			Help: "Total number of gateway ARP requests sent by the background sweeper.",
		}, []string{"dpid"}),
	}
}

// MustRegister registers every collector against the default registry.
func (r *Router) MustRegister() {
	prometheus.MustRegister(
		r.PacketInTotal,
		r.FlowInstallTotal,
		r.FlowDeleteTotal,
		r.SuspendedQueue,
		r.ARPSweepTotal,
	)
}
