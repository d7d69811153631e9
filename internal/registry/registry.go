// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package registry replaces the process-wide `_ROUTER_LIST` dictionary
// (§9 "Reshaping language-specific patterns") with an explicit controller
// object owning register/unregister/lookup.
package registry

import (
	"fmt"
	"sync"

	"github.com/yaoyj11/plexus/internal/logging"
	"github.com/yaoyj11/plexus/internal/metrics"
	"github.com/yaoyj11/plexus/internal/ofp"
	"github.com/yaoyj11/plexus/internal/router"
	"github.com/yaoyj11/plexus/internal/switchboard"
)

// Registry maps a datapath id to its Router, mutated only on
// datapath-up/down events (§5 "Shared state").
type Registry struct {
	mu       sync.RWMutex
	routers  map[uint64]*router.Router
	waiters  *ofp.Waiters
	callback *switchboard.Client
	metrics  *metrics.Router
	log      *logging.Logger
}

// New builds an empty registry. callback may be nil (switchboard
// disabled). The returned registry owns the process's metrics.Router; the
// caller is responsible for registering it with Prometheus (typically via
// Metrics().MustRegister() at startup) and serving /metrics.
func New(callback *switchboard.Client) *Registry {
	return &Registry{
		routers:  make(map[uint64]*router.Router),
		waiters:  ofp.NewWaiters(),
		callback: callback,
		metrics:  metrics.New(),
		log:      logging.WithComponent("registry"),
	}
}

// Waiters returns the shared stats-request coordinator passed to every
// Router this registry creates.
func (g *Registry) Waiters() *ofp.Waiters { return g.waiters }

// Metrics returns the Prometheus collectors shared by every Router this
// registry creates.
func (g *Registry) Metrics() *metrics.Router { return g.metrics }

// OnSwitchJoin registers dp, building its Router, and fires the
// switchboard callback (fire-and-forget, failure logged and ignored per
// §6/§9.3). Returns the error produced only when the OF version is
// unsupported (§7 "Version mismatch").
func (g *Registry) OnSwitchJoin(dp ofp.Datapath) error {
	r, err := router.New(dp, g.waiters, g.metrics)
	if err != nil {
		g.log.Warn("switch join rejected", "dp_id", fmt.Sprintf("%016x", dp.ID()), "error", err)
		return err
	}

	g.mu.Lock()
	g.routers[dp.ID()] = r
	g.mu.Unlock()

	if g.callback != nil {
		go g.callback.NotifySwitchJoin(dp.ID())
	}
	g.log.Info("switch registered", "dp_id", fmt.Sprintf("%016x", dp.ID()))
	return nil
}

// OnSwitchLeave unregisters dp and stops its sweeper.
func (g *Registry) OnSwitchLeave(dpID uint64) {
	g.mu.Lock()
	r, ok := g.routers[dpID]
	delete(g.routers, dpID)
	g.mu.Unlock()
	if !ok {
		return
	}
	r.Close()
	g.log.Info("switch unregistered", "dp_id", fmt.Sprintf("%016x", dpID))
}

// Lookup returns the Router for dpID.
func (g *Registry) Lookup(dpID uint64) (*router.Router, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.routers[dpID]
	return r, ok
}

// All returns every registered Router, used for "all" switch-id REST
// requests.
func (g *Registry) All() []*router.Router {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*router.Router, 0, len(g.routers))
	for _, r := range g.routers {
		out = append(out, r)
	}
	return out
}
