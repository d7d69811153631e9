// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command plexusd runs the OpenFlow router controller: it loads the
// config, sets up logging, metrics and the registry, and serves the REST
// surface of §6. No OpenFlow wire codec is wired in (§1, out of scope
// here), so nothing calls the registry's switch-join hook and no Router is
// built by this command.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/yaoyj11/plexus/internal/api"
	"github.com/yaoyj11/plexus/internal/config"
	"github.com/yaoyj11/plexus/internal/logging"
	"github.com/yaoyj11/plexus/internal/registry"
	"github.com/yaoyj11/plexus/internal/switchboard"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to HCL config file")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logging.SetDefault(logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		JSON:   cfg.Logging.JSON,
		Syslog: syslogConfig(cfg.Logging.Syslog),
	}))
	logger := logging.WithComponent("plexusd")

	sb := switchboard.New(cfg.Switchboard)
	reg := registry.New(sb)
	reg.Metrics().MustRegister()

	server := api.NewServer(reg, cfg.API.Listen)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("api server exited", "error", err)
		}
	}()

	// The OpenFlow wire codec is the external collaborator that would
	// call reg.OnSwitchJoin/OnSwitchLeave as datapaths connect and
	// disconnect (§1); wiring it in is out of scope for this controller.

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = server.Stop(shutdownCtx)
}

func syslogConfig(b *config.SyslogBlock) *logging.SyslogConfig {
	if b == nil {
		return nil
	}
	return &logging.SyslogConfig{
		Enabled:  b.Enabled,
		Host:     b.Host,
		Port:     b.Port,
		Protocol: b.Protocol,
		Tag:      b.Tag,
		Facility: b.Facility,
	}
}
