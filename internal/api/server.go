// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package api is the REST transport (§6): routes {switch_id, vlan_id}
// requests into the registry/Router/VlanRouter core.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yaoyj11/plexus/internal/logging"
	"github.com/yaoyj11/plexus/internal/registry"
)

// Server hosts the REST surface described in §6.
type Server struct {
	router   *mux.Router
	registry *registry.Registry
	http     *http.Server
	log      *logging.Logger
}

// NewServer builds a Server bound to reg, routed per §6's method/path
// table. listenAddr is the bind address (e.g. ":8080").
func NewServer(reg *registry.Registry, listenAddr string) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		registry: reg,
		log:      logging.WithComponent("api"),
	}
	s.initRoutes()
	s.http = &http.Server{
		Addr:              listenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) initRoutes() {
	s.router.HandleFunc("/router/{sw}", s.handleNoVlan).Methods(http.MethodGet, http.MethodPost, http.MethodDelete)
	s.router.HandleFunc("/router/{sw}/{vid}", s.handleWithVlan).Methods(http.MethodGet, http.MethodPost, http.MethodDelete)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Start begins serving; blocks until Stop is called or ListenAndServe
// fails.
func (s *Server) Start() error {
	s.log.Info("listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
