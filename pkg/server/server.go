// Package server implements the chat relay server: the protocol engine
// (Core) and the UDP loop that feeds it.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Server owns the UDP socket and drives a Core.
type Server struct {
	cfg      Config
	core     *Core
	metrics  *Metrics
	registry *prometheus.Registry

	mu   sync.Mutex
	conn *net.UDPConn
}

// New creates a new Server instance.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metrics := NewMetrics()
	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		return nil, err
	}

	return &Server{
		cfg:      cfg,
		core:     NewCore(cfg.EvictionTimeout, metrics),
		metrics:  metrics,
		registry: registry,
	}, nil
}

// Core returns the protocol engine.
func (s *Server) Core() *Core {
	return s.core
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Registry returns the Prometheus registry holding the server's collectors.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Listen binds the UDP socket. Run calls it if it has not been called.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return nil
	}

	addr, err := net.ResolveUDPAddr("udp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("server: resolve addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.conn = conn

	slog.Info("server listening", "addr", conn.LocalAddr().String())
	return nil
}

// LocalAddr returns the bound socket address, or nil before Listen.
func (s *Server) LocalAddr() *net.UDPAddr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr) //nolint:forcetypeassert // ListenUDP always yields *UDPAddr
}

func (s *Server) socket() *net.UDPConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}
