package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

// datagram is one inbound packet handed from the reader to the event loop.
type datagram struct {
	from netip.AddrPort
	data []byte
}

// Run binds the socket, serves until ctx is cancelled and shuts down. A socket
// error other than a read timeout ends Run with that error.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Serve(ctx) })
	if s.cfg.MetricsAddr != "" {
		g.Go(func() error { return s.serveMetrics(ctx) })
	}
	if s.cfg.MetricsInterval > 0 {
		s.metrics.StartPeriodicLog(s.cfg.MetricsInterval, ctx.Done())
	}

	err := g.Wait()
	slog.Info("server stopped")
	return err
}

// Serve reads datagrams and sweeps idle sessions until ctx is cancelled.
// Reading happens on its own goroutine; every datagram and every sweep tick
// is then handled by a single goroutine, one at a time.
func (s *Server) Serve(ctx context.Context) error {
	conn := s.socket()
	if conn == nil {
		return errors.New("server: serve before listen")
	}

	events := make(chan datagram, 64)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		// Unblocks the pending read.
		_ = conn.Close()
		return nil
	})
	g.Go(func() error { return s.readLoop(ctx, conn, events) })
	g.Go(func() error { return s.eventLoop(ctx, conn, events) })
	return g.Wait()
}

func (s *Server) readLoop(ctx context.Context, conn *net.UDPConn, events chan<- datagram) error {
	buf := make([]byte, s.cfg.ReadBufferSize)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.SweepInterval)); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("server: set read deadline: %w", err)
		}

		n, from, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			return fmt.Errorf("server: read: %w", err)
		}

		d := datagram{from: from, data: make([]byte, n)}
		copy(d.data, buf[:n])

		select {
		case events <- d:
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Server) eventLoop(ctx context.Context, conn *net.UDPConn, events <-chan datagram) error {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-events:
			s.send(conn, s.core.HandleDatagram(d.from, d.data))
		case <-ticker.C:
			s.core.Sweep()
		}
	}
}

// send writes each outbound datagram. A failed write affects only its
// recipient.
func (s *Server) send(conn *net.UDPConn, out []Outbound) {
	for _, o := range out {
		if _, err := conn.WriteToUDPAddrPort(o.Data, o.Addr); err != nil {
			slog.Debug("send failed", "to", o.Addr, "err", err)
			s.metrics.SendErrors.Add(1)
			continue
		}
		s.metrics.DatagramsOut.Add(1)
	}
}
