package server

import (
	"net/netip"
	"sync"
	"time"
)

// Outbound is a datagram the server should send.
type Outbound struct {
	Addr netip.AddrPort
	Data []byte
}

// Core is the protocol engine: it owns the session directory and channel
// registry and applies every datagram and sweep to them under one lock, so
// no handler ever observes a half-applied mutation of the other structure.
type Core struct {
	mu         sync.Mutex
	now        func() time.Time
	evictAfter time.Duration
	sessions   *SessionDirectory
	channels   *ChannelRegistry
	metrics    *Metrics
}

// NewCore creates a Core using time.Now.
func NewCore(evictAfter time.Duration, metrics *Metrics) *Core {
	return NewCoreWithClock(evictAfter, metrics, time.Now)
}

// NewCoreWithClock creates a Core with a custom clock.
func NewCoreWithClock(evictAfter time.Duration, metrics *Metrics, now func() time.Time) *Core {
	if now == nil {
		now = time.Now
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Core{
		now:        now,
		evictAfter: evictAfter,
		sessions:   NewSessionDirectory(),
		channels:   NewChannelRegistry(),
		metrics:    metrics,
	}
}

// Metrics returns the counters this core updates.
func (c *Core) Metrics() *Metrics {
	return c.metrics
}

// SessionCount returns the number of bound sessions.
func (c *Core) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions.Count()
}

// ChannelNames returns a snapshot of the live channel names.
func (c *Core) ChannelNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels.ChannelNames()
}

// Members returns a snapshot of channel's members.
func (c *Core) Members(channel string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels.Members(channel)
}

// UsernameFor returns the username bound to addr.
func (c *Core) UsernameFor(addr netip.AddrPort) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions.UsernameFor(addr)
}

// removeUser drops username from every channel. Caller holds c.mu.
func (c *Core) removeUser(username string) {
	c.channels.RemoveUserEverywhere(username)
}

// updateGauges refreshes the session and channel gauges. Caller holds c.mu.
func (c *Core) updateGauges() {
	c.metrics.ActiveSessions.Store(int64(c.sessions.Count()))
	c.metrics.ActiveChannels.Store(int64(c.channels.Count()))
}
