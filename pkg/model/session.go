// Package model defines the core domain types for the chat relay.
package model

import (
	"net/netip"
	"time"
)

// Session binds a username to the address it last logged in from.
// Sessions live in memory only.
type Session struct {
	Username string
	Addr     netip.AddrPort
	LastSeen time.Time
}

// IdleFor reports how long the session has been silent at now.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastSeen)
}
