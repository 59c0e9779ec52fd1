package server

import (
	"iter"
	"net/netip"
	"time"

	"github.com/NicolasHaas/chanrelay/pkg/model"
)

// SessionDirectory maps client addresses to usernames and tracks when each
// address was last heard from. At most one username is bound to an address
// and at most one address to a username.
//
// SessionDirectory is not safe for concurrent use; Core serialises access.
type SessionDirectory struct {
	byAddr map[netip.AddrPort]*model.Session
	byName map[string]*model.Session
}

// NewSessionDirectory creates an empty directory.
func NewSessionDirectory() *SessionDirectory {
	return &SessionDirectory{
		byAddr: make(map[netip.AddrPort]*model.Session),
		byName: make(map[string]*model.Session),
	}
}

// Bind records username at addr and resets its activity time. A previous
// address of username is forgotten. If addr was bound to a different
// username, that username is returned as displaced.
func (sd *SessionDirectory) Bind(addr netip.AddrPort, username string, now time.Time) (displaced string) {
	if prev, ok := sd.byAddr[addr]; ok && prev.Username != username {
		delete(sd.byName, prev.Username)
		displaced = prev.Username
	}
	if prev, ok := sd.byName[username]; ok && prev.Addr != addr {
		delete(sd.byAddr, prev.Addr)
	}

	sess := &model.Session{
		Username: username,
		Addr:     addr,
		LastSeen: now,
	}
	sd.byAddr[addr] = sess
	sd.byName[username] = sess
	return displaced
}

// Touch refreshes the activity time of the session at addr, if any.
func (sd *SessionDirectory) Touch(addr netip.AddrPort, now time.Time) {
	if s, ok := sd.byAddr[addr]; ok {
		s.LastSeen = now
	}
}

// UsernameFor returns the username bound to addr.
func (sd *SessionDirectory) UsernameFor(addr netip.AddrPort) (string, bool) {
	s, ok := sd.byAddr[addr]
	if !ok {
		return "", false
	}
	return s.Username, true
}

// AddressFor returns the address username is currently bound to.
func (sd *SessionDirectory) AddressFor(username string) (netip.AddrPort, bool) {
	s, ok := sd.byName[username]
	if !ok {
		return netip.AddrPort{}, false
	}
	return s.Addr, true
}

// Unbind removes the session at addr and returns its username.
func (sd *SessionDirectory) Unbind(addr netip.AddrPort) (string, bool) {
	s, ok := sd.byAddr[addr]
	if !ok {
		return "", false
	}
	delete(sd.byAddr, addr)
	delete(sd.byName, s.Username)
	return s.Username, true
}

// StaleAddresses yields every address idle for longer than threshold at now.
// Callers must not mutate the directory while iterating.
func (sd *SessionDirectory) StaleAddresses(now time.Time, threshold time.Duration) iter.Seq[netip.AddrPort] {
	return func(yield func(netip.AddrPort) bool) {
		for addr, s := range sd.byAddr {
			if s.IdleFor(now) > threshold {
				if !yield(addr) {
					return
				}
			}
		}
	}
}

// Get returns a copy of the session at addr.
func (sd *SessionDirectory) Get(addr netip.AddrPort) (model.Session, bool) {
	s, ok := sd.byAddr[addr]
	if !ok {
		return model.Session{}, false
	}
	return *s, true
}

// Count returns the number of bound sessions.
func (sd *SessionDirectory) Count() int {
	return len(sd.byAddr)
}
