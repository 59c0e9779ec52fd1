package server

import (
	"net/netip"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSessionDirectoryBindAndLookup(t *testing.T) {
	sd := NewSessionDirectory()
	now := time.Now()

	if displaced := sd.Bind(aliceAddr, "alice", now); displaced != "" {
		t.Fatalf("Bind: unexpected displaced user %q", displaced)
	}

	name, ok := sd.UsernameFor(aliceAddr)
	if !ok || name != "alice" {
		t.Fatalf("UsernameFor = %q, %t", name, ok)
	}
	addr, ok := sd.AddressFor("alice")
	if !ok || addr != aliceAddr {
		t.Fatalf("AddressFor = %s, %t", addr, ok)
	}
	if _, ok := sd.AddressFor("bob"); ok {
		t.Errorf("AddressFor(bob): expected not found")
	}
	if _, ok := sd.UsernameFor(bobAddr); ok {
		t.Errorf("UsernameFor(bob's addr): expected not logged in")
	}
}

func TestSessionDirectoryRebind(t *testing.T) {
	sd := NewSessionDirectory()
	now := time.Now()

	sd.Bind(aliceAddr, "alice", now)
	sd.Bind(aliceAddr2, "alice", now)

	if sd.Count() != 1 {
		t.Fatalf("Count = %d, want 1 after rebinding a username", sd.Count())
	}
	if _, ok := sd.UsernameFor(aliceAddr); ok {
		t.Errorf("old address still resolves")
	}
	if addr, _ := sd.AddressFor("alice"); addr != aliceAddr2 {
		t.Errorf("AddressFor(alice) = %s, want %s", addr, aliceAddr2)
	}

	if displaced := sd.Bind(aliceAddr2, "bob", now); displaced != "alice" {
		t.Errorf("Bind over alice's address: displaced = %q, want alice", displaced)
	}
	if _, ok := sd.AddressFor("alice"); ok {
		t.Errorf("displaced username still resolves")
	}
	if sd.Count() != 1 {
		t.Errorf("Count = %d, want 1", sd.Count())
	}
}

func TestSessionDirectoryTouchAndUnbind(t *testing.T) {
	sd := NewSessionDirectory()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	sd.Bind(aliceAddr, "alice", start)
	sd.Touch(aliceAddr, start.Add(time.Minute))
	sd.Touch(bobAddr, start.Add(time.Minute)) // no session: no-op

	s, ok := sd.Get(aliceAddr)
	if !ok || !s.LastSeen.Equal(start.Add(time.Minute)) {
		t.Fatalf("Touch did not refresh LastSeen: %+v", s)
	}
	if sd.Count() != 1 {
		t.Errorf("Touch on unknown address created a session")
	}

	name, ok := sd.Unbind(aliceAddr)
	if !ok || name != "alice" {
		t.Fatalf("Unbind = %q, %t", name, ok)
	}
	if _, ok := sd.Unbind(aliceAddr); ok {
		t.Errorf("second Unbind reported a session")
	}
	if _, ok := sd.AddressFor("alice"); ok {
		t.Errorf("AddressFor after Unbind still resolves")
	}
}

func TestSessionDirectoryStaleAddresses(t *testing.T) {
	sd := NewSessionDirectory()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	sd.Bind(aliceAddr, "alice", start)
	sd.Bind(bobAddr, "bob", start.Add(time.Minute))
	sd.Bind(carolAddr, "carol", start)

	now := start.Add(150 * time.Second)
	got := slices.SortedFunc(sd.StaleAddresses(now, 120*time.Second), func(a, b netip.AddrPort) int {
		return a.Compare(b)
	})
	want := []netip.AddrPort{aliceAddr, carolAddr}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b netip.AddrPort) bool { return a == b })); diff != "" {
		t.Errorf("StaleAddresses mismatch (-want +got):\n%s", diff)
	}

	// The sequence stops as soon as the consumer does.
	n := 0
	for range sd.StaleAddresses(now, 120*time.Second) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("early break yielded %d addresses", n)
	}
}
