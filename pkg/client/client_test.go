package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/NicolasHaas/chanrelay/pkg/protocol"
)

// newFakeServer listens on loopback and returns the socket and a client
// dialed to it.
func newFakeServer(t *testing.T) (*net.UDPConn, *Client) {
	t.Helper()
	srv, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })

	c, err := Dial(srv.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return srv, c
}

func readRequest(t *testing.T, srv *net.UDPConn) (*protocol.Request, *net.UDPAddr) {
	t.Helper()
	buf := make([]byte, protocol.MaxDatagramSize)
	if err := srv.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("deadline: %v", err)
	}
	n, from, err := srv.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	req, err := protocol.UnmarshalRequest(buf[:n])
	if err != nil {
		t.Fatalf("UnmarshalRequest: %v", err)
	}
	return req, from
}

func TestClientSendsRequests(t *testing.T) {
	srv, c := newFakeServer(t)

	before := c.LastSend()
	time.Sleep(time.Millisecond)

	steps := []struct {
		send func() error
		want protocol.Request
	}{
		{func() error { return c.Login("alice") }, protocol.Request{Type: protocol.TypeLogin, Username: "alice"}},
		{func() error { return c.Join("Common") }, protocol.Request{Type: protocol.TypeJoin, Channel: "Common"}},
		{func() error { return c.Say("Common", "hi") }, protocol.Request{Type: protocol.TypeSay, Channel: "Common", Text: "hi"}},
		{c.List, protocol.Request{Type: protocol.TypeList}},
		{func() error { return c.Who("Common") }, protocol.Request{Type: protocol.TypeWho, Channel: "Common"}},
		{func() error { return c.Leave("Common") }, protocol.Request{Type: protocol.TypeLeave, Channel: "Common"}},
		{c.Keepalive, protocol.Request{Type: protocol.TypeKeepalive}},
		{c.Logout, protocol.Request{Type: protocol.TypeLogout}},
	}
	for _, step := range steps {
		if err := step.send(); err != nil {
			t.Fatalf("send %s: %v", step.want.Type, err)
		}
		got, _ := readRequest(t, srv)
		if diff := cmp.Diff(&step.want, got); diff != "" {
			t.Errorf("request mismatch (-want +got):\n%s", diff)
		}
	}

	if !c.LastSend().After(before) {
		t.Errorf("LastSend not advanced")
	}
}

func TestClientValidatesNames(t *testing.T) {
	_, c := newFakeServer(t)
	if err := c.Login(""); err == nil {
		t.Errorf("Login(\"\"): expected error")
	}
	if err := c.Join("this channel name is far too long for the wire"); err == nil {
		t.Errorf("Join(long): expected error")
	}
}

func TestReceiveLoop(t *testing.T) {
	srv, c := newFakeServer(t)

	if err := c.Login("alice"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	_, clientAddr := readRequest(t, srv)

	got := make(chan *protocol.Response, 4)
	done := make(chan error, 1)
	go func() {
		done <- c.ReceiveLoop(context.Background(), func(resp *protocol.Response) { got <- resp })
	}()

	responses := [][]byte{
		{0, 0},                   // too short: skipped
		{0, 0, 0, 9, 0, 0, 0, 0}, // unknown type: skipped
		(&protocol.Response{Type: protocol.TypeSayResponse, Channel: "Common", Username: "bob", Text: "yo"}).Marshal(),
		(&protocol.Response{Type: protocol.TypeWhoResponse, Channel: "Common", Names: []string{"alice", "bob"}}).Marshal(),
	}
	for _, data := range responses {
		if _, err := srv.WriteToUDP(data, clientAddr); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	want := []*protocol.Response{
		{Type: protocol.TypeSayResponse, Channel: "Common", Username: "bob", Text: "yo"},
		{Type: protocol.TypeWhoResponse, Channel: "Common", Names: []string{"alice", "bob"}},
	}
	for i, w := range want {
		select {
		case r := <-got:
			if diff := cmp.Diff(w, r, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("response %d mismatch (-want +got):\n%s", i, diff)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for response %d", i)
		}
	}

	_ = c.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ReceiveLoop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("ReceiveLoop did not return after Close")
	}
}

func TestKeepaliveLoop(t *testing.T) {
	srv, c := newFakeServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.KeepaliveLoop(ctx, 10*time.Millisecond, 30*time.Millisecond)

	req, _ := readRequest(t, srv)
	if req.Type != protocol.TypeKeepalive {
		t.Errorf("got %s, want KEEPALIVE", req.Type)
	}
}
