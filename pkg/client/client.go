// Package client implements the chat relay client: a datagram sender, the
// receive and keepalive loops, and the line-oriented command shell.
package client

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NicolasHaas/chanrelay/pkg/model"
	"github.com/NicolasHaas/chanrelay/pkg/protocol"
)

// Client sends requests to a relay server over one UDP socket.
type Client struct {
	conn *net.UDPConn

	mu       sync.Mutex // serializes writes
	lastSend atomic.Int64
}

// Dial opens a UDP socket bound to the server at addr.
func Dial(addr string) (*Client, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}

	c := &Client{conn: conn}
	c.lastSend.Store(time.Now().UnixNano())
	return c, nil
}

// Send encodes and writes one request.
func (c *Client) Send(req *protocol.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.conn.Write(req.Marshal()); err != nil {
		return fmt.Errorf("client: send %s: %w", req.Type, err)
	}
	c.lastSend.Store(time.Now().UnixNano())
	return nil
}

// Login binds username to this socket's address.
func (c *Client) Login(username string) error {
	if err := model.ValidateUsername(username); err != nil {
		return fmt.Errorf("client: login: %w", err)
	}
	return c.Send(&protocol.Request{Type: protocol.TypeLogin, Username: username})
}

// Logout ends the session bound to this socket.
func (c *Client) Logout() error {
	return c.Send(&protocol.Request{Type: protocol.TypeLogout})
}

// Join subscribes to channel, which the server creates if needed.
func (c *Client) Join(channel string) error {
	if err := model.ValidateChannelName(channel); err != nil {
		return fmt.Errorf("client: join: %w", err)
	}
	return c.Send(&protocol.Request{Type: protocol.TypeJoin, Channel: channel})
}

// Leave unsubscribes from channel.
func (c *Client) Leave(channel string) error {
	return c.Send(&protocol.Request{Type: protocol.TypeLeave, Channel: channel})
}

// Say sends text to channel. Text longer than the wire field is truncated.
func (c *Client) Say(channel, text string) error {
	return c.Send(&protocol.Request{Type: protocol.TypeSay, Channel: channel, Text: text})
}

// List asks for the names of all live channels.
func (c *Client) List() error {
	return c.Send(&protocol.Request{Type: protocol.TypeList})
}

// Who asks for the members of channel.
func (c *Client) Who(channel string) error {
	return c.Send(&protocol.Request{Type: protocol.TypeWho, Channel: channel})
}

// Keepalive refreshes the session without any other effect.
func (c *Client) Keepalive() error {
	return c.Send(&protocol.Request{Type: protocol.TypeKeepalive})
}

// LastSend returns when a datagram was last written.
func (c *Client) LastSend() time.Time {
	return time.Unix(0, c.lastSend.Load())
}

// LocalAddr returns the client socket address.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Close closes the socket, which also ends ReceiveLoop.
func (c *Client) Close() error {
	return c.conn.Close()
}
