package server

import (
	"errors"
	"log/slog"
	"net/netip"

	"github.com/NicolasHaas/chanrelay/pkg/protocol"
)

// HandleDatagram applies one inbound datagram and returns the datagrams to
// send in response. Malformed datagrams and requests that violate the
// protocol sequence produce no output.
func (c *Core) HandleDatagram(from netip.AddrPort, data []byte) []Outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.updateGauges()

	c.metrics.DatagramsIn.Add(1)

	// Any datagram counts as liveness, even one we cannot parse.
	c.sessions.Touch(from, c.now())

	req, err := protocol.UnmarshalRequest(data)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownType) {
			slog.Debug("unknown message type", "from", from, "type", uint32(req.Type))
			c.metrics.Drop(dropUnknownType)
			return nil
		}
		slog.Debug("dropping malformed datagram", "from", from, "len", len(data), "err", err)
		c.metrics.Drop(dropMalformed)
		return nil
	}

	if req.Type == protocol.TypeLogin {
		c.handleLogin(from, req)
		return nil
	}

	username, ok := c.sessions.UsernameFor(from)
	if !ok {
		slog.Debug("ignoring request from unknown sender", "from", from, "type", req.Type)
		c.metrics.Drop(dropNotLoggedIn)
		return nil
	}

	switch req.Type {
	case protocol.TypeLogout:
		c.handleLogout(from, username)
	case protocol.TypeJoin:
		c.handleJoin(username, req.Channel)
	case protocol.TypeLeave:
		c.handleLeave(username, req.Channel)
	case protocol.TypeSay:
		return c.handleSay(username, req.Channel, req.Text)
	case protocol.TypeList:
		return c.handleList(from)
	case protocol.TypeWho:
		return c.handleWho(from, req.Channel)
	case protocol.TypeKeepalive:
		// Touch above already did the work.
	}
	return nil
}

func (c *Core) handleLogin(from netip.AddrPort, req *protocol.Request) {
	displaced := c.sessions.Bind(from, req.Username, c.now())
	if displaced != "" {
		// The old user lost its only address; its memberships are unreachable.
		slog.Info("address rebound", "from", from, "old_user", displaced, "user", req.Username)
		c.removeUser(displaced)
	}
	slog.Info("login", "user", req.Username, "from", from)
}

func (c *Core) handleLogout(from netip.AddrPort, username string) {
	c.sessions.Unbind(from)
	c.removeUser(username)
	slog.Info("logout", "user", username, "from", from)
}

func (c *Core) handleJoin(username, channel string) {
	if created := c.channels.Join(channel, username); created {
		slog.Debug("channel created", "channel", channel)
	}
	slog.Info("joined channel", "user", username, "channel", channel)
}

func (c *Core) handleLeave(username, channel string) {
	left, deleted := c.channels.Leave(channel, username)
	if !left {
		slog.Debug("leave ignored: not a member", "user", username, "channel", channel)
		return
	}
	slog.Info("left channel", "user", username, "channel", channel)
	if deleted {
		slog.Debug("channel deleted", "channel", channel)
	}
}

func (c *Core) handleSay(username, channel, text string) []Outbound {
	if !c.channels.IsMember(channel, username) {
		slog.Debug("ignoring say to non-joined channel", "user", username, "channel", channel)
		c.metrics.Drop(dropNotMember)
		return nil
	}

	packet := (&protocol.Response{
		Type:     protocol.TypeSayResponse,
		Channel:  channel,
		Username: username,
		Text:     text,
	}).Marshal()

	members := c.channels.Members(channel)
	out := make([]Outbound, 0, len(members))
	for _, member := range members {
		// Resolve now: the member may have re-logged in from a new address.
		addr, ok := c.sessions.AddressFor(member)
		if !ok {
			c.metrics.BroadcastSkips.Add(1)
			continue
		}
		out = append(out, Outbound{Addr: addr, Data: packet})
	}

	c.metrics.MessagesRelayed.Add(1)
	slog.Debug("relayed message", "channel", channel, "user", username, "recipients", len(out))
	return out
}

func (c *Core) handleList(from netip.AddrPort) []Outbound {
	resp := &protocol.Response{
		Type:  protocol.TypeListResponse,
		Names: c.channels.ChannelNames(),
	}
	return []Outbound{{Addr: from, Data: resp.Marshal()}}
}

func (c *Core) handleWho(from netip.AddrPort, channel string) []Outbound {
	if !c.channels.Exists(channel) {
		c.metrics.Drop(dropNoChannel)
		return nil
	}
	resp := &protocol.Response{
		Type:    protocol.TypeWhoResponse,
		Channel: channel,
		Names:   c.channels.Members(channel),
	}
	return []Outbound{{Addr: from, Data: resp.Marshal()}}
}
