package client

import (
	"errors"
	"maps"
	"slices"
)

var (
	ErrNotSubscribed = errors.New("not subscribed to that channel")
	ErrNoActive      = errors.New("no active channel, join or switch to one")
)

// Subscriptions tracks the channels this client joined and the one that
// plain text goes to. It mirrors what the client sent; the server keeps no
// acknowledgement.
type Subscriptions struct {
	joined map[string]struct{}
	active string
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{joined: make(map[string]struct{})}
}

// Join records channel and makes it active.
func (s *Subscriptions) Join(channel string) {
	s.joined[channel] = struct{}{}
	s.active = channel
}

// Leave forgets channel. Leaving the active channel leaves none active.
func (s *Subscriptions) Leave(channel string) error {
	if _, ok := s.joined[channel]; !ok {
		return ErrNotSubscribed
	}
	delete(s.joined, channel)
	if s.active == channel {
		s.active = ""
	}
	return nil
}

// Switch makes an already joined channel active.
func (s *Subscriptions) Switch(channel string) error {
	if _, ok := s.joined[channel]; !ok {
		return ErrNotSubscribed
	}
	s.active = channel
	return nil
}

// Active returns the active channel.
func (s *Subscriptions) Active() (string, error) {
	if s.active == "" {
		return "", ErrNoActive
	}
	return s.active, nil
}

// Joined returns the joined channels in sorted order.
func (s *Subscriptions) Joined() []string {
	return slices.Sorted(maps.Keys(s.joined))
}
