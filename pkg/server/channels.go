package server

import (
	"slices"
)

// ChannelRegistry maps channel names to their member usernames. Channels
// exist only while they have members: the first JOIN creates one and the
// last LEAVE deletes it.
//
// Members are stored by name, not by session. Resolving a member to an
// address is the SessionDirectory's job and may fail for stale members.
//
// ChannelRegistry is not safe for concurrent use; Core serialises access.
type ChannelRegistry struct {
	members map[string]map[string]struct{} // channel -> usernames
	joined  map[string]map[string]struct{} // username -> channels
}

// NewChannelRegistry creates an empty registry.
func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{
		members: make(map[string]map[string]struct{}),
		joined:  make(map[string]map[string]struct{}),
	}
}

// Join adds username to channel, creating the channel if needed. It reports
// whether the channel was created.
func (cr *ChannelRegistry) Join(channel, username string) (created bool) {
	set, ok := cr.members[channel]
	if !ok {
		set = make(map[string]struct{})
		cr.members[channel] = set
		created = true
	}
	set[username] = struct{}{}

	chans, ok := cr.joined[username]
	if !ok {
		chans = make(map[string]struct{})
		cr.joined[username] = chans
	}
	chans[channel] = struct{}{}
	return created
}

// Leave removes username from channel. It reports whether username was a
// member and whether the channel was deleted as a result.
func (cr *ChannelRegistry) Leave(channel, username string) (left, deleted bool) {
	set, ok := cr.members[channel]
	if !ok {
		return false, false
	}
	if _, ok := set[username]; !ok {
		return false, false
	}

	delete(set, username)
	if chans, ok := cr.joined[username]; ok {
		delete(chans, channel)
		if len(chans) == 0 {
			delete(cr.joined, username)
		}
	}
	if len(set) == 0 {
		delete(cr.members, channel)
		return true, true
	}
	return true, false
}

// IsMember reports whether username belongs to channel.
func (cr *ChannelRegistry) IsMember(channel, username string) bool {
	_, ok := cr.members[channel][username]
	return ok
}

// Exists reports whether channel currently has members.
func (cr *ChannelRegistry) Exists(channel string) bool {
	_, ok := cr.members[channel]
	return ok
}

// Members returns a sorted snapshot of channel's members, or nil if the
// channel does not exist.
func (cr *ChannelRegistry) Members(channel string) []string {
	set, ok := cr.members[channel]
	if !ok {
		return nil
	}
	return sortedKeys(set)
}

// ChannelNames returns a sorted snapshot of all channel names.
func (cr *ChannelRegistry) ChannelNames() []string {
	names := make([]string, 0, len(cr.members))
	for name := range cr.members {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ChannelsOf returns a sorted snapshot of the channels username belongs to.
func (cr *ChannelRegistry) ChannelsOf(username string) []string {
	return sortedKeys(cr.joined[username])
}

// RemoveUserEverywhere removes username from every channel it belongs to and
// returns the channels that were deleted because they became empty.
func (cr *ChannelRegistry) RemoveUserEverywhere(username string) (deleted []string) {
	for _, channel := range cr.ChannelsOf(username) {
		if _, gone := cr.Leave(channel, username); gone {
			deleted = append(deleted, channel)
		}
	}
	return deleted
}

// Count returns the number of live channels.
func (cr *ChannelRegistry) Count() int {
	return len(cr.members)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
