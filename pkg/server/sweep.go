package server

import (
	"log/slog"
	"slices"
	"time"
)

// Sweep evicts every session idle for longer than the eviction timeout and
// removes its user from all channels. It returns the evicted usernames.
func (c *Core) Sweep() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.updateGauges()

	now := c.now()
	stale := slices.Collect(c.sessions.StaleAddresses(now, c.evictAfter))

	var evicted []string
	for _, addr := range stale {
		sess, ok := c.sessions.Get(addr)
		if !ok {
			continue
		}
		username, _ := c.sessions.Unbind(addr)
		slog.Info("timing out user", "user", username, "addr", addr, "idle", sess.IdleFor(now).Truncate(time.Second))
		c.removeUser(username)
		c.metrics.Evictions.Add(1)
		evicted = append(evicted, username)
	}
	slices.Sort(evicted)
	return evicted
}
