package client

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultKeepaliveCheck is how often KeepaliveLoop looks at the last send.
	DefaultKeepaliveCheck = 5 * time.Second
	// DefaultKeepaliveQuiet is the silence after which a KEEPALIVE is sent.
	// It must stay well under the server's eviction timeout.
	DefaultKeepaliveQuiet = 60 * time.Second
)

// KeepaliveLoop sends a KEEPALIVE whenever nothing has been sent for longer
// than quiet. It checks every check interval and returns when ctx is done.
func (c *Client) KeepaliveLoop(ctx context.Context, check, quiet time.Duration) {
	if check <= 0 {
		check = DefaultKeepaliveCheck
	}
	if quiet <= 0 {
		quiet = DefaultKeepaliveQuiet
	}

	ticker := time.NewTicker(check)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Since(c.LastSend()) <= quiet {
				continue
			}
			if err := c.Keepalive(); err != nil {
				slog.Warn("keepalive failed", "err", err)
			}
		}
	}
}
