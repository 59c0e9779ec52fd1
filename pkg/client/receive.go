package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/NicolasHaas/chanrelay/pkg/protocol"
)

// ReceiveTimeout bounds each socket read so ReceiveLoop notices cancellation.
const ReceiveTimeout = 5 * time.Second

// ResponseHandler is called for every decoded server datagram.
type ResponseHandler func(resp *protocol.Response)

// ReceiveLoop reads server datagrams until ctx is cancelled or the socket is
// closed. Datagrams that fail to decode are skipped.
func (c *Client) ReceiveLoop(ctx context.Context, handler ResponseHandler) error {
	buf := make([]byte, protocol.MaxDatagramSize)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(ReceiveTimeout)); err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("client: set read deadline: %w", err)
		}

		n, err := c.conn.Read(buf)
		if err != nil {
			switch {
			case errors.Is(err, os.ErrDeadlineExceeded):
				continue
			case errors.Is(err, net.ErrClosed):
				return nil
			}
			// A prior write to a closed port surfaces here as ECONNREFUSED.
			slog.Debug("receive failed", "err", err)
			continue
		}

		resp, err := protocol.UnmarshalResponse(buf[:n])
		if err != nil {
			slog.Debug("dropping server datagram", "size", n, "err", err)
			continue
		}
		handler(resp)
	}
}
