package client

import (
	"strings"

	"github.com/pterm/pterm"

	"github.com/NicolasHaas/chanrelay/pkg/protocol"
)

// FormatResponse renders a server datagram for the terminal. It returns
// false for response types the client does not display.
func FormatResponse(resp *protocol.Response) (string, bool) {
	switch resp.Type {
	case protocol.TypeSayResponse:
		return FormatSay(resp.Channel, resp.Username, resp.Text), true
	case protocol.TypeListResponse:
		return formatListing("Existing channels:", resp.Names), true
	case protocol.TypeWhoResponse:
		return formatListing("Users on channel "+resp.Channel+":", resp.Names), true
	default:
		return "", false
	}
}

// FormatSay renders a chat line as [channel][user]: text.
func FormatSay(channel, username, text string) string {
	return "[" + pterm.FgCyan.Sprint(channel) + "][" + pterm.FgGreen.Sprint(username) + "]: " + text
}

func formatListing(title string, names []string) string {
	var b strings.Builder
	b.WriteString(pterm.Bold.Sprint(title))
	for _, n := range names {
		b.WriteString("\n  ")
		b.WriteString(n)
	}
	return b.String()
}
