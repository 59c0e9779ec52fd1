package client

import (
	"testing"

	"github.com/pterm/pterm"

	"github.com/NicolasHaas/chanrelay/pkg/protocol"
)

func TestFormatResponse(t *testing.T) {
	tests := []struct {
		name string
		resp protocol.Response
		want string
	}{
		{
			name: "say",
			resp: protocol.Response{Type: protocol.TypeSayResponse, Channel: "Common", Username: "alice", Text: "hi"},
			want: "[Common][alice]: hi",
		},
		{
			name: "list",
			resp: protocol.Response{Type: protocol.TypeListResponse, Names: []string{"Common", "golang"}},
			want: "Existing channels:\n  Common\n  golang",
		},
		{
			name: "empty list",
			resp: protocol.Response{Type: protocol.TypeListResponse},
			want: "Existing channels:",
		},
		{
			name: "who",
			resp: protocol.Response{Type: protocol.TypeWhoResponse, Channel: "Common", Names: []string{"alice", "bob"}},
			want: "Users on channel Common:\n  alice\n  bob",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatResponse(&tt.resp)
			if !ok {
				t.Fatalf("FormatResponse: not displayed")
			}
			if got := pterm.RemoveColorFromString(got); got != tt.want {
				t.Errorf("FormatResponse = %q, want %q", got, tt.want)
			}
		})
	}

	if _, ok := FormatResponse(&protocol.Response{Type: protocol.TypeErrorResponse}); ok {
		t.Errorf("ERROR_RESP should not be displayed")
	}
}
