// Package protocol defines the fixed-layout datagram format exchanged between
// chat clients and the relay server.
//
// Every datagram starts with a 4-byte big-endian message type. Text fields are
// UTF-8, NUL-padded to a fixed width. Client and server use separate type
// spaces, so a tag is only meaningful together with its direction.
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// HeaderSize is the size of the message type tag.
	HeaderSize = 4

	// CountSize is the size of the entry count in LIST and WHO responses.
	CountSize = 4

	// Field widths.
	UsernameSize = 32
	ChannelSize  = 32
	TextSize     = 64

	// MaxDatagramSize is the largest UDP payload that fits an IPv4 datagram.
	MaxDatagramSize = 65507

	// MaxListEntries is how many channel names fit one LIST response.
	MaxListEntries = (MaxDatagramSize - HeaderSize - CountSize) / ChannelSize

	// MaxWhoEntries is how many usernames fit one WHO response.
	MaxWhoEntries = (MaxDatagramSize - HeaderSize - CountSize - ChannelSize) / UsernameSize
)

var (
	ErrShortPacket = errors.New("protocol: packet too short")
	ErrUnknownType = errors.New("protocol: unknown message type")
)

// RequestType tags a client to server datagram.
type RequestType uint32

const (
	TypeLogin RequestType = iota
	TypeLogout
	TypeJoin
	TypeLeave
	TypeSay
	TypeList
	TypeWho
	TypeKeepalive
)

func (t RequestType) String() string {
	switch t {
	case TypeLogin:
		return "LOGIN"
	case TypeLogout:
		return "LOGOUT"
	case TypeJoin:
		return "JOIN"
	case TypeLeave:
		return "LEAVE"
	case TypeSay:
		return "SAY_REQ"
	case TypeList:
		return "LIST_REQ"
	case TypeWho:
		return "WHO_REQ"
	case TypeKeepalive:
		return "KEEPALIVE"
	default:
		return fmt.Sprintf("REQUEST(%d)", uint32(t))
	}
}

// MinSize returns the smallest valid datagram for the type, or 0 if the type
// is unknown.
func (t RequestType) MinSize() int {
	switch t {
	case TypeLogout, TypeList, TypeKeepalive:
		return HeaderSize
	case TypeLogin:
		return HeaderSize + UsernameSize
	case TypeJoin, TypeLeave, TypeWho:
		return HeaderSize + ChannelSize
	case TypeSay:
		return HeaderSize + ChannelSize + TextSize
	default:
		return 0
	}
}

// ResponseType tags a server to client datagram.
type ResponseType uint32

const (
	TypeSayResponse ResponseType = iota
	TypeListResponse
	TypeWhoResponse
	TypeErrorResponse // reserved, never emitted
)

func (t ResponseType) String() string {
	switch t {
	case TypeSayResponse:
		return "SAY_RESP"
	case TypeListResponse:
		return "LIST_RESP"
	case TypeWhoResponse:
		return "WHO_RESP"
	case TypeErrorResponse:
		return "ERROR_RESP"
	default:
		return fmt.Sprintf("RESPONSE(%d)", uint32(t))
	}
}

// Request is a decoded client datagram. Only the fields used by Type are set.
type Request struct {
	Type     RequestType
	Username string // LOGIN
	Channel  string // JOIN, LEAVE, SAY_REQ, WHO_REQ
	Text     string // SAY_REQ
}

// Marshal encodes the request. Oversized text fields are truncated.
func (r *Request) Marshal() []byte {
	size := r.Type.MinSize()
	if size == 0 {
		size = HeaderSize
	}
	buf := make([]byte, size)
	binary.BigEndian.PutUint32(buf[0:4], uint32(r.Type))

	switch r.Type {
	case TypeLogin:
		putField(buf[4:4+UsernameSize], r.Username)
	case TypeJoin, TypeLeave, TypeWho:
		putField(buf[4:4+ChannelSize], r.Channel)
	case TypeSay:
		putField(buf[4:4+ChannelSize], r.Channel)
		putField(buf[4+ChannelSize:4+ChannelSize+TextSize], r.Text)
	}
	return buf
}

// UnmarshalRequest decodes a client datagram. Bytes past the layout of the
// type are ignored.
func UnmarshalRequest(data []byte) (*Request, error) {
	if len(data) < HeaderSize {
		return nil, ErrShortPacket
	}
	req := &Request{Type: RequestType(binary.BigEndian.Uint32(data[0:4]))}

	minSize := req.Type.MinSize()
	if minSize == 0 {
		return req, fmt.Errorf("%w: %d", ErrUnknownType, uint32(req.Type))
	}
	if len(data) < minSize {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortPacket, req.Type, minSize, len(data))
	}

	switch req.Type {
	case TypeLogin:
		req.Username = field(data[4 : 4+UsernameSize])
	case TypeJoin, TypeLeave:
		req.Channel = field(data[4 : 4+ChannelSize])
	case TypeWho:
		// Same offsets as JOIN today; kept separate so the layouts can diverge.
		req.Channel = field(data[4 : 4+ChannelSize])
	case TypeSay:
		req.Channel = field(data[4 : 4+ChannelSize])
		req.Text = field(data[4+ChannelSize : 4+ChannelSize+TextSize])
	}
	return req, nil
}

// Response is a decoded server datagram.
//
// SAY_RESP uses Channel, Username and Text. LIST_RESP lists channel names in
// Names. WHO_RESP carries the channel in Channel and its members in Names.
type Response struct {
	Type     ResponseType
	Channel  string
	Username string
	Text     string
	Names    []string
}

// Marshal encodes the response. Name lists longer than fit one datagram are
// cut to MaxListEntries or MaxWhoEntries.
func (r *Response) Marshal() []byte {
	switch r.Type {
	case TypeSayResponse:
		buf := make([]byte, HeaderSize+ChannelSize+UsernameSize+TextSize)
		binary.BigEndian.PutUint32(buf[0:4], uint32(r.Type))
		putField(buf[4:36], r.Channel)
		putField(buf[36:68], r.Username)
		putField(buf[68:132], r.Text)
		return buf

	case TypeListResponse:
		names := capNames(r.Names, MaxListEntries)
		buf := make([]byte, HeaderSize+CountSize+len(names)*ChannelSize)
		binary.BigEndian.PutUint32(buf[0:4], uint32(r.Type))
		binary.BigEndian.PutUint32(buf[4:8], uint32(len(names))) //nolint:gosec // capped above
		putNames(buf[8:], names, ChannelSize)
		return buf

	case TypeWhoResponse:
		names := capNames(r.Names, MaxWhoEntries)
		buf := make([]byte, HeaderSize+CountSize+ChannelSize+len(names)*UsernameSize)
		binary.BigEndian.PutUint32(buf[0:4], uint32(r.Type))
		binary.BigEndian.PutUint32(buf[4:8], uint32(len(names))) //nolint:gosec // capped above
		putField(buf[8:40], r.Channel)
		putNames(buf[40:], names, UsernameSize)
		return buf

	default:
		buf := make([]byte, HeaderSize)
		binary.BigEndian.PutUint32(buf[0:4], uint32(r.Type))
		return buf
	}
}

// UnmarshalResponse decodes a server datagram. A count that claims more
// entries than the datagram holds is an error.
func UnmarshalResponse(data []byte) (*Response, error) {
	if len(data) < HeaderSize {
		return nil, ErrShortPacket
	}
	resp := &Response{Type: ResponseType(binary.BigEndian.Uint32(data[0:4]))}

	switch resp.Type {
	case TypeSayResponse:
		if len(data) < HeaderSize+ChannelSize+UsernameSize+TextSize {
			return nil, fmt.Errorf("%w: %s", ErrShortPacket, resp.Type)
		}
		resp.Channel = field(data[4:36])
		resp.Username = field(data[36:68])
		resp.Text = field(data[68:132])

	case TypeListResponse:
		names, err := readNames(data, HeaderSize+CountSize, ChannelSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, resp.Type)
		}
		resp.Names = names

	case TypeWhoResponse:
		if len(data) < HeaderSize+CountSize+ChannelSize {
			return nil, fmt.Errorf("%w: %s", ErrShortPacket, resp.Type)
		}
		resp.Channel = field(data[8:40])
		names, err := readNames(data, HeaderSize+CountSize+ChannelSize, UsernameSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, resp.Type)
		}
		resp.Names = names

	case TypeErrorResponse:
		// no payload defined yet

	default:
		return resp, fmt.Errorf("%w: %d", ErrUnknownType, uint32(resp.Type))
	}
	return resp, nil
}

// Truncate cuts s to at most width bytes without splitting a UTF-8 sequence.
func Truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	cut := width
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func putField(dst []byte, s string) {
	copy(dst, Truncate(s, len(dst)))
}

// field strips the NUL padding and replaces invalid UTF-8. The result never
// exceeds the field width, so a decoded name re-encodes to the same string.
func field(b []byte) string {
	return Truncate(strings.ToValidUTF8(string(bytes.TrimRight(b, "\x00")), "\uFFFD"), len(b))
}

func putNames(dst []byte, names []string, width int) {
	for i, n := range names {
		putField(dst[i*width:(i+1)*width], n)
	}
}

func capNames(names []string, limit int) []string {
	if len(names) > limit {
		return names[:limit]
	}
	return names
}

// readNames reads the count at data[4:8] and that many fixed-width entries
// starting at offset.
func readNames(data []byte, offset, width int) ([]string, error) {
	if len(data) < offset {
		return nil, ErrShortPacket
	}
	count := uint64(binary.BigEndian.Uint32(data[4:8]))
	if uint64(len(data)-offset) < count*uint64(width) {
		return nil, ErrShortPacket
	}
	out := make([]string, 0, count)
	for i := 0; i < int(count); i++ { //nolint:gosec // bounded by len(data)
		start := offset + i*width
		out = append(out, field(data[start:start+width]))
	}
	return out, nil
}
