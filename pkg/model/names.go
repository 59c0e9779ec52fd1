package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NicolasHaas/chanrelay/pkg/protocol"
)

const (
	MaxUsernameLength    = protocol.UsernameSize
	MaxChannelNameLength = protocol.ChannelSize
	MaxTextLength        = protocol.TextSize

	DefaultChannel = "Common"
)

var ErrUsernameEmpty = errors.New("username must not be empty")
var ErrUsernameTooLong = fmt.Errorf("username must not exceed %d bytes", MaxUsernameLength)
var ErrChannelNameEmpty = errors.New("channel name must not be empty")
var ErrChannelNameTooLong = fmt.Errorf("channel name must not exceed %d bytes", MaxChannelNameLength)
var ErrNameHasNUL = errors.New("name must not contain NUL bytes")

// ValidateUsername checks that a username survives the wire unchanged:
// non-empty, at most 32 bytes of UTF-8 and free of NUL bytes.
// The server itself accepts any LOGIN; clients call this before sending.
func ValidateUsername(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrUsernameEmpty
	}
	if strings.ContainsRune(name, 0) {
		return ErrNameHasNUL
	}
	if len(name) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	return nil
}

// ValidateChannelName applies the same rules to channel names.
func ValidateChannelName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrChannelNameEmpty
	}
	if strings.ContainsRune(name, 0) {
		return ErrNameHasNUL
	}
	if len(name) > MaxChannelNameLength {
		return ErrChannelNameTooLong
	}
	return nil
}
