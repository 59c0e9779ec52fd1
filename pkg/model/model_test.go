package model

import (
	"strings"
	"testing"
	"time"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid simple", "alice", nil},
		{"valid with space", "alice smith", nil},
		{"valid unicode", "ñoño", nil},
		{"valid max length", strings.Repeat("a", MaxUsernameLength), nil},
		{"empty", "", ErrUsernameEmpty},
		{"blank", "   ", ErrUsernameEmpty},
		{"nul byte", "al\x00ice", ErrNameHasNUL},
		{"too long", strings.Repeat("a", MaxUsernameLength+1), ErrUsernameTooLong},
		{"multibyte too long", strings.Repeat("é", 17), ErrUsernameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.input)
			if err != tt.wantErr {
				t.Errorf("ValidateUsername(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateChannelName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr error
	}{
		{"Common", nil},
		{"", ErrChannelNameEmpty},
		{"gen\x00eral", ErrNameHasNUL},
		{strings.Repeat("c", MaxChannelNameLength+1), ErrChannelNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if err := ValidateChannelName(tt.input); err != tt.wantErr {
				t.Errorf("ValidateChannelName(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestSessionIdleFor(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{Username: "alice", LastSeen: base}
	if got := s.IdleFor(base.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("IdleFor = %v, want 90s", got)
	}
}
