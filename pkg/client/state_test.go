package client

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSubscriptions(t *testing.T) {
	s := NewSubscriptions()
	if _, err := s.Active(); !errors.Is(err, ErrNoActive) {
		t.Fatalf("new Subscriptions has an active channel")
	}

	s.Join("Common")
	s.Join("golang")
	if got, _ := s.Active(); got != "golang" {
		t.Errorf("Active = %q, want golang", got)
	}
	if diff := cmp.Diff([]string{"Common", "golang"}, s.Joined()); diff != "" {
		t.Errorf("Joined mismatch (-want +got):\n%s", diff)
	}

	if err := s.Switch("random"); !errors.Is(err, ErrNotSubscribed) {
		t.Errorf("Switch(random) = %v, want ErrNotSubscribed", err)
	}
	if err := s.Switch("Common"); err != nil {
		t.Fatalf("Switch(Common): %v", err)
	}

	if err := s.Leave("golang"); err != nil {
		t.Fatalf("Leave(golang): %v", err)
	}
	if got, _ := s.Active(); got != "Common" {
		t.Errorf("leaving an inactive channel changed Active to %q", got)
	}

	if err := s.Leave("Common"); err != nil {
		t.Fatalf("Leave(Common): %v", err)
	}
	if _, err := s.Active(); !errors.Is(err, ErrNoActive) {
		t.Errorf("leaving the active channel kept it active")
	}
	if err := s.Leave("Common"); !errors.Is(err, ErrNotSubscribed) {
		t.Errorf("second Leave = %v, want ErrNotSubscribed", err)
	}
}
