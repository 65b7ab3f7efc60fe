package mediaquery

import (
	"context"
	"errors"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusPlaying, "Playing"},
		{StatusNotPlaying, "NotPlaying"},
		{StatusUnknown, "Unknown"},
		{Status(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestMock_DefaultsToUnknown(t *testing.T) {
	m := NewMock()

	status, err := m.PlaybackStatus(context.Background(), "tok")
	if err != nil {
		t.Fatalf("PlaybackStatus failed: %v", err)
	}
	if status != StatusUnknown {
		t.Errorf("status = %v, want Unknown", status)
	}
}

func TestMock_SetStatusAndError(t *testing.T) {
	m := NewMock()
	m.SetStatus("tok", StatusPlaying)

	status, err := m.PlaybackStatus(context.Background(), "tok")
	if err != nil {
		t.Fatalf("PlaybackStatus failed: %v", err)
	}
	if status != StatusPlaying {
		t.Errorf("status = %v, want Playing", status)
	}

	m.SetError(errors.New("gone"))
	status, err = m.PlaybackStatus(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected error")
	}
	if status != StatusUnknown {
		t.Errorf("status = %v, want Unknown on error", status)
	}
}

func TestStubQuerier(t *testing.T) {
	status, err := stubQuerier{}.PlaybackStatus(context.Background(), "anything")
	if err != nil {
		t.Fatalf("PlaybackStatus failed: %v", err)
	}
	if status != StatusUnknown {
		t.Errorf("status = %v, want Unknown", status)
	}
}
