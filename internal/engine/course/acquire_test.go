package course

import (
	"context"
	"errors"
	"testing"

	"github.com/anatolykoptev/go_course/internal/engine"
)

func TestJoinFragments(t *testing.T) {
	tests := []struct {
		frags []engine.CaptionFragment
		want  string
	}{
		{nil, ""},
		{[]engine.CaptionFragment{{Text: "Hello"}, {Text: "world"}}, "Hello world"},
		{[]engine.CaptionFragment{{Text: "b", Start: 2}, {Text: "a", Start: 1}}, "b a"},
	}
	for _, tt := range tests {
		if got := JoinFragments(tt.frags); got != tt.want {
			t.Errorf("JoinFragments(%v) = %q, want %q", tt.frags, got, tt.want)
		}
	}
}

func TestAcquire(t *testing.T) {
	fetchErr := errors.New("no captions")
	tests := []struct {
		name      string
		captioner *fakeCaptioner
		status    AcquisitionStatus
		text      string
	}{
		{"text", &fakeCaptioner{frags: []engine.CaptionFragment{{Text: "Hello"}, {Text: "world"}}}, AcquiredText, "Hello world"},
		{"empty", &fakeCaptioner{}, AcquiredEmpty, ""},
		{"failed", &fakeCaptioner{err: fetchErr}, AcquireFailed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Acquire(context.Background(), tt.captioner, "vid")
			if got.Status != tt.status || got.Text != tt.text {
				t.Errorf("Acquire() = %+v, want status %v text %q", got, tt.status, tt.text)
			}
			if got.Available() != (tt.status == AcquiredText) {
				t.Errorf("Available() = %v", got.Available())
			}
			if tt.status == AcquireFailed && !errors.Is(got.Reason, fetchErr) {
				t.Errorf("Reason = %v, want %v", got.Reason, fetchErr)
			}
			if tt.captioner.calls != 1 {
				t.Errorf("captioner calls = %d, want 1", tt.captioner.calls)
			}
		})
	}
}
