package domain

import (
	"context"
	"testing"
)

func TestTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"streaming continues", StatusStreaming, false},
		{"complete ends the turn", StatusComplete, true},
		{"error ends the turn", StatusError, true},
		{"interrupt ends the turn", StatusInterrupt, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Event{Status: tt.status}
			if got := ev.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJoinHooksFansOut(t *testing.T) {
	var events, interrupts, resumes int

	joined := JoinHooks(
		Hooks{
			OnEvent: func(context.Context, *Event) { events++ },
		},
		Hooks{}, // all nil, must be skipped
		Hooks{
			OnEvent:     func(context.Context, *Event) { events++ },
			OnInterrupt: func(context.Context, *Interrupt) { interrupts++ },
			OnResume:    func(context.Context, []Decision) { resumes++ },
		},
	)

	ctx := context.Background()
	joined.OnEvent(ctx, &Event{Status: StatusStreaming})
	joined.OnInterrupt(ctx, &Interrupt{})
	joined.OnResume(ctx, []Decision{{"type": "approve"}})

	if events != 2 {
		t.Errorf("expected 2 event callbacks, got %d", events)
	}
	if interrupts != 1 {
		t.Errorf("expected 1 interrupt callback, got %d", interrupts)
	}
	if resumes != 1 {
		t.Errorf("expected 1 resume callback, got %d", resumes)
	}
}
