package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewInterruptMarshalsEmptySequences(t *testing.T) {
	data, err := json.Marshal(NewInterrupt())
	if err != nil {
		t.Fatal(err)
	}

	got := string(data)
	if strings.Contains(got, "null") {
		t.Errorf("empty interrupt marshaled with null sequence: %s", got)
	}
	if got != `{"action_requests":[],"review_configs":[]}` {
		t.Errorf("unexpected encoding: %s", got)
	}
}

func TestDecisionValidate(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		wantErr  bool
	}{
		{"approve", NewDecision(DecisionApprove), false},
		{"reject", NewDecision(DecisionReject), false},
		{"custom with payload", Decision{"type": "custom", "args": map[string]any{"k": "v"}}, false},
		{"executor-defined type", Decision{"type": "edit", "args": map[string]any{}}, false},
		{"missing type", Decision{"args": map[string]any{}}, true},
		{"non-string type", Decision{"type": 7}, true},
		{"empty type", Decision{"type": ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decision.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunConfigThreadID(t *testing.T) {
	cfg := RunConfig{}
	if cfg.ThreadID() != "" {
		t.Errorf("ThreadID() on empty config = %q", cfg.ThreadID())
	}

	cfg.SetThreadID("t-1")
	if cfg.ThreadID() != "t-1" {
		t.Errorf("ThreadID() = %q, want t-1", cfg.ThreadID())
	}

	// Existing configurable section is kept, not replaced.
	cfg2 := RunConfig{"configurable": map[string]any{"model": "m"}}
	cfg2.SetThreadID("t-2")
	if cfg2.ThreadID() != "t-2" {
		t.Errorf("ThreadID() = %q, want t-2", cfg2.ThreadID())
	}
	conf := cfg2["configurable"].(map[string]any)
	if conf["model"] != "m" {
		t.Errorf("configurable.model lost on SetThreadID")
	}
}
