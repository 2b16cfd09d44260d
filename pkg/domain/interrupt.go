package domain

// Interrupt is the canonical form of a human-approval pause, regardless of
// which wire representation the executor used to raise it.
// Both slices are always non-nil after normalization, possibly empty.
type Interrupt struct {
	ActionRequests []ActionRequest `json:"action_requests"`
	ReviewConfigs  []ReviewConfig  `json:"review_configs"`
}

// NewInterrupt returns an empty Interrupt with both sequences allocated,
// so that JSON encoding yields [] rather than null.
func NewInterrupt() Interrupt {
	return Interrupt{
		ActionRequests: []ActionRequest{},
		ReviewConfigs:  []ReviewConfig{},
	}
}

// ActionRequest describes one pending tool invocation awaiting review.
type ActionRequest struct {
	Tool        string         `json:"tool" mapstructure:"tool"`
	ToolCallID  string         `json:"tool_call_id" mapstructure:"tool_call_id"`
	Args        map[string]any `json:"args" mapstructure:"args"`
	Description string         `json:"description,omitempty" mapstructure:"description"`
}

// ReviewConfig constrains which decisions the reviewer may take for the
// action request at the same position. AllowedDecisions is never nil.
type ReviewConfig struct {
	AllowedDecisions []string `json:"allowed_decisions" mapstructure:"allowed_decisions"`
}
