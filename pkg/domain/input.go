package domain

import "encoding/json"

// RoleUser is the message role for caller-supplied prompts.
const RoleUser = "user"

// Message is one conversational message in the executor's input state.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AgentInput is the wire input state handed to the executor for one turn.
// Exactly one of the three forms is populated: fresh messages, resume
// decisions, or a raw passthrough object.
type AgentInput struct {
	Messages []Message  `json:"messages,omitempty"`
	Resume   []Decision `json:"resume,omitempty"`

	// Raw, when set, is marshaled verbatim in place of the struct.
	Raw map[string]any `json:"-"`
}

// MarshalJSON emits the raw object untouched when present.
func (in AgentInput) MarshalJSON() ([]byte, error) {
	if in.Raw != nil {
		return json.Marshal(in.Raw)
	}
	type plain AgentInput
	return json.Marshal(plain(in))
}

// PrepareInput builds a valid AgentInput from exactly one of a message
// string, a decision list, or a raw passthrough object. A nil decisions
// slice means "not provided"; an allocated empty slice counts as provided.
func PrepareInput(message string, decisions []Decision, raw map[string]any) (AgentInput, error) {
	provided := 0
	if message != "" {
		provided++
	}
	if decisions != nil {
		provided++
	}
	if raw != nil {
		provided++
	}

	switch {
	case provided == 0:
		return AgentInput{}, ErrNoInput
	case provided > 1:
		return AgentInput{}, ErrConflictingInput
	}

	if message != "" {
		return AgentInput{Messages: []Message{{Role: RoleUser, Content: message}}}, nil
	}
	if decisions != nil {
		return AgentInput{Resume: decisions}, nil
	}
	return AgentInput{Raw: raw}, nil
}
