package domain

import "fmt"

// DecisionType enumerates the recognized resume instructions.
type DecisionType string

const (
	DecisionApprove DecisionType = "approve"
	DecisionReject  DecisionType = "reject"
	DecisionCustom  DecisionType = "custom"
)

// Decision is a caller-supplied resume instruction. Beyond the required
// "type" key it is opaque: custom decisions may carry arbitrary payload
// keys which are forwarded to the executor verbatim.
type Decision map[string]any

// NewDecision builds a bare decision of the given type.
func NewDecision(t DecisionType) Decision {
	return Decision{"type": string(t)}
}

// Type returns the decision type, or "" when the key is missing or not a string.
func (d Decision) Type() DecisionType {
	t, _ := d["type"].(string)
	return DecisionType(t)
}

// Validate checks the decision shape: a "type" key holding a non-empty
// string. The value itself is executor-defined (review configs may allow
// types beyond the built-in ones) and the rest of the payload is not
// inspected.
func (d Decision) Validate() error {
	if _, ok := d["type"]; !ok {
		return fmt.Errorf("%w: missing type", ErrInvalidDecision)
	}
	if d.Type() == "" {
		return fmt.Errorf("%w: type must be a non-empty string", ErrInvalidDecision)
	}
	return nil
}
