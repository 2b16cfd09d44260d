package interrupt

import (
	"fmt"
	"reflect"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// envelope is the loose view of an interrupt payload. Executors emit either
// the request/config lists directly or wrap them one level deep under value.
type envelope struct {
	ActionRequests []any `mapstructure:"action_requests"`
	ReviewConfigs  []any `mapstructure:"review_configs"`
	Value          any   `mapstructure:"value"`
}

// Normalize coerces one raw interrupt value, in any recognized shape, into
// the canonical payload. Unrecognized shapes yield an empty payload; this
// function never fails.
func Normalize(v any) domain.Interrupt {
	out := domain.NewInterrupt()

	actions, configs, ok := split(v)
	if !ok {
		return out
	}

	for i, a := range actions {
		out.ActionRequests = append(out.ActionRequests, DecodeActionRequest(a, i))
	}
	for _, c := range configs {
		out.ReviewConfigs = append(out.ReviewConfigs, DecodeReviewConfig(c))
	}
	return out
}

// split separates a raw interrupt value into its action-request and
// review-config lists, reporting whether the shape was recognized.
func split(v any) (actions, configs []any, ok bool) {
	if v == nil {
		return nil, nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		switch rv.Len() {
		case 2:
			// Elements that are not sequences degrade to empty rather
			// than failing the whole payload.
			actions, _ = toList(rv.Index(0).Interface())
			configs, _ = toList(rv.Index(1).Interface())
			return actions, configs, true
		case 1:
			return splitPayload(rv.Index(0).Interface())
		default:
			return nil, nil, false
		}
	}

	return splitPayload(v)
}

// splitPayload reads the request/config lists from a mapping or struct,
// unwrapping a value envelope when the fields are not exposed directly.
func splitPayload(v any) (actions, configs []any, ok bool) {
	var env envelope
	if err := mapstructure.Decode(v, &env); err != nil {
		return nil, nil, false
	}

	if env.ActionRequests != nil || env.ReviewConfigs != nil {
		return env.ActionRequests, env.ReviewConfigs, true
	}
	if env.Value != nil {
		return splitPayload(env.Value)
	}
	return nil, nil, false
}

// DecodeActionRequest coerces one action-request item, mapping-style or
// attribute-style, into the canonical form. Missing tool_call_id falls back
// to a positional id and args is never nil.
func DecodeActionRequest(v any, index int) domain.ActionRequest {
	var req domain.ActionRequest
	_ = mapstructure.Decode(v, &req)

	if req.ToolCallID == "" {
		req.ToolCallID = fmt.Sprintf("call_%d", index)
	}
	if req.Args == nil {
		req.Args = map[string]any{}
	}
	return req
}

// DecodeReviewConfig coerces one review-config item into the canonical form.
// AllowedDecisions is never nil, so it encodes as [] rather than null.
func DecodeReviewConfig(v any) domain.ReviewConfig {
	var cfg domain.ReviewConfig
	_ = mapstructure.Decode(v, &cfg)

	if cfg.AllowedDecisions == nil {
		cfg.AllowedDecisions = []string{}
	}
	return cfg
}

// toList converts any slice or array into []any.
func toList(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
