package stream

import (
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/tendril/pkg/domain"
)

// SerializeToolCalls coerces native tool call values into domain.ToolCall,
// dropping any whose name is in skip. Order is preserved and args are never
// nil. Values that decode partially keep whatever fields were recovered.
func SerializeToolCalls(calls []any, skip ...string) []domain.ToolCall {
	hidden := make(map[string]struct{}, len(skip))
	for _, name := range skip {
		hidden[name] = struct{}{}
	}

	out := make([]domain.ToolCall, 0, len(calls))
	for _, raw := range calls {
		var call domain.ToolCall
		// Best effort: attribute-style and mapping-style calls both decode,
		// and junk leaves the zero value.
		_ = mapstructure.Decode(raw, &call)
		if _, skipped := hidden[call.Name]; skipped {
			continue
		}
		if call.Args == nil {
			call.Args = map[string]any{}
		}
		out = append(out, call)
	}
	return out
}
