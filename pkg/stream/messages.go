package stream

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/tendril/pkg/domain"
)

// message is the decoded view of one native stream message. Executors emit
// messages as mappings or as attribute-bearing objects; mapstructure accepts
// both.
type message struct {
	Type      string `mapstructure:"type"`
	Role      string `mapstructure:"role"`
	Name      string `mapstructure:"name"`
	Content   any    `mapstructure:"content"`
	ToolCalls []any  `mapstructure:"tool_calls"`
}

// toolResult reports whether the message is the output of a tool invocation.
func (m message) toolResult() bool {
	return m.Type == "tool" || m.Role == "tool"
}

func decodeMessage(raw any) (message, bool) {
	var msg message
	if err := mapstructure.Decode(raw, &msg); err != nil {
		return message{}, false
	}
	return msg, true
}

// extractText pulls displayable text out of a message content value. Content
// is either a plain string or a list of content blocks whose text parts are
// concatenated. Anything else yields no text.
func extractText(content any) (string, bool) {
	switch v := content.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	}

	blocks, ok := asList(content)
	if !ok {
		return "", false
	}
	var sb strings.Builder
	for _, block := range blocks {
		var view struct {
			Type string `mapstructure:"type"`
			Text string `mapstructure:"text"`
		}
		if err := mapstructure.Decode(block, &view); err != nil {
			continue
		}
		if view.Type != "" && view.Type != "text" {
			continue
		}
		sb.WriteString(view.Text)
	}
	return sb.String(), true
}

// extractTodos parses a todo list out of a tool result payload. The payload
// arrives as a JSON-ish string embedding a list, as a mapping with a todos
// key, or as the list itself. Unparseable payloads are reported, not guessed.
func extractTodos(content any) ([]domain.Todo, bool) {
	switch v := content.(type) {
	case string:
		return todosFromString(v)
	case map[string]any:
		inner, ok := v["todos"]
		if !ok {
			return nil, false
		}
		return extractTodos(inner)
	}

	items, ok := asList(content)
	if !ok {
		return nil, false
	}
	return todosFromList(items)
}

// todosFromString carves the outermost bracketed span out of s and parses it
// as JSON. Tool results often embed the list in a status sentence and quote
// it with single quotes; the parse is retried with quotes swapped.
func todosFromString(s string) ([]domain.Todo, bool) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return nil, false
	}
	span := s[start : end+1]

	for _, candidate := range []string{span, strings.ReplaceAll(span, "'", `"`)} {
		var todos []domain.Todo
		if err := json.Unmarshal([]byte(candidate), &todos); err == nil {
			return todos, true
		}
	}
	return nil, false
}

func todosFromList(items []any) ([]domain.Todo, bool) {
	todos := make([]domain.Todo, 0, len(items))
	for _, item := range items {
		var todo domain.Todo
		if err := mapstructure.Decode(item, &todo); err != nil {
			return nil, false
		}
		todos = append(todos, todo)
	}
	return todos, true
}

// extractReflection pulls reflection text out of a tool result payload. The
// payload is the text itself or a mapping carrying it.
func extractReflection(content any) (string, bool) {
	switch v := content.(type) {
	case string:
		return v, true
	case map[string]any:
		for _, key := range []string{"reflection", "text"} {
			if s, ok := v[key].(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// stringifyContent renders an arbitrary tool result for display. Strings
// pass through; anything else is compact JSON.
func stringifyContent(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	b, err := json.Marshal(content)
	if err != nil {
		return ""
	}
	return string(b)
}

// asList coerces any slice or array value into []any.
func asList(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
