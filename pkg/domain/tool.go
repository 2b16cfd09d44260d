package domain

// ToolCall represents one tool invocation recorded in an AI message.
// Compatible with the id/name/args shape common to LLM tool-call schemas.
type ToolCall struct {
	ID   string         `json:"id" mapstructure:"id"`
	Name string         `json:"name" mapstructure:"name"`
	Args map[string]any `json:"args,omitempty" mapstructure:"args"`
}

// Todo statuses as emitted by the executor's planning tool.
const (
	TodoPending    = "pending"
	TodoInProgress = "in_progress"
	TodoCompleted  = "completed"
)

// Todo is one entry of an agent-maintained task list, surfaced through the
// todo side channel.
type Todo struct {
	Content string `json:"content" mapstructure:"content"`
	Status  string `json:"status" mapstructure:"status"`
}
