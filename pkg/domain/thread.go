package domain

import "time"

// ThreadRecord is Tendril's own bookkeeping for one conversation thread.
// It never holds conversational state; that stays inside the executor.
type ThreadRecord struct {
	ID         string    `json:"id"`
	Graph      string    `json:"graph"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Turns      int       `json:"turns"`
	LastPrompt string    `json:"last_prompt,omitempty"`
}

// NewThreadRecord creates a fresh record for the given thread id and graph.
func NewThreadRecord(id, graph string) *ThreadRecord {
	now := time.Now().UTC()
	return &ThreadRecord{
		ID:        id,
		Graph:     graph,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch records one completed turn and refreshes the update time.
func (t *ThreadRecord) Touch(prompt string) {
	t.Turns++
	t.LastPrompt = prompt
	t.UpdatedAt = time.Now().UTC()
}
