package domain

// RunConfig is the opaque execution context forwarded verbatim to the
// executor. Tendril only reads and writes the configurable.thread_id entry;
// everything else passes through untouched.
type RunConfig map[string]any

// ThreadID returns configurable.thread_id, or "" when absent.
func (c RunConfig) ThreadID() string {
	conf, ok := c["configurable"].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := conf["thread_id"].(string)
	return id
}

// SetThreadID writes configurable.thread_id, creating the configurable
// section when missing.
func (c RunConfig) SetThreadID(id string) {
	conf, ok := c["configurable"].(map[string]any)
	if !ok {
		conf = make(map[string]any)
		c["configurable"] = conf
	}
	conf["thread_id"] = id
}
