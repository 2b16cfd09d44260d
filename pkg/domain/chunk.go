package domain

// InterruptKey marks a native chunk as carrying a raw interrupt value.
const InterruptKey = "__interrupt__"

// Chunk is one native update emitted by the executor, decoded from its wire
// form. Its layout is owned by the executor: either an interrupt marker under
// InterruptKey, or node-name keys whose values carry message lists.
type Chunk map[string]any

// RawInterrupt returns the raw interrupt value and whether the chunk is an
// interrupt marker.
func (c Chunk) RawInterrupt() (any, bool) {
	v, ok := c[InterruptKey]
	return v, ok
}
