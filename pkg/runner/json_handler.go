package runner

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/tendril/pkg/domain"
)

// JSONHandler implements the EventHandler interface for structured
// JSON-Lines output. Every event is emitted as a single JSON object per
// line, suitable for piping into other tools.
type JSONHandler struct {
	Encoder *json.Encoder

	// Logger receives system messages, which are kept out of the event
	// stream to preserve its schema. If nil, they are dropped.
	Logger *slog.Logger
}

// NewJSONHandler creates a handler for JSON Lines output.
func NewJSONHandler(w io.Writer) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{Encoder: json.NewEncoder(w)}
}

func (h *JSONHandler) HandleEvent(ctx context.Context, ev domain.Event) error {
	return h.Encoder.Encode(ev)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	if h.Logger != nil {
		h.Logger.Info(msg)
	}
	return nil
}
