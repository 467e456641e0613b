package progress

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// JSONSink writes one JSON object per line: events as-is, messages as {"level","message"}
type JSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONSink creates a JSON-lines sink writing to w
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

type jsonMessage struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// OnEvent writes the event
func (s *JSONSink) OnEvent(ctx context.Context, event domain.DeploymentEvent) {
	s.write(event)
}

// Info writes an info message
func (s *JSONSink) Info(message string) {
	s.write(jsonMessage{Level: "info", Message: message})
}

// Error writes an error message
func (s *JSONSink) Error(message string) {
	s.write(jsonMessage{Level: "error", Message: message})
}

func (s *JSONSink) write(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(v)
}

var _ usecase.ProgressSink = (*JSONSink)(nil)
