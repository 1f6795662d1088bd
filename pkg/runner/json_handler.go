package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// JSONHandler implements IOHandler over JSON-Lines, for scripting and pipes.
//
// Each output line is an Event. Input lines may be a JSON string, an object
// with an "input" field, or plain text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder

	mu sync.Mutex
}

// Event is one line of JSONHandler output.
type Event struct {
	Type    string          `json:"type"` // "message" or "system"
	Message *domain.Message `json:"message,omitempty"`
	Text    string          `json:"text,omitempty"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

// Render emits one "message" event per message.
func (h *JSONHandler) Render(ctx context.Context, msgs []domain.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range msgs {
		if err := h.Encoder.Encode(Event{Type: "message", Message: &msgs[i]}); err != nil {
			return err
		}
	}
	return nil
}

// Input reads the next non-empty line.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := h.Reader.ReadString('\n')
		text = strings.TrimSpace(text)
		if text == "" {
			if err != nil {
				return "", err
			}
			continue
		}
		return SanitizeInput(decodeInputLine(text))
	}
}

func decodeInputLine(text string) string {
	var s string
	if err := json.Unmarshal([]byte(text), &s); err == nil {
		return s
	}
	var obj struct {
		Input *string `json:"input"`
	}
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj.Input != nil {
		return *obj.Input
	}
	return text
}

// SystemOutput emits a "system" event.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(Event{Type: "system", Text: msg})
}
