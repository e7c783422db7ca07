// Package agent implements the conversational scaffolding (spec §4.11), the
// tool-calling loop (§4.3), and the memory-augmented agent (§4.10).
package agent

import (
	"github.com/charmbracelet/log"

	"github.com/quillhive/agentcore/pkg/chat"
)

const defaultMaxHistoryLength = 50

// Base is the conversational scaffolding shared by every agent variant:
// capped history and a logger. It is not itself runnable — ToolCallingLoop
// and MemoryAgent embed it.
type Base struct {
	History          []chat.Message
	MaxHistoryLength int
	Logger           *log.Logger
}

// NewBase constructs a Base with a sane history cap.
func NewBase(maxHistoryLength int) Base {
	if maxHistoryLength <= 0 {
		maxHistoryLength = defaultMaxHistoryLength
	}
	return Base{
		MaxHistoryLength: maxHistoryLength,
		Logger:           log.Default(),
	}
}

// AppendHistory adds a message, dropping the oldest entries FIFO once the
// cap is exceeded (spec §3, Message).
func (b *Base) AppendHistory(msg chat.Message) {
	b.History = append(b.History, msg)
	if over := len(b.History) - b.MaxHistoryLength; over > 0 {
		b.History = b.History[over:]
	}
}
