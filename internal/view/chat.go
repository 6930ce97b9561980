package view

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Replies used when the assistant has nothing usable to say.
const (
	ChatNoAnswer = "I'm sorry, I didn't understand that."
	ChatFailed   = "Error communicating with the server."
)

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one line of the transcript.
type ChatMessage struct {
	Role    Role
	Content string
}

// Assistant answers chat messages.
type Assistant interface {
	Chat(ctx context.Context, message string) (string, error)
}

// ChatState is a snapshot of the chat widget.
type ChatState struct {
	Open     bool
	Messages []ChatMessage
	Pending  int // replies still outstanding
}

// Chat is the assistant widget. Its transcript only ever grows.
type Chat struct {
	mu       sync.Mutex
	api      Assistant
	log      *slog.Logger
	open     bool
	messages []ChatMessage
	pending  int
}

// NewChat creates a closed, empty chat.
func NewChat(api Assistant, log *slog.Logger) *Chat {
	return &Chat{api: api, log: log}
}

// Toggle opens or closes the widget.
func (c *Chat) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = !c.open
}

// Send appends text as a user message and returns a Fetch that appends the
// reply. Blank text is ignored.
func (c *Chat) Send(text string) Fetch {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	c.mu.Lock()
	c.messages = append(c.messages, ChatMessage{Role: RoleUser, Content: text})
	c.pending++
	c.mu.Unlock()

	return func(ctx context.Context) {
		reply, err := c.api.Chat(ctx, text)
		switch {
		case err != nil:
			c.log.Warn("chat failed", "error", err)
			reply = ChatFailed
		case reply == "":
			reply = ChatNoAnswer
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		c.pending--
		c.messages = append(c.messages, ChatMessage{Role: RoleAssistant, Content: reply})
	}
}

// State returns a snapshot.
func (c *Chat) State() ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ChatState{
		Open:     c.open,
		Messages: append([]ChatMessage(nil), c.messages...),
		Pending:  c.pending,
	}
}
