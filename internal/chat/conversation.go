package chat

import "strings"

// Conversation is an append-only log of turns. It always starts with an
// assistant greeting. Not safe for concurrent use; the session layer
// serializes access.
type Conversation struct {
	turns []Turn
}

func NewConversation(greeting string) *Conversation {
	return &Conversation{turns: []Turn{AssistantTurn(greeting)}}
}

func (c *Conversation) Append(turn Turn) {
	c.turns = append(c.turns, turn)
}

// Turns returns a copy of the log in chronological order.
func (c *Conversation) Turns() []Turn {
	copied := make([]Turn, len(c.turns))
	copy(copied, c.turns)
	return copied
}

func (c *Conversation) Len() int {
	return len(c.turns)
}

// FormatHistory renders turns as a prompt fragment, one "Role: text"
// line per turn.
func FormatHistory(turns []Turn) string {
	if len(turns) == 0 {
		return "(no prior messages)"
	}
	var builder strings.Builder
	for i, turn := range turns {
		if i > 0 {
			builder.WriteString("\n")
		}
		switch turn.Role {
		case RoleUser:
			builder.WriteString("User: ")
		case RoleAssistant:
			builder.WriteString("Assistant: ")
		}
		builder.WriteString(turn.Text)
	}
	return builder.String()
}
