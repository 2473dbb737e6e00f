package chat

import (
	"github.com/cloudwego/eino/schema"

	"docportal/internal/session"
)

// historyMessages converts the last n turns into chat messages. n <= 0 keeps
// every turn.
func historyMessages(turns []session.Turn, n int) []*schema.Message {
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}

	msgs := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case session.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(t.Text, nil))
		default:
			msgs = append(msgs, schema.UserMessage(t.Text))
		}
	}
	return msgs
}
