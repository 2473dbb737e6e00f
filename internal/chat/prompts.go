package chat

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

const (
	keyHistory = "chat_history"
	keyInput   = "input"
	keyContext = "context"
)

const contextualizeSystem = `Given a conversation history and the most recent user query, rewrite the query as a standalone question that makes sense without relying on the previous context.
Resolve pronouns and references using the history.
Do not answer the question. Return only the rewritten question, or the original one if it is already standalone.`

const qaSystem = `You are an assistant for question-answering tasks about the user's documents.
Use only the retrieved context below to answer the question.
If the answer is not in the context, say that you don't know.
Keep the answer concise.

Context:
{context}`

func contextualizeTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(contextualizeSystem),
		schema.MessagesPlaceholder(keyHistory, true),
		schema.UserMessage("{input}"),
	)
}

func qaTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(qaSystem),
		schema.MessagesPlaceholder(keyHistory, true),
		schema.UserMessage("{input}"),
	)
}
