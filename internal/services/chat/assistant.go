package chat

import "strings"

const assistantInstructions = `You are a helpful student support ticket assistant. You have full access to all tickets, students, categories, and conversation notes. Help analyze student behavior, identify patterns, generate reports, and provide insights. Be concise, practical, and specific.

FORMATTING REQUIREMENTS:
- Use simple text formatting only (bold, bullets, numbered lists)
- DO NOT use markdown tables
- Keep paragraphs short and scannable
- Use clear section headers with **bold text**

When answering questions:
- Reference specific ticket IDs when relevant
- Identify patterns across students and tickets
- Provide actionable insights
- Use the data provided below to answer questions accurately`

// AssistantMessages builds a conversation for the ticket assistant: a system
// message holding the instructions and digest, then history, then question.
func AssistantMessages(digest string, history []Message, question string) []Message {
	messages := make([]Message, 0, len(history)+2)
	system := assistantInstructions
	if digest = strings.TrimSpace(digest); digest != "" {
		system += "\n\n" + digest
	}
	messages = append(messages, Message{Role: "system", Content: system})
	messages = append(messages, history...)
	if question = strings.TrimSpace(question); question != "" {
		messages = append(messages, Message{Role: "user", Content: question})
	}
	return messages
}
