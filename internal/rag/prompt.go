package rag

import (
	"fmt"
	"strings"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

const answerPrompt = `You are a helpful assistant.
Answer ONLY from the provided transcript context.
If the context is insufficient, just say you don't know.

Context: %s

Conversation History: %s

Question: %s

Answer:`

// ComposePrompt fills the answer template with context, history and question, in that order.
func ComposePrompt(context, history, question string) string {
	return fmt.Sprintf(answerPrompt, context, history, question)
}

// JoinContext joins retrieved chunk texts with blank lines, in retrieval order.
func JoinContext(hits []models.SearchResult) string {
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Chunk.Text
	}
	return strings.Join(texts, "\n\n")
}
