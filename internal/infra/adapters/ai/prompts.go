package ai

import (
	"fmt"
	"strings"

	"devotional-ai-service/internal/domain/model"
)

// Prompt builders shared by every provider adapter, so switching providers
// never changes what the model is asked for.

func evaluatePrompt(topic string) string {
	return fmt.Sprintf(
		"You review topics for a devotional writing service. "+
			"Is the following topic suitable for respectful religious reflection? "+
			"Answer only with JSON: {\"suitable\": true|false, \"reason\": \"...\"}.\n\nTopic: %s",
		topic,
	)
}

func searchPrompt(query string) string {
	return fmt.Sprintf(
		"List up to %d Bible verses relevant to the topic below. "+
			"Answer only with JSON: {\"verses\": [{\"reference\": \"...\", \"text\": \"...\"}]}.\n\nTopic: %s",
		model.MaxVerses, query,
	)
}

func reflectionPrompt(topic string, verses []model.Verse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short devotional reflection and closing prayer on the topic %q, ", topic)
	b.WriteString("drawing on these scripture passages:\n")
	for _, v := range verses {
		fmt.Fprintf(&b, "- %s: %s\n", v.Reference, v.Text)
	}
	b.WriteString("\nReply with plain text only, no markdown.")
	return b.String()
}

// verdictPayload and versesPayload are the structured shapes the model is
// asked to produce; both are decoded through the recovery pipeline.
type verdictPayload struct {
	Suitable bool   `json:"suitable"`
	Reason   string `json:"reason"`
}

type versesPayload struct {
	Verses []model.Verse `json:"verses"`
}
