package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/umputun/feedscope/pkg/domain"
)

// Ask answers a free-text question about the current snapshot. The snapshot
// is serialized as JSON context for the model.
func (c *Classifier) Ask(ctx context.Context, question string, snapshot *domain.InsightSnapshot) (string, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize snapshot: %w", err)
	}

	prompt := fmt.Sprintf(`You are a product analytics expert. Answer this question based on the app review data.

Question: %s

Data summary:
%s

Provide a concise, actionable answer (3-5 sentences). Be specific with numbers from the data.`, question, string(data))

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: 0.3,
		MaxTokens:   500,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := c.complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("qa request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from llm")
	}

	return resp.Choices[0].Message.Content, nil
}
