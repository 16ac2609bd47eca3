package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"github.com/umputun/feedscope/pkg/config"
	"github.com/umputun/feedscope/pkg/domain"
)

// Classifier uses an OpenAI-compatible LLM to classify feedback records
type Classifier struct {
	client    *openai.Client
	config    config.LLMConfig
	systemMsg string
}

// NewClassifier creates a new LLM classifier
func NewClassifier(cfg config.LLMConfig) *Classifier {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}

	// use custom system prompt if provided, otherwise use default
	systemMsg := cfg.SystemPrompt
	if systemMsg == "" {
		systemMsg = defaultSystemPrompt
	}

	return &Classifier{
		client:    openai.NewClientWithConfig(clientConfig),
		config:    cfg,
		systemMsg: systemMsg,
	}
}

// complete runs one chat completion bounded by the configured timeout, so
// every model call stays bounded no matter what context the caller hands in
func (c *Classifier) complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}
	return c.client.CreateChatCompletion(ctx, req)
}

// default system prompt for feedback classification
const defaultSystemPrompt = `You are a product feedback analyst. Analyze each review and return ONLY JSON.
Each classification must have:
- id: the review's id, copied verbatim
- sentiment: "positive", "neutral" or "negative"
- score: float from -1.0 (very negative) to 1.0 (very positive), sign consistent with sentiment
- confidence: float 0-100, how confident you are in the sentiment label
- topics: array of 1-3 short topic strings (e.g. "performance", "UI/UX", "bugs")
- keywords: array of 3-5 notable words from the review
- is_bug: true if the review describes a software defect
- is_feature: true if the review requests a new capability
- priority: "low", "normal", "high" or "critical" (only meaningful when is_bug is true)

priority=critical: crashes, data loss, security issues, login completely broken
priority=high: significant performance problems, frequent recurring defects

Return ONLY the JSON, no markdown fences, no explanation.`

// Classify sends one batch of records to the LLM and returns their
// classifications. Retries once on a malformed response before giving up, so
// one bad completion does not abort the batch chain - the caller falls back
// to the rule-based classifier on error.
func (c *Classifier) Classify(ctx context.Context, records []domain.FeedbackRecord) ([]domain.Classification, error) {
	if len(records) == 0 {
		return []domain.Classification{}, nil
	}

	prompt := c.buildPrompt(records)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		chatReq := openai.ChatCompletionRequest{
			Model:       c.config.Model,
			Temperature: float32(c.config.Temperature),
			MaxTokens:   c.config.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: c.systemMsg},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		}

		// add JSON response format if enabled
		if c.config.Classification.UseJSONMode {
			chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			}
		}

		resp, err := c.complete(ctx, chatReq)
		if err != nil {
			return nil, fmt.Errorf("llm request failed: %w", err)
		}

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no response from llm")
		}

		content := resp.Choices[0].Message.Content
		classifications, err := c.parseResponse(content, records)
		if err == nil {
			return classifications, nil
		}

		lastErr = err

		// retry only malformed-response errors
		if strings.Contains(err.Error(), "failed to parse json") || strings.Contains(err.Error(), "no json array found") {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed after 2 attempts: %w", lastErr)
}

// buildPrompt creates the user prompt for one batch
func (c *Classifier) buildPrompt(records []domain.FeedbackRecord) string {
	var sb strings.Builder
	sb.WriteString("Classify these reviews:\n\n")

	for i, rec := range records {
		sb.WriteString(fmt.Sprintf("%d. ID: %s\n", i+1, rec.ID))
		if rec.Rating != nil {
			sb.WriteString(fmt.Sprintf("   Rating: %d/5\n", *rec.Rating))
		}
		text := truncate(rec.Text, 400)
		if rec.Title != "" {
			sb.WriteString(fmt.Sprintf("   Title: %s\n", rec.Title))
		}
		sb.WriteString(fmt.Sprintf("   Text: %s\n\n", text))
	}

	if c.config.Classification.UseJSONMode {
		sb.WriteString("Respond with a JSON object containing a 'classifications' array of classification objects.")
	} else {
		sb.WriteString("Respond with a JSON array of classification objects.")
	}
	return sb.String()
}

// truncate cuts s to at most max bytes on a rune boundary, appending an
// ellipsis when anything was dropped
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// parseResponse parses the LLM response into classifications
func (c *Classifier) parseResponse(content string, records []domain.FeedbackRecord) ([]domain.Classification, error) {
	var classifications []domain.Classification

	if c.config.Classification.UseJSONMode {
		var resp struct {
			Classifications []domain.Classification `json:"classifications"`
		}
		if err := json.Unmarshal([]byte(content), &resp); err != nil {
			return nil, fmt.Errorf("failed to parse json object response: %w", err)
		}
		classifications = resp.Classifications
	} else {
		// extract the array even when the model wraps it in prose or fences
		start := strings.Index(content, "[")
		end := strings.LastIndex(content, "]")
		if start == -1 || end == -1 || start >= end {
			return nil, fmt.Errorf("no json array found in response")
		}

		jsonStr := content[start : end+1]
		if err := json.Unmarshal([]byte(jsonStr), &classifications); err != nil {
			return nil, fmt.Errorf("failed to parse json array response: %w", err)
		}
	}

	// keep only classifications matching requested records, clamped to range
	idSet := make(map[string]bool, len(records))
	for _, rec := range records {
		idSet[rec.ID] = true
	}

	valid := make([]domain.Classification, 0, len(classifications))
	for _, cl := range classifications {
		if !idSet[cl.ID] {
			continue
		}
		if cl.SentimentScore < -1 {
			cl.SentimentScore = -1
		} else if cl.SentimentScore > 1 {
			cl.SentimentScore = 1
		}
		if cl.Confidence < 0 {
			cl.Confidence = 0
		} else if cl.Confidence > 100 {
			cl.Confidence = 100
		}
		if cl.Sentiment != domain.SentimentPositive && cl.Sentiment != domain.SentimentNegative {
			cl.Sentiment = domain.SentimentNeutral
		}
		valid = append(valid, cl)
	}

	return valid, nil
}
