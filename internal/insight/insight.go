// Package insight talks to an OpenAI-compatible language model to annotate
// entries and summarize a week of writing. Both operations are optional:
// callers treat every error as "no annotation".
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// maxSuggestedTags caps the tags kept from one analysis.
const maxSuggestedTags = 5

// Analyzer turns entry text into an AIInsight.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*models.AIInsight, error)
}

// Summarizer turns several entry texts into a short narrative.
type Summarizer interface {
	Summarize(ctx context.Context, texts []string) (string, error)
}

const analyzePrompt = `You read private journal entries and reply with JSON only:
{"sentiment": "positive|negative|neutral|mixed", "intensity": 0..1, "summary": "one sentence", "suggestedTags": ["up to five short lowercase tags"]}`

const summarizePrompt = `You write a warm, brief (3-4 sentences) reflection on a week of journal entries. Speak to the writer in second person. Do not quote entries verbatim.`

type Options struct {
	BaseURL string
	Model   string
	APIKey  string
}

type OpenAIClient struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

func NewOpenAIClient(o Options) *OpenAIClient {
	cfg := openai.DefaultConfig(o.APIKey)
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	model := o.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model, now: time.Now}
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string, jsonOut bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.3,
	}
	if jsonOut {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type analysis struct {
	Sentiment     string   `json:"sentiment"`
	Intensity     float64  `json:"intensity"`
	Summary       string   `json:"summary"`
	SuggestedTags []string `json:"suggestedTags"`
}

func (c *OpenAIClient) Analyze(ctx context.Context, text string) (*models.AIInsight, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("nothing to analyze")
	}

	out, err := c.complete(ctx, analyzePrompt, text, true)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	var a analysis
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		return nil, fmt.Errorf("analyze: decode reply: %w", err)
	}

	return &models.AIInsight{
		Sentiment:     normalizeSentiment(a.Sentiment),
		Intensity:     clamp01(a.Intensity),
		Summary:       strings.TrimSpace(a.Summary),
		SuggestedTags: suggestedTags(a.SuggestedTags),
		AnalyzedAt:    c.now().UTC().Truncate(time.Millisecond),
	}, nil
}

func (c *OpenAIClient) Summarize(ctx context.Context, texts []string) (string, error) {
	if len(texts) == 0 {
		return "", errors.New("nothing to summarize")
	}

	var b strings.Builder
	for i, t := range texts {
		fmt.Fprintf(&b, "Entry %d:\n%s\n\n", i+1, t)
	}

	out, err := c.complete(ctx, summarizePrompt, b.String(), false)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return out, nil
}

func normalizeSentiment(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case models.SentimentPositive, models.SentimentNegative, models.SentimentMixed:
		return s
	default:
		return models.SentimentNeutral
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func suggestedTags(in []string) []string {
	tags := models.NormalizeTags(in)
	if len(tags) > maxSuggestedTags {
		tags = tags[:maxSuggestedTags]
	}
	return tags
}
