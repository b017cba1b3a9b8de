package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/godilite/wellbeing-server/internal/domain"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 10 * time.Second
)

const systemPrompt = `You rate the sentiment of a personal journal entry.
Reply with a JSON object only, using exactly these keys:
"very_negative", "negative", "neutral", "positive", "very_positive".
Each value is the percentage (0-100) of the entry expressing that sentiment.
The five values must sum to 100.`

// OpenAIConfig configures an OpenAI-compatible chat completion backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAI classifies text by asking a chat model for a JSON distribution.
type OpenAI struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

type distributionReply struct {
	VeryNegative *float64 `json:"very_negative"`
	Negative     *float64 `json:"negative"`
	Neutral      *float64 `json:"neutral"`
	Positive     *float64 `json:"positive"`
	VeryPositive *float64 `json:"very_positive"`
}

func NewOpenAI(cfg OpenAIConfig, logger *zap.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("classifier api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	logger.Info("initializing classifier", zap.String("model", cfg.Model), zap.String("base_url", oc.BaseURL))
	return &OpenAI{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Classify implements Classifier. Every failure wraps
// domain.ErrClassificationUnavailable.
func (o *OpenAI) Classify(ctx context.Context, text string) (Classification, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		o.logger.Warn("classifier call failed", zap.Error(err))
		return Classification{}, fmt.Errorf("%w: %v", domain.ErrClassificationUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return Classification{}, fmt.Errorf("%w: no choices returned", domain.ErrClassificationUnavailable)
	}

	dist, err := parseDistribution(resp.Choices[0].Message.Content)
	if err != nil {
		o.logger.Warn("classifier reply rejected", zap.Error(err))
		return Classification{}, err
	}
	return FromDistribution(dist)
}

func parseDistribution(content string) (domain.Distribution, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var reply distributionReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &reply); err != nil {
		return domain.Distribution{}, fmt.Errorf("%w: malformed reply: %v", domain.ErrClassificationUnavailable, err)
	}

	values := []*float64{reply.VeryNegative, reply.Negative, reply.Neutral, reply.Positive, reply.VeryPositive}
	var d domain.Distribution
	for i, v := range values {
		if v == nil {
			return domain.Distribution{}, fmt.Errorf("%w: reply is missing %s", domain.ErrClassificationUnavailable, domain.Category(i))
		}
		d[i] = *v
	}
	return d, nil
}
