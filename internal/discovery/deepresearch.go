package discovery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"catchup-feed/internal/normalize"
	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"
)

// DeepResearchProvider asks Claude to produce the readable main text of a
// URL it cannot browse directly; this is the backfill ladder's (C9) last
// resort when conditional GET itself fails. The model is instructed with
// the URL only — it answers from training knowledge or declines, never
// fabricating a live fetch.
type DeepResearchProvider struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	model          string
	maxTokens      int64
}

// NewDeepResearchProvider returns nil when apiKey is empty.
func NewDeepResearchProvider(apiKey string) *DeepResearchProvider {
	if apiKey == "" {
		return nil
	}
	return &DeepResearchProvider{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		model:          string(anthropic.ModelClaudeSonnet4_5_20250929),
		maxTokens:      2048,
	}
}

// FetchText asks for the URL's readable main text, clipped to maxChars. It
// returns ("", false) on any failure — callers fall through to logging ng.
func (p *DeepResearchProvider) FetchText(ctx context.Context, url string, maxChars int) (string, bool) {
	if p == nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	prompt := "Provide only the readable main body text of this page, no commentary: " + url

	var text string
	err := retry.WithBackoff(ctx, p.retryConfig, func() error {
		result, cbErr := p.circuitBreaker.Execute(func() (interface{}, error) {
			return p.complete(ctx, prompt)
		})
		if cbErr != nil {
			if errors.Is(cbErr, gobreaker.ErrOpenState) {
				return cbErr
			}
			return cbErr
		}
		text = result.(string)
		return nil
	})
	if err != nil {
		slog.Warn("deep research fetch_text failed", slog.String("url", url), slog.Any("error", err))
		return "", false
	}

	text = normalize.Clip(normalize.NormWS(text), maxChars)
	if text == "" {
		return "", false
	}
	return text, true
}

func (p *DeepResearchProvider) complete(ctx context.Context, prompt string) (string, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}
	if len(message.Content) == 0 {
		return "", nil
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", nil
	}
	return textBlock.Text, nil
}
