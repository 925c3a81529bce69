package discovery

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"

	"github.com/sashabaranov/go-openai"
)

// ExternalProvider calls an external chat-completion model, asking it to
// act as a domain-restricted search/research assistant and return a list
// of candidate URLs for query. Any failure — network, parse, or an empty
// API key — degrades to an empty slice; this lane is always optional.
type ExternalProvider struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	model          string
}

// NewExternalProvider returns nil when apiKey is empty, signalling the
// caller to skip external discovery entirely.
func NewExternalProvider(apiKey string) *ExternalProvider {
	if apiKey == "" {
		return nil
	}
	return &ExternalProvider{
		client:         openai.NewClient(apiKey),
		circuitBreaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		model:          openai.GPT3Dot5Turbo,
	}
}

// Discover asks the model for candidate URLs matching query, restricted to
// the allow-list's hosts, and returns the subset that survives the same
// document/allow-list filters as the other discovery strategies.
func (p *ExternalProvider) Discover(ctx context.Context, query string, allow AllowList) []string {
	if p == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var raw string
	err := retry.WithBackoff(ctx, p.retryConfig, func() error {
		result, cbErr := p.circuitBreaker.Execute(func() (interface{}, error) {
			return p.complete(ctx, query)
		})
		if cbErr != nil {
			return cbErr
		}
		raw = result.(string)
		return nil
	})
	if err != nil {
		slog.Warn("external discovery failed, degrading to empty", slog.Any("error", err))
		return nil
	}

	urls := parseURLList(raw)

	var out []string
	for _, u := range urls {
		if IsDocumentURL(u) && allow.AllowsURL(u) {
			out = append(out, u)
		}
	}
	return dedupePreservingOrder(out)
}

func (p *ExternalProvider) complete(ctx context.Context, query string) (string, error) {
	prompt := "List public URLs (one per line, no prose) relevant to: " + query
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: 512,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// parseURLList accepts either a bare newline-separated list or a JSON
// array of strings, since models vary in how literally they follow the
// "one per line" instruction.
func parseURLList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			return arr
		}
	}

	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.Trim(line, "-* "))
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			out = append(out, line)
		}
	}
	return out
}
