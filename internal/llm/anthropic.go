package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements Client using Claude. Grounding uses Claude's
// built-in web_search tool, which runs server-side within a single call.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicClient creates a Claude-backed client. The SDK's own retries are
// disabled: the engine owns the retry policy.
func NewAnthropicClient(apiKey string, model string, maxTokens int, opts ...option.RequestOption) *AnthropicClient {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := anthropic.NewClient(opts...)

	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicClient{
		client:    &client,
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

func (a *AnthropicClient) ProviderName() string { return "anthropic" }
func (a *AnthropicClient) ModelName() string    { return a.model }

func (a *AnthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt
	messages := []anthropic.MessageParam{}

	// Claude has no JSON response mode. Prefilling the assistant turn with "{"
	// forces the reply to continue a JSON object.
	prefill := ""
	if req.JSONMode {
		prefill = "{"
		prompt += "\n\nRespond with the JSON object only, no commentary."
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))
	if prefill != "" {
		messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(prefill)))
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		Messages:    messages,
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.Grounding {
		params.Tools = []anthropic.ToolUnionParam{
			{OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{}},
		}
	}

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", classify(a.ProviderName(), apiErr.StatusCode, err)
		}
		return "", classify(a.ProviderName(), 0, err)
	}

	// With web search the reply interleaves tool blocks and text; keep the text.
	var sb strings.Builder
	sb.WriteString(prefill)
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String(), nil
}
