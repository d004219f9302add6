package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/rs/zerolog/log"

	"github.com/litmus-ai/backend/internal/config"
	"github.com/litmus-ai/backend/internal/models"
)

// LLMClient is the interface both generator implementations satisfy.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// Generator wraps an LLMClient and adds assessment-specific batch methods.
type Generator struct {
	llm   LLMClient
	model string
}

func NewGenerator(cfg config.GeneratorConfig) *Generator {
	if cfg.Mock {
		log.Info().Msg("generator using mock data")
		return &Generator{llm: NewMockClient(), model: "mock"}
	}
	log.Info().Str("model", cfg.Model).Msg("generator using Anthropic API")
	return &Generator{llm: NewAPIClient(cfg.APIKey, cfg.Model), model: cfg.Model}
}

// NewGeneratorWithClient is used when the caller already has a client.
func NewGeneratorWithClient(llm LLMClient, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

func (g *Generator) ModelName() string {
	return g.model
}

// GenerateBatch asks for count new questions in one domain. avoid lists
// question texts already in the bank so the model steers clear of them.
func (g *Generator) GenerateBatch(ctx context.Context, domain models.Domain, count int, avoid []string) (*GeneratedBatch, *LLMResponse, error) {
	resp, err := g.llm.Generate(ctx, SystemPrompt(), BuildUserPrompt(domain, count, avoid))
	if err != nil {
		return nil, nil, fmt.Errorf("generate %s batch: %w", domain.Name, err)
	}

	batch, err := ParseResponse(resp.Content)
	if err != nil {
		return nil, resp, fmt.Errorf("parse %s response: %w", domain.Name, err)
	}
	for i := range batch.Questions {
		batch.Questions[i].Domain = domain.Name
	}
	return batch, resp, nil
}

// ── APIClient: Anthropic SDK ───────────────────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(apiKey, model string) *APIClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   4096,
		Temperature: param.NewOpt(0.7),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Warn().Dur("backoff", sleepDuration).Int("attempt", attempt+1).Msg("retrying Anthropic API call")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(sleepDuration):
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("Anthropic API attempt failed")
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient: Local Development ──────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	return &LLMResponse{
		Content:      buildMockJSON(),
		PromptTokens: 800,
		OutputTokens: 1600,
	}, nil
}

func buildMockJSON() string {
	answers := []string{"A", "B", "C", "D"}
	topics := []string{
		"customer support chatbots", "meeting summarisation", "hiring screens",
		"sales forecasting", "document drafting", "supply chain planning",
	}

	questions := "["
	for i, topic := range topics {
		if i > 0 {
			questions += ","
		}
		correct := answers[i%len(answers)]
		options := make(map[string]string, len(answers))
		for _, label := range answers {
			if label == correct {
				options[label] = fmt.Sprintf("[Mock] Review %s output with a human before acting on it", topic)
			} else {
				options[label] = fmt.Sprintf("[Mock] Option %s: trust %s output without review", label, topic)
			}
		}
		questions += fmt.Sprintf(`{"question_text":"[Mock] A team is adopting AI for %s. Which practice best reduces the risk of acting on a wrong output?","option_a":%q,"option_b":%q,"option_c":%q,"option_d":%q,"correct_answer":"%s","explanation":"[Mock] Human review catches mistakes in %s before they reach customers."}`,
			topic, options["A"], options["B"], options["C"], options["D"], correct, topic)
	}
	questions += "]"

	return fmt.Sprintf(`{"questions":%s}`, questions)
}
