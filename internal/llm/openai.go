package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/edututor/edututor-backend/internal/config"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIGenerator generates quizzes through any OpenAI-compatible chat endpoint.
type OpenAIGenerator struct {
	llm llms.Model
	log zerolog.Logger
}

// NewOpenAIGenerator creates a new OpenAIGenerator. OPENAI_BASE_URL points it at a
// compatible server instead of api.openai.com.
func NewOpenAIGenerator(cfg *config.Config, log zerolog.Logger) (*OpenAIGenerator, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.OpenAIModel),
		openai.WithToken(cfg.OpenAIAPIKey),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.LLMTimeout}),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return &OpenAIGenerator{llm: model, log: log}, nil
}

func (g *OpenAIGenerator) Name() string { return config.LLMProviderOpenAI }

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	text, err := g.complete(ctx, req.Prompt, QuizParams)
	if err != nil {
		g.log.Warn().Err(err).Str("topic", req.Topic).Msg("openai generation failed")
		return "", err
	}
	g.log.Info().Str("topic", req.Topic).Int("requested", req.NumQuestions).Msg("openai generation finished")
	return text, nil
}

func (g *OpenAIGenerator) Ping(ctx context.Context) error {
	_, err := g.complete(ctx, pingPrompt, pingParams)
	return err
}

func (g *OpenAIGenerator) complete(ctx context.Context, prompt string, p Params) (string, error) {
	opts := []llms.CallOption{
		llms.WithMaxTokens(p.MaxNewTokens),
		llms.WithTemperature(p.Temperature),
	}
	if p.TopP > 0 {
		opts = append(opts, llms.WithTopP(p.TopP))
	}
	if len(p.StopSequences) > 0 {
		opts = append(opts, llms.WithStopWords(p.StopSequences))
	}

	completion, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	return completion, nil
}
