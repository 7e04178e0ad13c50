package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edututor/edututor-backend/internal/config"
	"github.com/edututor/edututor-backend/internal/quiz"
	"github.com/rs/zerolog"
)

// ErrEmptyResponse is returned when the provider answers with no text at all.
var ErrEmptyResponse = errors.New("empty response from LLM")

// Request is one quiz-generation call. Prompt is the full text sent to the model;
// the other fields are carried for logging.
type Request struct {
	Topic        string
	NumQuestions int
	Difficulty   quiz.Difficulty
	Prompt       string
}

// Generator turns a prompt into raw completion text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Ping issues a minimal completion to check credentials and reachability.
	Ping(ctx context.Context) error
	Name() string
}

// Params are the sampling parameters used for quiz generation.
type Params struct {
	MaxNewTokens      int
	MinNewTokens      int
	Temperature       float64
	TopP              float64
	RepetitionPenalty float64
	StopSequences     []string
}

// QuizParams favour complete, mostly deterministic question sets.
var QuizParams = Params{
	MaxNewTokens:      1000,
	MinNewTokens:      200,
	Temperature:       0.3,
	TopP:              0.9,
	RepetitionPenalty: 1.05,
	StopSequences:     []string{"###", "---"},
}

// pingParams keep the connection check cheap.
var pingParams = Params{MaxNewTokens: 50, Temperature: 0.1}

const pingPrompt = "Hello"

// MissingSettingsError reports provider settings that must be set before any call.
type MissingSettingsError struct {
	Provider string
	Missing  []string
}

func (e *MissingSettingsError) Error() string {
	return fmt.Sprintf("%s is not configured: missing %s", e.Provider, strings.Join(e.Missing, ", "))
}

// unconfigured fails every call with the settings it lacks. The server keeps running
// so the operator can fix the environment without losing other features.
type unconfigured struct {
	err *MissingSettingsError
}

func (u unconfigured) Generate(context.Context, Request) (string, error) { return "", u.err }
func (u unconfigured) Ping(context.Context) error                        { return u.err }
func (u unconfigured) Name() string                                      { return u.err.Provider }

// New returns the Generator selected by cfg.LLMProvider, or one that reports the
// missing settings on every call.
func New(cfg *config.Config, log zerolog.Logger) (Generator, error) {
	log = log.With().Str("component", "llm").Str("provider", cfg.LLMProvider).Logger()

	if missing := cfg.MissingLLMSettings(); len(missing) > 0 {
		log.Warn().Strs("missing", missing).Msg("LLM provider not configured, quiz generation disabled")
		return unconfigured{err: &MissingSettingsError{Provider: cfg.LLMProvider, Missing: missing}}, nil
	}

	switch cfg.LLMProvider {
	case config.LLMProviderOpenAI:
		return NewOpenAIGenerator(cfg, log)
	case config.LLMProviderWatsonx:
		return NewWatsonxGenerator(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
