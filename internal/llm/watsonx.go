package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/edututor/edututor-backend/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	watsonxAPIVersion = "2023-05-29"
	// tokenRefreshMargin renews the IAM token before it actually expires.
	tokenRefreshMargin = time.Minute
	// maxErrorBody bounds how much of an upstream error body ends up in messages.
	maxErrorBody = 512
)

// WatsonxGenerator calls the watsonx.ai text-generation REST endpoint, exchanging the
// API key for an IAM bearer token first.
type WatsonxGenerator struct {
	httpClient *http.Client
	baseURL    string
	projectID  string
	modelID    string
	log        zerolog.Logger

	iam    *iamTokenSource
	mu     sync.Mutex
	tokens oauth2.TokenSource
	now    func() time.Time
}

// NewWatsonxGenerator creates a new WatsonxGenerator.
func NewWatsonxGenerator(cfg *config.Config, log zerolog.Logger) *WatsonxGenerator {
	client := &http.Client{Timeout: cfg.LLMTimeout}
	iam := &iamTokenSource{
		httpClient: client,
		url:        cfg.WatsonxIAMURL,
		apiKey:     cfg.WatsonxAPIKey,
		log:        log,
	}
	return &WatsonxGenerator{
		httpClient: client,
		baseURL:    cfg.WatsonxURL,
		projectID:  cfg.WatsonxProjectID,
		modelID:    cfg.WatsonxModelID,
		log:        log,
		iam:        iam,
		tokens:     oauth2.ReuseTokenSourceWithExpiry(nil, iam, tokenRefreshMargin),
		now:        time.Now,
	}
}

func (g *WatsonxGenerator) Name() string { return config.LLMProviderWatsonx }

type watsonxParameters struct {
	DecodingMethod    string   `json:"decoding_method"`
	MaxNewTokens      int      `json:"max_new_tokens"`
	MinNewTokens      int      `json:"min_new_tokens,omitempty"`
	Temperature       float64  `json:"temperature"`
	TopP              float64  `json:"top_p,omitempty"`
	RepetitionPenalty float64  `json:"repetition_penalty,omitempty"`
	StopSequences     []string `json:"stop_sequences,omitempty"`
}

type watsonxRequest struct {
	Input      string            `json:"input"`
	ModelID    string            `json:"model_id"`
	ProjectID  string            `json:"project_id"`
	Parameters watsonxParameters `json:"parameters"`
}

type watsonxResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
		StopReason    string `json:"stop_reason"`
	} `json:"results"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

type iamTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Generate sends req.Prompt with QuizParams and returns the generated text.
func (g *WatsonxGenerator) Generate(ctx context.Context, req Request) (string, error) {
	start := g.now()
	text, err := g.complete(ctx, req.Prompt, QuizParams)
	event := g.log.Info()
	if err != nil {
		event = g.log.Warn().Err(err)
	}
	event.
		Str("topic", req.Topic).
		Int("requested", req.NumQuestions).
		Dur("duration", g.now().Sub(start)).
		Msg("watsonx generation finished")
	return text, err
}

func (g *WatsonxGenerator) Ping(ctx context.Context) error {
	_, err := g.complete(ctx, pingPrompt, pingParams)
	return err
}

func (g *WatsonxGenerator) complete(ctx context.Context, prompt string, p Params) (string, error) {
	token, err := g.tokenSource().Token()
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(watsonxRequest{
		Input:     prompt,
		ModelID:   g.modelID,
		ProjectID: g.projectID,
		Parameters: watsonxParameters{
			DecodingMethod:    "sample",
			MaxNewTokens:      p.MaxNewTokens,
			MinNewTokens:      p.MinNewTokens,
			Temperature:       p.Temperature,
			TopP:              p.TopP,
			RepetitionPenalty: p.RepetitionPenalty,
			StopSequences:     p.StopSequences,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode watsonx request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/ml/v1/text/generation?version=%s", g.baseURL, watsonxAPIVersion)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create watsonx request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	token.SetAuthHeader(httpReq)

	respBody, status, err := doRequest(g.httpClient, httpReq)
	if err != nil {
		return "", fmt.Errorf("watsonx request: %w", err)
	}
	if status == http.StatusUnauthorized {
		g.invalidateToken()
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("watsonx returned status %d: %s", status, truncate(respBody))
	}

	var out watsonxResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode watsonx response: %w", err)
	}
	if len(out.Errors) > 0 {
		return "", fmt.Errorf("watsonx error %s: %s", out.Errors[0].Code, out.Errors[0].Message)
	}
	if len(out.Results) == 0 {
		return "", ErrEmptyResponse
	}
	return out.Results[0].GeneratedText, nil
}

func (g *WatsonxGenerator) tokenSource() oauth2.TokenSource {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tokens
}

// invalidateToken drops the cached IAM token so the next call exchanges the key again.
func (g *WatsonxGenerator) invalidateToken() {
	g.mu.Lock()
	g.tokens = oauth2.ReuseTokenSourceWithExpiry(nil, g.iam, tokenRefreshMargin)
	g.mu.Unlock()
}

// iamTokenSource exchanges the API key for an IAM bearer token. IBM's apikey grant
// is not a standard OAuth2 flow, so the exchange is done by hand and the result is
// handed to oauth2 for caching.
type iamTokenSource struct {
	httpClient *http.Client
	url        string
	apiKey     string
	log        zerolog.Logger
}

func (s *iamTokenSource) Token() (*oauth2.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "urn:ibm:params:oauth:grant-type:apikey")
	form.Set("apikey", s.apiKey)

	// Bounded by the client timeout; oauth2.TokenSource carries no context.
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create IAM request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, status, err := doRequest(s.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("IAM token request: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("IAM token request returned status %d: %s", status, truncate(body))
	}

	var tok iamTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("decode IAM token: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("IAM token response has no access_token")
	}

	out := &oauth2.Token{
		AccessToken: tok.AccessToken,
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}
	s.log.Debug().Time("expires", out.Expiry).Msg("IAM token refreshed")
	return out, nil
}

func doRequest(client *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
