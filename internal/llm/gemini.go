package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const geminiDefaultModel = "gemini-2.5-flash"

type generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// GeminiProvider implements Provider using the Google GenAI SDK.
type GeminiProvider struct {
	generate generateContentFunc
}

// NewGemini creates a Gemini provider backed by the Gemini API.
func NewGemini(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiProvider{generate: client.Models.GenerateContent}, nil
}

func (g *GeminiProvider) Name() string { return "gemini" }

// Generate returns the concatenated text parts of the first candidate.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	model := s.Model
	if model == "" {
		model = geminiDefaultModel
	}

	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1200
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(s.Temperature)),
		MaxOutputTokens:  int32(maxTokens),
		ResponseMIMEType: "application/json",
	}
	if s.Seed != nil {
		cfg.Seed = genai.Ptr(int32(*s.Seed))
	}

	resp, err := g.generate(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", geminiError(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", rejected("gemini", "no text content in response")
	}
	return text, nil
}

func geminiError(err error) *TransportError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		te := &TransportError{
			Kind:     kindForStatus(apiErr.Code),
			Provider: "gemini",
			Status:   apiErr.Code,
			Err:      err,
		}
		if apiErr.Code == http.StatusBadRequest && apiErr.Status == "INVALID_ARGUMENT" && strings.Contains(strings.ToLower(apiErr.Message), "api key") {
			te.Kind = KindAuth
		}
		return te
	}
	return requestError("gemini", err)
}
