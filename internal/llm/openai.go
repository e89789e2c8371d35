package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	openaiAPIURL       = "https://api.openai.com/v1/chat/completions"
	openaiDefaultModel = "gpt-4o"

	groqAPIURL       = "https://api.groq.com/openai/v1/chat/completions"
	groqDefaultModel = "llama-3.3-70b-versatile"
)

// ChatProvider implements Provider against an OpenAI-compatible Chat
// Completions endpoint. OpenAI and Groq both speak this protocol.
type ChatProvider struct {
	name         string
	apiKey       string
	apiURL       string
	defaultModel string
	client       *http.Client
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(apiKey string) (*ChatProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	return &ChatProvider{name: "openai", apiKey: apiKey, apiURL: openaiAPIURL, defaultModel: openaiDefaultModel, client: &http.Client{}}, nil
}

// NewGroq creates a Groq provider.
func NewGroq(apiKey string) (*ChatProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY not set")
	}
	return &ChatProvider{name: "groq", apiKey: apiKey, apiURL: groqAPIURL, defaultModel: groqDefaultModel, client: &http.Client{}}, nil
}

func (o *ChatProvider) Name() string { return o.name }

func (o *ChatProvider) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	model := s.Model
	if model == "" {
		model = o.defaultModel
	}

	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1200
	}

	reqBody := chatRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: s.Temperature,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &chatResponseFormat{Type: "json_object"},
	}
	if s.Seed != nil {
		reqBody.Seed = s.Seed
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%s: marshal request: %w", o.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: create request: %w", o.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", requestError(o.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", requestError(o.name, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(o.name, resp, respBody)
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", rejected(o.name, "parse response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", rejected(o.name, "no choices in response")
	}

	text := result.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", rejected(o.name, "empty completion")
	}
	return text, nil
}

type chatRequest struct {
	Model          string              `json:"model"`
	MaxTokens      int                 `json:"max_tokens"`
	Temperature    float64             `json:"temperature"`
	Seed           *int                `json:"seed,omitempty"`
	Messages       []chatMessage       `json:"messages"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}
