package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GulovM/ToDo-Master/internal/ai"
	"github.com/GulovM/ToDo-Master/internal/config"
)

const (
	openAIBaseURL     = "https://api.openai.com/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// Provider implements ai.Provider for any OpenAI-compatible chat API.
// Keys issued by OpenRouter (prefix "sk-or-") are detected and routed to
// the OpenRouter endpoint with its attribution headers.
type Provider struct {
	apiKey       string
	defaultModel string
	baseURL      string
	openRouter   bool
	referer      string
	title        string
	client       *http.Client
}

// NewProvider creates a new OpenAI-compatible provider
func NewProvider(cfg config.OpenAIConfig, timeout time.Duration, referer, title string) *Provider {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	openRouter := strings.HasPrefix(cfg.APIKey, "sk-or-")

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if openRouter {
			baseURL = openRouterBaseURL
		} else {
			baseURL = openAIBaseURL
		}
	}

	return &Provider{
		apiKey:       cfg.APIKey,
		defaultModel: model,
		baseURL:      strings.TrimRight(baseURL, "/"),
		openRouter:   openRouter,
		referer:      referer,
		title:        title,
		client:       &http.Client{Timeout: timeout},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "openai"
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete runs a chat completion against the configured endpoint
func (p *Provider) Complete(ctx context.Context, req ai.Request) (*ai.Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("openai provider is not configured (missing API key)")
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	// OpenRouter model names are namespaced; bare OpenAI names need the
	// openai/ prefix.
	if p.openRouter && !strings.Contains(model, "/") {
		model = "openai/" + model
	}

	messages := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	chatReq := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	if p.openRouter {
		if p.referer != "" {
			httpReq.Header.Set("HTTP-Referer", p.referer)
		}
		if p.title != "" {
			httpReq.Header.Set("X-Title", p.title)
		}
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", p.Source(), resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", p.Source())
	}

	return &ai.Response{
		Content:    chatResp.Choices[0].Message.Content,
		Model:      model,
		Source:     p.Source(),
		TokensUsed: chatResp.Usage.TotalTokens,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

// Source reports which backend the key actually talks to
func (p *Provider) Source() string {
	if p.openRouter {
		return "openrouter"
	}
	return "openai"
}
