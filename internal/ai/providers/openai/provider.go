package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/logwhy/logwhy/internal/ai"
	"github.com/logwhy/logwhy/internal/grouper"
)

// Provider analyzes error groups through an OpenAI-compatible chat API.
type Provider struct {
	config  *Config
	client  *http.Client
	baseURL *url.URL
}

// New creates an OpenAI provider.
func New(config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, &ai.ConfigurationError{Field: "openai.base_url", Message: "invalid base URL: " + err.Error()}
	}

	return &Provider{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		baseURL: baseURL,
	}, nil
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Model() string { return p.config.Model }

// Analyze sends the group's prompt as a chat completion and returns the
// raw generated text.
func (p *Provider) Analyze(ctx context.Context, group *grouper.ErrorGroup) (string, error) {
	prompt := ai.BuildAnalysisPrompt(group, p.config.TruncateLength)

	body, err := json.Marshal(&chatRequest{
		Model: p.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.SystemPrompt},
			{Role: "user", Content: prompt.String()},
		},
		Temperature: p.config.Temperature,
	})
	if err != nil {
		return "", ai.NewProviderError(ai.ErrKindInvalidRequest, "openai", "encode request: "+err.Error())
	}

	endpoint := p.baseURL.JoinPath("/v1/chat/completions")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", ai.NewProviderError(ai.ErrKindInvalidRequest, "openai", "build request: "+err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	if p.config.OrganizationID != "" {
		req.Header.Set("OpenAI-Organization", p.config.OrganizationID)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", ai.WrapTransportError("openai", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", ai.WrapTransportError("openai", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", ai.StatusError("openai", resp.StatusCode, string(respBody), retryAfter(resp))
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return "", ai.NewProviderError(ai.ErrKindServer, "openai", "decode response: "+err.Error())
	}
	if chat.Error != nil {
		return "", ai.NewProviderError(ai.ErrKindServer, "openai", chat.Error.Message)
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return "", ai.NewProviderError(ai.ErrKindServer, "openai", "empty response")
	}

	return chat.Choices[0].Message.Content, nil
}

// retryAfter parses the Retry-After header, seconds form only.
func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
