package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/logwhy/logwhy/internal/ai"
	"github.com/logwhy/logwhy/internal/grouper"
)

// Provider analyzes error groups against a local Ollama daemon.
type Provider struct {
	config  *Config
	client  *http.Client
	baseURL *url.URL
}

// New creates an Ollama provider.
func New(config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, &ai.ConfigurationError{Field: "ollama.base_url", Message: "invalid base URL: " + err.Error()}
	}

	return &Provider{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		baseURL: baseURL,
	}, nil
}

func (p *Provider) Name() string { return "ollama" }

func (p *Provider) Model() string { return p.config.Model }

// Analyze sends the group's prompt to /api/generate and returns the raw
// generated text.
func (p *Provider) Analyze(ctx context.Context, group *grouper.ErrorGroup) (string, error) {
	prompt := ai.BuildAnalysisPrompt(group, p.config.TruncateLength)

	body, err := json.Marshal(&generateRequest{
		Model:   p.config.Model,
		Prompt:  prompt.String(),
		System:  prompt.SystemPrompt,
		Stream:  false,
		Options: &options{Temperature: p.config.Temperature},
	})
	if err != nil {
		return "", ai.NewProviderError(ai.ErrKindInvalidRequest, "ollama", "encode request: "+err.Error())
	}

	endpoint := p.baseURL.JoinPath("/api/generate")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", ai.NewProviderError(ai.ErrKindInvalidRequest, "ollama", "build request: "+err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", ai.WrapTransportError("ollama", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", ai.WrapTransportError("ollama", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", ai.StatusError("ollama", resp.StatusCode, string(respBody), 0)
	}

	var gen generateResponse
	if err := json.Unmarshal(respBody, &gen); err != nil {
		return "", ai.NewProviderError(ai.ErrKindServer, "ollama", "decode response: "+err.Error())
	}
	if gen.Response == "" {
		return "", ai.NewProviderError(ai.ErrKindServer, "ollama", "empty response")
	}

	return gen.Response, nil
}

func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
