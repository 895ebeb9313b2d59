package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zombor/expense-tracker/internal/extraction"
)

// Ollama implements extraction.Engine using a local Ollama server
type Ollama struct {
	baseURL      string
	model        string
	client       *http.Client
	probeTimeout time.Duration
}

// NewOllama creates a new Ollama engine.
// Small instruction-tuned models work well for this task:
//   - llama3.2 (default, fast on CPU)
//   - qwen2.5:7b
//   - mistral
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llama3.2"
	}

	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		probeTimeout: 2 * time.Second,
	}, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Availability implements extraction.Engine by asking the server which
// models are installed.
func (o *Ollama) Availability(ctx context.Context) extraction.Availability {
	ctx, cancel := context.WithTimeout(ctx, o.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return extraction.Unavailable(fmt.Sprintf("creating request: %v", err))
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return extraction.Unavailable(fmt.Sprintf("ollama unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return extraction.Unavailable(fmt.Sprintf("ollama status %d", resp.StatusCode))
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return extraction.Unavailable(fmt.Sprintf("decoding tags: %v", err))
	}

	for _, m := range tags.Models {
		if m.Name == o.model || strings.HasPrefix(m.Name, o.model+":") {
			return extraction.Available()
		}
	}
	return extraction.Unavailable(fmt.Sprintf("model %s is not installed", o.model))
}

// Generate implements extraction.Engine
func (o *Ollama) Generate(ctx context.Context, instructions, prompt string) (*extraction.EngineResult, error) {
	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Format: "json",
		Messages: []ollamaMessage{
			{Role: "system", Content: instructions},
			{Role: "user", Content: prompt},
		},
	}

	text, err := o.chat(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	result, err := parseResultJSON(text)
	if err != nil {
		return nil, fmt.Errorf("parsing expense data: %w", err)
	}

	return result, nil
}

func (o *Ollama) chat(ctx context.Context, reqBody ollamaChatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return chatResp.Message.Content, nil
}

// Close closes the Ollama engine (no-op for HTTP client)
func (o *Ollama) Close() error {
	return nil
}
