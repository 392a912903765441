package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rsdtools/releaselink/internal/providers"
)

// DefaultURL is used when OLLAMA_URL is unset.
const DefaultURL = "http://localhost:11434"

func init() {
	providers.Register("ollama", func(timeout time.Duration) providers.Provider {
		return New(os.Getenv("OLLAMA_URL"), timeout)
	})
}

// Ollama completes prompts against a local Ollama server.
type Ollama struct {
	baseURL string
	client  *http.Client
}

// New returns an Ollama provider for baseURL, falling back to DefaultURL.
func New(baseURL string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements providers.Provider.
func (o *Ollama) Name() string { return "ollama" }

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// Complete calls /api/generate without streaming.
func (o *Ollama) Complete(ctx context.Context, req providers.Request) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		Options: map[string]any{"temperature": req.Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(msg))
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}
	return out.Response, nil
}
