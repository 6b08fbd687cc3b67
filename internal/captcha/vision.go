package captcha

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
	"golang.org/x/time/rate"

	"github.com/thefrederiksen/cc-browser/internal/config"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

const (
	// KeyringService is the service name for keyring storage.
	KeyringService = "cc-browser"
	keyringAPIKey  = "anthropic-api-key"

	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"
	defaultModel      = "claude-3-5-sonnet-latest"
)

// Analyzer answers a question about an image. All vision-assisted solvers go
// through this single entry point so the backend can be swapped in tests.
type Analyzer interface {
	Analyze(ctx context.Context, imagePNG []byte, prompt string) (string, error)
}

// AnthropicAnalyzer sends screenshots to the Anthropic Messages API.
type AnthropicAnalyzer struct {
	client  *http.Client
	limiter *rate.Limiter
	apiKey  string
	model   string
}

// NewAnalyzer builds an analyzer. The configured key takes precedence,
// then ANTHROPIC_API_KEY, then the OS keyring.
func NewAnalyzer(apiKey string) (*AnthropicAnalyzer, error) {
	key := apiKey
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		stored, err := keyring.Get(KeyringService, keyringAPIKey)
		if err != nil {
			return nil, fmt.Errorf("%w: no API key configured, in ANTHROPIC_API_KEY, or in keyring", models.ErrVisionBackend)
		}
		key = stored
	}
	return &AnthropicAnalyzer{
		client:  &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(config.DefaultVisionRPS), config.DefaultVisionBurst),
		apiKey:  key,
		model:   defaultModel,
	}, nil
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze sends the image and prompt and returns the model's text reply.
func (a *AnthropicAnalyzer) Analyze(ctx context.Context, imagePNG []byte, prompt string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrVisionBackend, err)
	}

	body := anthropicRequest{
		Model:     a.model,
		MaxTokens: 1024,
		Messages: []anthropicMessage{{
			Role: "user",
			Content: []anthropicContent{
				{Type: "image", Source: &anthropicSource{
					Type:      "base64",
					MediaType: "image/png",
					Data:      base64.StdEncoding.EncodeToString(imagePNG),
				}},
				{Type: "text", Text: prompt},
			},
		}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrVisionBackend, err)
	}
	defer resp.Body.Close()

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", models.ErrVisionBackend, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%w: %s", models.ErrVisionBackend, msg)
	}
	for _, c := range parsed.Content {
		if c.Type == "text" {
			log.Debug().Int("image_bytes", len(imagePNG)).Msg("Vision analysis completed")
			return c.Text, nil
		}
	}
	return "", fmt.Errorf("%w: empty response", models.ErrVisionBackend)
}

// StripFences removes an optional markdown code fence wrapper from a model
// reply, so fenced JSON parses the same as bare JSON.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
