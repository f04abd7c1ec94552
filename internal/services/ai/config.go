// File: internal/services/ai/config.go
package ai

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider identifiers accepted in PROVIDER_ORDER.
const (
	ProviderGemini      = "gemini"
	ProviderHuggingFace = "huggingface"
	ProviderDeepseek    = "deepseek"
	ProviderOpenRouter  = "openrouter"
)

var displayNames = map[string]string{
	ProviderGemini:      "Google Gemini",
	ProviderHuggingFace: "Hugging Face",
	ProviderDeepseek:    "Deepseek",
	ProviderOpenRouter:  "OpenRouter",
}

type Config struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// OpenRouter attribution headers.
	Referer  string
	AppTitle string

	// HTTPClient overrides the shared client, mainly for tests.
	HTTPClient *http.Client
}

func (c *Config) Validate() error {
	if _, ok := displayNames[c.Name]; !ok {
		return fmt.Errorf("unknown provider %q", c.Name)
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%s: base URL is required", c.Name)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%s: model is required", c.Name)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%s: timeout must be positive", c.Name)
	}
	return nil
}

// Configured reports whether a credential is present; unconfigured providers are skipped.
func (c *Config) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func (c *Config) DisplayName() string {
	if n, ok := displayNames[c.Name]; ok {
		return n
	}
	return c.Name
}

func (c *Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	// Deadlines come from the caller's context.
	return http.DefaultClient
}

// DefaultConfig returns the production endpoint and model of a provider.
func DefaultConfig(name string) *Config {
	switch name {
	case ProviderGemini:
		return &Config{Name: name, BaseURL: "https://generativelanguage.googleapis.com/v1beta", Model: "gemini-1.5-flash", Timeout: 60 * time.Second}
	case ProviderHuggingFace:
		return &Config{Name: name, BaseURL: "https://api-inference.huggingface.co", Model: "mistralai/Mistral-7B-Instruct-v0.1", Timeout: 90 * time.Second}
	case ProviderDeepseek:
		return &Config{Name: name, BaseURL: "https://api.deepseek.com/v1", Model: "deepseek-chat", Timeout: 25 * time.Second}
	case ProviderOpenRouter:
		return &Config{Name: name, BaseURL: "https://openrouter.ai/api/v1", Model: "mistralai/mistral-7b-instruct:free", Timeout: 60 * time.Second, AppTitle: "Yasmin GPT"}
	default:
		return &Config{Name: name}
	}
}
