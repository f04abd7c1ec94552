// File: internal/services/ai/registry.go
package ai

import "fmt"

// NewProvider builds the adapter for a provider name.
func NewProvider(config *Config) (ChatProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Name {
	case ProviderGemini:
		return NewGeminiProvider(config), nil
	case ProviderHuggingFace:
		return NewHuggingFaceProvider(config), nil
	case ProviderDeepseek, ProviderOpenRouter:
		return NewOpenAIProvider(config), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", config.Name)
	}
}

// NewProviders builds adapters in priority order. Names in order without a
// config entry fall back to DefaultConfig with no credential. Duplicates are
// rejected so one backend is never tried twice per request.
func NewProviders(order []string, configs map[string]*Config) ([]ChatProvider, error) {
	seen := make(map[string]bool, len(order))
	providers := make([]ChatProvider, 0, len(order))
	for _, name := range order {
		if seen[name] {
			return nil, fmt.Errorf("provider %q listed twice in order", name)
		}
		seen[name] = true

		cfg, ok := configs[name]
		if !ok {
			cfg = DefaultConfig(name)
		}
		p, err := NewProvider(cfg)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}
