// File: internal/services/chat/config.go
package chat

import "fmt"

const (
	DefaultSystemPrompt = "أنت ياسمين، مساعدة ذكية تتحدث العربية بطلاقة. كن ودودًا ومفيدًا ومختصرًا."
	defaultTitleRunes   = 30
)

type Config struct {
	// HistoryLimit is the sliding window of stored messages sent to providers.
	HistoryLimit int

	DefaultTemperature float32
	DefaultMaxTokens   int

	// TitleMaxRunes bounds a title derived from the first user message.
	TitleMaxRunes int
	SystemPrompt  string
}

func (c *Config) Validate() error {
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive")
	}
	if c.DefaultTemperature < 0 || c.DefaultTemperature > 2 {
		return fmt.Errorf("default_temperature must be within [0, 2]")
	}
	if c.DefaultMaxTokens <= 0 {
		return fmt.Errorf("default_max_tokens must be positive")
	}
	if c.TitleMaxRunes <= 0 {
		return fmt.Errorf("title_max_runes must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		HistoryLimit:       10,
		DefaultTemperature: 0.7,
		DefaultMaxTokens:   1024,
		TitleMaxRunes:      defaultTitleRunes,
		SystemPrompt:       DefaultSystemPrompt,
	}
}
