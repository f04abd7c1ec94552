// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProviderConfig holds the credential and endpoint of one chat-completion backend.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Config struct {
	ServerPort  string
	Environment string
	LogLevel    string
	DatabaseURL string

	Gemini      ProviderConfig
	HuggingFace ProviderConfig
	Deepseek    ProviderConfig
	OpenRouter  ProviderConfig
	// AppURL is sent to OpenRouter as the HTTP-Referer of the app.
	AppURL        string
	ProviderOrder []string

	HistoryLimit       int
	DefaultTemperature float32
	DefaultMaxTokens   int
	OfflineRepliesFile string
	// SystemPrompt replaces the built-in assistant persona when set.
	SystemPrompt string

	RateLimitRPS   float64
	RateLimitBurst int

	AdminTokenSecret string
	AllowedOrigins   string
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: env,
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		DatabaseURL: getEnv("DATABASE_URL", "sqlite://yasmin.db"),

		Gemini: ProviderConfig{
			APIKey:  getEnv("GOOGLE_API_KEY", ""),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		HuggingFace: ProviderConfig{
			APIKey:  getEnv("HUGGINGFACE_API_TOKEN", ""),
			BaseURL: getEnv("HUGGINGFACE_BASE_URL", "https://api-inference.huggingface.co"),
			Model:   getEnv("HUGGINGFACE_MODEL", "mistralai/Mistral-7B-Instruct-v0.1"),
			// Free inference models are slow to warm up.
			Timeout: getEnvAsDuration("HUGGINGFACE_TIMEOUT", 90*time.Second),
		},
		Deepseek: ProviderConfig{
			APIKey:  getEnv("DEEPSEEK_API_KEY", ""),
			BaseURL: getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
			Model:   getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
			Timeout: getEnvAsDuration("DEEPSEEK_TIMEOUT", 25*time.Second),
		},
		OpenRouter: ProviderConfig{
			APIKey:  getEnv("OPENROUTER_API_KEY", ""),
			BaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:   getEnv("OPENROUTER_MODEL", "mistralai/mistral-7b-instruct:free"),
			Timeout: getEnvAsDuration("OPENROUTER_TIMEOUT", 60*time.Second),
		},
		AppURL:        getEnv("APP_URL", "http://localhost:8080"),
		ProviderOrder: getEnvAsList("PROVIDER_ORDER", []string{"gemini", "huggingface", "deepseek", "openrouter"}),

		HistoryLimit:       getEnvAsInt("HISTORY_LIMIT", 10),
		DefaultTemperature: float32(getEnvAsFloat("DEFAULT_TEMPERATURE", 0.7)),
		DefaultMaxTokens:   getEnvAsInt("DEFAULT_MAX_TOKENS", 1024),
		OfflineRepliesFile: getEnv("OFFLINE_REPLIES_FILE", ""),
		SystemPrompt:       getEnv("SYSTEM_PROMPT", ""),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 5),

		AdminTokenSecret: getEnv("ADMIN_TOKEN_SECRET", ""),
		AllowedOrigins:   getEnv("ALLOWED_ORIGINS", "*"),
	}

	// Validation for production environments
	if strings.ToLower(env) == "production" {
		if missing := cfg.MissingProductionVars(); len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

// MissingProductionVars lists the variables that must be set explicitly in production.
func (c *Config) MissingProductionVars() []string {
	missing := []string{}
	if _, ok := os.LookupEnv("DATABASE_URL"); !ok {
		missing = append(missing, "DATABASE_URL")
	}
	return missing
}

// Validate checks value ranges that would otherwise fail at request time.
func (c *Config) Validate() error {
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}
	if c.DefaultTemperature < 0 || c.DefaultTemperature > 2 {
		return fmt.Errorf("DEFAULT_TEMPERATURE must be within [0, 2], got %v", c.DefaultTemperature)
	}
	if c.DefaultMaxTokens <= 0 {
		return fmt.Errorf("DEFAULT_MAX_TOKENS must be positive, got %d", c.DefaultMaxTokens)
	}
	if len(c.ProviderOrder) == 0 {
		return fmt.Errorf("PROVIDER_ORDER must name at least one provider")
	}
	return nil
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as float. Using default value.", key)
		return defaultValue
	}
	return v
}

// getEnvAsDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if strValue == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(strValue)
	if err != nil || d <= 0 {
		log.Printf("Warning: could not parse env var %s as duration. Using default value.", key)
		return defaultValue
	}
	return d
}

func getEnvAsList(key string, defaultValue []string) []string {
	strValue := getEnv(key, "")
	if strings.TrimSpace(strValue) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
