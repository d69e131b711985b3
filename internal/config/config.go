package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/vitos-assistant/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8000"`

	// Required credentials
	CohereAPIKey   string `env:"COHERE_API_KEY"`
	DeepSeekAPIKey string `env:"DEEPSEEK_API_KEY"`

	// Knowledge base and relational dataset
	KnowledgeBasePath string `env:"KNOWLEDGE_BASE_PATH" envDefault:"Vitos-Pizza-Cafe-KB"`
	DatabasePath      string `env:"DATABASE_PATH" envDefault:"customer_db.sql"`

	// Model configuration
	LLMCfg         LLMConfig `envPrefix:"LLM_"`
	EmbeddingModel string    `env:"EMBEDDING_MODEL" envDefault:"embed-english-v3.0"`

	// RAG configuration
	SimilaritySearchK int `env:"SIMILARITY_SEARCH_K" envDefault:"5"`
	ChunkSize         int `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap      int `env:"CHUNK_OVERLAP" envDefault:"200"`

	// External service configurations
	RerankConnectorCfg RerankConnectorConfig `envPrefix:"RERANK_"`
	GuardConnectorCfg  GuardConnectorConfig  `envPrefix:"X_PAN_"`

	// Conversation configuration
	HistoryMaxMessages int           `env:"HISTORY_MAX_MESSAGES" envDefault:"20"`
	ConversationTTL    time.Duration `env:"CONVERSATION_TTL" envDefault:"0s"`
	TurnTimeout        time.Duration `env:"TURN_TIMEOUT" envDefault:"120s"`
	AgentMaxIterations int           `env:"AGENT_MAX_ITERATIONS" envDefault:"10"`

	// Transcript export
	UnidocLicenseAPIKey string `env:"UNIDOC_LICENSE_API_KEY"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

type LLMConfig struct {
	Model       string               `env:"MODEL" envDefault:"deepseek-chat"`
	BaseURL     string               `env:"BASE_URL" envDefault:"https://api.deepseek.com"`
	Temperature float64              `env:"TEMPERATURE" envDefault:"0"`
	MaxRetries  uint                 `env:"MAX_RETRIES" envDefault:"2"`
	Retry       pkgRetry.RetryConfig `envPrefix:"RETRY_"`
	HTTP        HTTPClientConfig     `envPrefix:"HTTP_"`
}

type RerankConnectorConfig struct {
	HTTPClientConfig
	Model    string               `env:"MODEL" envDefault:"rerank-english-v3.0"`
	TopN     int                  `env:"TOP_N" envDefault:"3"`
	Endpoint string               `env:"ENDPOINT" envDefault:"/v1/rerank"`
	Retry    pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type GuardConnectorConfig struct {
	HTTPClientConfig
	ScanEndpoint      string               `env:"SCAN_ENDPOINT" envDefault:"/v1/scan/sync/request"`
	AIModel           string               `env:"AI_MODEL"`
	AppName           string               `env:"APP_NAME" envDefault:"Vitos Pizza Cafe"`
	AppUser           string               `env:"APP_USER" envDefault:"Vitos-Admin"`
	InputProfileName  string               `env:"INPUT_CHECK_PROFILE_NAME" envDefault:"Demo-Profile-for-Input"`
	OutputProfileName string               `env:"OUTPUT_CHECK_PROFILE_NAME" envDefault:"Demo-Profile-for-Output"`
	Retry             pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// Enabled reports whether the safety scan stage should run
func (c GuardConnectorConfig) Enabled() bool {
	return c.Token != ""
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
}

const (
	defaultCohereURL = "https://api.cohere.com"
	defaultGuardURL  = "https://service.api.aisecurity.paloaltonetworks.com"
)

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Missing env files are fine: containers usually set variables externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	cfg.Environment = *envFlag

	return cfg, nil
}

// Parse reads the configuration from the process environment and validates it
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.RerankConnectorCfg.Url == "" {
		cfg.RerankConnectorCfg.Url = defaultCohereURL
	}
	if cfg.RerankConnectorCfg.Token == "" {
		cfg.RerankConnectorCfg.Token = cfg.CohereAPIKey
	}
	if cfg.GuardConnectorCfg.Url == "" {
		cfg.GuardConnectorCfg.Url = defaultGuardURL
	}
	if cfg.GuardConnectorCfg.AIModel == "" {
		cfg.GuardConnectorCfg.AIModel = cfg.LLMCfg.Model
	}
	if cfg.LLMCfg.Retry.Attempts == 0 {
		cfg.LLMCfg.Retry = *pkgRetry.DefaultRetryConfig()
		cfg.LLMCfg.Retry.Attempts = cfg.LLMCfg.MaxRetries + 1
	}
	if cfg.RerankConnectorCfg.Retry.Attempts == 0 {
		cfg.RerankConnectorCfg.Retry = *pkgRetry.DefaultRetryConfig()
	}
	if cfg.GuardConnectorCfg.Retry.Attempts == 0 {
		cfg.GuardConnectorCfg.Retry = *pkgRetry.DefaultRetryConfig()
	}
}

// MissingCredentials lists required credential variables that are not set
func MissingCredentials(cfg *Config) []string {
	if cfg.EnableMocks {
		return nil
	}

	var missing []string
	if cfg.CohereAPIKey == "" {
		missing = append(missing, "COHERE_API_KEY")
	}
	if cfg.DeepSeekAPIKey == "" {
		missing = append(missing, "DEEPSEEK_API_KEY")
	}
	return missing
}

func validateConfig(cfg *Config) error {
	if missing := MissingCredentials(cfg); len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	var errors []string

	if cfg.SimilaritySearchK < 1 || cfg.SimilaritySearchK > 100 {
		errors = append(errors, fmt.Sprintf("SIMILARITY_SEARCH_K must be between 1 and 100, got %d", cfg.SimilaritySearchK))
	}

	if cfg.RerankConnectorCfg.TopN < 1 || cfg.RerankConnectorCfg.TopN > cfg.SimilaritySearchK {
		errors = append(errors, fmt.Sprintf("RERANK_TOP_N must be between 1 and SIMILARITY_SEARCH_K(%d), got %d", cfg.SimilaritySearchK, cfg.RerankConnectorCfg.TopN))
	}

	if cfg.ChunkSize < 1 {
		errors = append(errors, fmt.Sprintf("CHUNK_SIZE must be positive, got %d", cfg.ChunkSize))
	}

	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		errors = append(errors, fmt.Sprintf("CHUNK_OVERLAP must be between 0 and CHUNK_SIZE(%d), got %d", cfg.ChunkSize, cfg.ChunkOverlap))
	}

	if cfg.HistoryMaxMessages < 2 || cfg.HistoryMaxMessages%2 != 0 {
		errors = append(errors, fmt.Sprintf("HISTORY_MAX_MESSAGES must be an even number >= 2, got %d", cfg.HistoryMaxMessages))
	}

	if cfg.AgentMaxIterations < 1 || cfg.AgentMaxIterations > 50 {
		errors = append(errors, fmt.Sprintf("AGENT_MAX_ITERATIONS must be between 1 and 50, got %d", cfg.AgentMaxIterations))
	}

	if cfg.TurnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("TURN_TIMEOUT must be positive, got %s", cfg.TurnTimeout))
	}

	if cfg.ConversationTTL < 0 {
		errors = append(errors, fmt.Sprintf("CONVERSATION_TTL must not be negative, got %s", cfg.ConversationTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// ValidateTelegram checks the settings needed by the telegram front-end
func ValidateTelegram(cfg *TelegramConfig) error {
	var errors []string

	if cfg.BotToken == "" {
		errors = append(errors, "TELEGRAM_BOT_TOKEN is required")
	}

	if cfg.RateLimitPerMinute < 1 || cfg.RateLimitPerMinute > 60 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.RateLimitPerMinute))
	}

	if cfg.RateLimitBurst < 1 || cfg.RateLimitBurst > 20 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", cfg.RateLimitBurst))
	}

	if cfg.ShutdownTimeout < 1 || cfg.ShutdownTimeout > 300 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", cfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("telegram configuration errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
