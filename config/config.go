package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// LLMConfig selects and configures the language model used for field mapping.
type LLMConfig struct {
	Provider     string  `envconfig:"LLM_PROVIDER" default:"openai"`
	OpenAIAPIKey string  `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string  `envconfig:"OPENAI_MODEL" default:"gpt-4.1-mini"`
	OpenAIURL    string  `envconfig:"OPENAI_BASE_URL"`
	GeminiAPIKey string  `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string  `envconfig:"GEMINI_MODEL" default:"gemini-1.5-pro"`
	MaxTokens    int     `envconfig:"LLM_MAX_TOKENS" default:"1000"`
	Temperature  float32 `envconfig:"LLM_TEMPERATURE" default:"0"`
}

// BrowserConfig controls how each request's browser is launched and driven.
type BrowserConfig struct {
	Headless          bool          `envconfig:"BROWSER_HEADLESS" default:"false"`
	Args              []string      `envconfig:"BROWSER_ARGS" default:"--start-maximized"`
	NavigationTimeout time.Duration `envconfig:"NAVIGATION_TIMEOUT" default:"40s"`
	SettleDelay       time.Duration `envconfig:"SETTLE_DELAY" default:"2s"`
	ScrollDelay       time.Duration `envconfig:"SCROLL_DELAY" default:"500ms"`
	TypeDelay         time.Duration `envconfig:"TYPE_DELAY" default:"10ms"`
}

// SessionConfig is the retention contract for browsers handed back to the operator.
// Zero values mean "keep everything until closed explicitly". IdleTTL counts
// from the end of the fill or the last GET /sessions/:id, whichever is later.
type SessionConfig struct {
	MaxOpen         int           `envconfig:"SESSION_MAX_OPEN" default:"0"`
	IdleTTL         time.Duration `envconfig:"SESSION_IDLE_TTL" default:"0"`
	ReapInterval    time.Duration `envconfig:"SESSION_REAP_INTERVAL" default:"1m"`
	CloseOnShutdown bool          `envconfig:"SESSION_CLOSE_ON_SHUTDOWN" default:"false"`
}

// ScreenshotConfig controls the review snapshot taken after a fill.
type ScreenshotConfig struct {
	Enabled bool   `envconfig:"SCREENSHOT_ENABLED" default:"false"`
	Dir     string `envconfig:"SCREENSHOT_DIR" default:"./static/screenshots"`
}

// AWSConfig holds the S3 target for review snapshots.
type AWSConfig struct {
	AccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	Region          string `envconfig:"AWS_REGION"`
	Bucket          string `envconfig:"AWS_S3_BUCKET"`
}

// Configured reports whether every S3 setting is present.
func (a AWSConfig) Configured() bool {
	return a.AccessKeyID != "" && a.SecretAccessKey != "" && a.Region != "" && a.Bucket != ""
}

// RateLimitConfig limits how often one client may spawn a browser.
type RateLimitConfig struct {
	RequestsPerMinute int  `envconfig:"RATE_LIMIT_PER_MINUTE" default:"10"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"3"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

type AppConfig struct {
	Port           string `envconfig:"PORT" default:"5000"`
	Environment    string `envconfig:"ENVIRONMENT" default:"development"`
	OperatorSecret string `envconfig:"OPERATOR_JWT_SECRET"`
	MaxBodyBytes   int64  `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	LLM        LLMConfig
	Browser    BrowserConfig
	Sessions   SessionConfig
	Screenshot ScreenshotConfig
	AWS        AWSConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Log        LogConfig
}

// Load reads the configuration from the environment and validates it.
func Load() (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *AppConfig) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY not found. Please set it in your .env file")
		}
	case "gemini":
		// API key is optional: application-default credentials are tried at call time.
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.Sessions.MaxOpen < 0 {
		return errors.New("SESSION_MAX_OPEN must not be negative")
	}
	if c.Browser.NavigationTimeout <= 0 {
		return errors.New("NAVIGATION_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs behind the production proxy.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
