package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAIAPIKey)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.OpenAIModel)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.Equal(t, float32(0), cfg.LLM.Temperature)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"--start-maximized"}, cfg.Browser.Args)
	assert.Equal(t, 40*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 2*time.Second, cfg.Browser.SettleDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.Browser.ScrollDelay)
	assert.Equal(t, 10*time.Millisecond, cfg.Browser.TypeDelay)
	assert.Equal(t, 0, cfg.Sessions.MaxOpen)
	assert.Equal(t, time.Duration(0), cfg.Sessions.IdleTTL)
	assert.False(t, cfg.Sessions.CloseOnShutdown)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.False(t, cfg.AWS.Configured())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")
	t.Setenv("BROWSER_HEADLESS", "true")
	t.Setenv("SESSION_MAX_OPEN", "5")
	t.Setenv("SESSION_IDLE_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://app.example.com")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.GeminiModel)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 5, cfg.Sessions.MaxOpen)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.IdleTTL)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_MissingOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()

	assert.EqualError(t, err, "OPENAI_API_KEY not found. Please set it in your .env file")
}

func TestValidate(t *testing.T) {
	valid := func() AppConfig {
		return AppConfig{
			LLM:     LLMConfig{Provider: "openai", OpenAIAPIKey: "sk"},
			Browser: BrowserConfig{NavigationTimeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr bool
	}{
		{"valid", func(c *AppConfig) {}, false},
		{"gemini without key", func(c *AppConfig) { c.LLM = LLMConfig{Provider: "gemini"} }, false},
		{"provider is case insensitive", func(c *AppConfig) { c.LLM.Provider = "OpenAI" }, false},
		{"unknown provider", func(c *AppConfig) { c.LLM.Provider = "llama" }, true},
		{"negative max open", func(c *AppConfig) { c.Sessions.MaxOpen = -1 }, true},
		{"zero navigation timeout", func(c *AppConfig) { c.Browser.NavigationTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAWSConfigured(t *testing.T) {
	full := AWSConfig{AccessKeyID: "a", SecretAccessKey: "s", Region: "r", Bucket: "b"}
	assert.True(t, full.Configured())

	partial := full
	partial.Bucket = ""
	assert.False(t, partial.Configured())
}
