package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2/google"

	"formfill/config"
)

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1"
	geminiScope           = "https://www.googleapis.com/auth/cloud-platform"
)

type GeminiRequest struct {
	Contents         []Content              `json:"contents"`
	GenerationConfig GeminiGenerationConfig `json:"generationConfig"`
}

type GeminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float32 `json:"temperature"`
}

type Content struct {
	Parts []Part `json:"parts"`
	Role  string `json:"role"`
}

type Part struct {
	Text string `json:"text"`
}

type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls generateContent with an API key, or with a bearer token
// from application-default credentials when no key is configured.
type GeminiClient struct {
	http        *resty.Client
	endpoint    string
	apiKey      string
	model       string
	maxTokens   int
	temperature float32
	accessToken func(ctx context.Context) (string, error)
}

func NewGeminiClient(cfg config.LLMConfig) *GeminiClient {
	return &GeminiClient{
		http:        resty.New(),
		endpoint:    defaultGeminiEndpoint,
		apiKey:      cfg.GeminiAPIKey,
		model:       cfg.GeminiModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		accessToken: getAccessToken,
	}
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	requestBody := GeminiRequest{
		Contents: []Content{
			{
				Role:  "user",
				Parts: []Part{{Text: prompt}},
			},
		},
		GenerationConfig: GeminiGenerationConfig{
			MaxOutputTokens: c.maxTokens,
			Temperature:     c.temperature,
		},
	}

	var gemResp GeminiResponse
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(requestBody).
		SetResult(&gemResp)

	if c.apiKey != "" {
		req.SetQueryParam("key", c.apiKey)
	} else {
		token, err := c.accessToken(ctx)
		if err != nil {
			return "", fmt.Errorf("no GEMINI_API_KEY and default credentials failed: %w", err)
		}
		req.SetAuthToken(token)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.endpoint, "/"), c.model)
	resp, err := req.Post(url)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("Gemini API error: %s", resp.String())
	}

	if len(gemResp.Candidates) == 0 || len(gemResp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no predictions returned")
	}

	return strings.TrimSpace(gemResp.Candidates[0].Content.Parts[0].Text), nil
}

func getAccessToken(ctx context.Context) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, geminiScope)
	if err != nil {
		return "", err
	}
	token, err := creds.TokenSource.Token()
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}
