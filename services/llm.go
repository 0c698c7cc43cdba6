package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"formfill/config"
	"formfill/models"
)

// Completer sends a single-turn prompt to a language model and returns its text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewCompleter builds the client for the configured provider.
func NewCompleter(cfg config.LLMConfig) (Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIClient(cfg), nil
	case "gemini":
		return NewGeminiClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
	}
}

var (
	// ErrNoJSON means the model answer contains no {...} block at all.
	ErrNoJSON = errors.New("LLM did not return JSON")
	// ErrUnparseableJSON means a {...} block was found but is not a valid mapping object.
	ErrUnparseableJSON = errors.New("could not parse LLM JSON output")
)

// MappingResponse is the model's answer: ordered selector/value pairs plus free-text notes.
type MappingResponse struct {
	Mapping []models.MappingEntry
	Notes   string
}

// Greedy on purpose: from the first '{' to the last '}'.
var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ParseMappingResponse reads the model answer as JSON, falling back to the
// outermost {...} block when the answer is wrapped in prose or code fences.
func ParseMappingResponse(raw string) (*MappingResponse, error) {
	text := strings.TrimSpace(raw)
	if resp, err := decodeMappingJSON(text); err == nil {
		return resp, nil
	}

	block := jsonBlockPattern.FindString(text)
	if block == "" {
		return nil, ErrNoJSON
	}

	resp, err := decodeMappingJSON(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableJSON, err)
	}
	return resp, nil
}

func decodeMappingJSON(text string) (*MappingResponse, error) {
	var envelope struct {
		Mapping json.RawMessage `json:"mapping"`
		Notes   json.RawMessage `json:"notes"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, err
	}

	mapping, err := decodeOrderedMapping(envelope.Mapping)
	if err != nil {
		return nil, err
	}

	return &MappingResponse{Mapping: mapping, Notes: jsonValueText(envelope.Notes)}, nil
}

// decodeOrderedMapping keeps the model's key order. A repeated key keeps its
// first position and takes the last value.
func decodeOrderedMapping(raw json.RawMessage) ([]models.MappingEntry, error) {
	entries := make([]models.MappingEntry, 0)
	if len(raw) == 0 || string(raw) == "null" {
		return entries, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("mapping is not a JSON object")
	}

	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}

		if i, seen := index[key]; seen {
			entries[i].Value = jsonValueText(value)
			continue
		}
		index[key] = len(entries)
		entries = append(entries, models.MappingEntry{Selector: key, Value: jsonValueText(value)})
	}
	return entries, nil
}

// jsonValueText renders a JSON value as the text to type: strings unquoted,
// null as empty, anything else as its compact JSON form.
func jsonValueText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

const mappingPromptTemplate = `
You are a smart form auto-filler LLM.

User data (plaintext):
%s

Page metadata:
Title: %s
URL: %s

Structured form controls (JSON array):
%s

Task:
Build a JSON object that maps the user's data to the best matching form controls.
Return ONLY parseable JSON in the exact structure below.

Expected JSON structure:
{
  "mapping": { "<control_selector>": "<value_to_type>", ... },
  "notes": "<short notes about CAPTCHAs/ambiguous fields or special instructions>"
}

Rules:
- Use selector conventions: prefer "id:THE_ID" when element has an id, otherwise "name:THE_NAME" if element has a name, otherwise provide a valid CSS selector.
- Do NOT attempt to bypass CAPTCHAs, 2FA, email or SMS verification. If present, mention in notes.
- If unsure, provide best-effort mapping and include ambiguous fields in notes.
- Return JSON only, no explanatory text.
`

// BuildMappingPrompt embeds the user details, page metadata and control list into the fixed prompt.
func BuildMappingPrompt(details, title, url string, controls []models.ControlDescriptor) (string, error) {
	if controls == nil {
		controls = []models.ControlDescriptor{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(controls); err != nil {
		return "", fmt.Errorf("failed to encode controls: %w", err)
	}

	return fmt.Sprintf(mappingPromptTemplate, details, title, url, strings.TrimRight(buf.String(), "\n")), nil
}
