package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/minios-linux/flowtrans/langmeta"
	"github.com/minios-linux/flowtrans/settings"
)

// chatSystemPrompt instructs the model to behave as a plain translator.
// {{source}} and {{target}} are replaced with English language names.
const chatSystemPrompt = `You are a translation engine. Translate the user's message from {{source}} to {{target}}.
Reply with the translation only: no explanations, no quotes, no notes.
Preserve line breaks, punctuation, numbers and proper nouns.`

// chatAutoSourcePrompt is used when the source language is unknown.
const chatAutoSourcePrompt = `You are a translation engine. Detect the language of the user's message and translate it to {{target}}.
Reply with the translation only: no explanations, no quotes, no notes.
Preserve line breaks, punctuation, numbers and proper nouns.`

// chatLanguages uses English language names as backend codes, which is
// what the models understand best.
var chatLanguages = func() map[string]string {
	m := map[string]string{langmeta.Auto: langmeta.Auto}
	for _, code := range langmeta.Codes() {
		m[code] = langmeta.Name(code, "en")
	}
	return m
}()

// Chat translates with an OpenAI-compatible chat/completions endpoint.
type Chat struct {
	// ID is the registry name.
	ID string
	// BaseURL is the default API base URL; settings may override it.
	BaseURL string
	// Model is the default model; settings may override it.
	Model string
	// NeedsKey is false for local servers.
	NeedsKey bool
}

// OpenAI returns the OpenAI chat service.
func OpenAI() *Chat {
	return &Chat{ID: NameOpenAI, BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini", NeedsKey: true}
}

// Groq returns the Groq chat service.
func Groq() *Chat {
	return &Chat{ID: NameGroq, BaseURL: "https://api.groq.com/openai/v1", Model: "llama-3.1-8b-instant", NeedsKey: true}
}

// Ollama returns the local Ollama service (OpenAI-compatible API).
func Ollama() *Chat {
	return &Chat{ID: NameOllama, BaseURL: "http://localhost:11434/v1", Model: "llama3.1"}
}

func (c *Chat) Name() string { return c.ID }

func (c *Chat) Languages() map[string]string { return chatLanguages }

// options returns the base URL and model after the stored endpoint and
// the settings overrides are applied.
func (c *Chat) options(s *settings.Settings) (baseURL, model string) {
	baseURL, model = orValue(settings.GetBaseURL(c.ID), c.BaseURL), c.Model
	switch c.ID {
	case NameOpenAI:
		baseURL, model = orValue(s.OpenAIBaseURL, baseURL), orValue(s.OpenAIModel, model)
	case NameGroq:
		model = orValue(s.GroqModel, model)
	case NameOllama:
		baseURL, model = orValue(s.OllamaBaseURL, baseURL), orValue(s.OllamaModel, model)
	}
	return baseURL, model
}

func (c *Chat) Translate(ctx context.Context, text, from, to string, client *http.Client, s *settings.Settings) (string, error) {
	key := s.APIKey(c.ID)
	if c.NeedsKey && key == "" {
		return "", fmt.Errorf("%s: %w", c.ID, ErrMissingAPIKey)
	}

	baseURL, model := c.options(s)
	endpoint := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(endpoint, "/chat/completions") {
		endpoint += "/chat/completions"
	}

	body, err := buildChatRequest(model, chatPrompt(from, to), text, 0.3)
	if err != nil {
		return "", fmt.Errorf("%s: building request: %w", c.ID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: creating request: %w", c.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	var resp chatResponse
	if err := doJSON(client, req, c.ID, &resp); err != nil {
		return "", err
	}
	return resp.text(c.ID)
}

func chatPrompt(from, to string) string {
	prompt := chatSystemPrompt
	if from == langmeta.Auto {
		prompt = chatAutoSourcePrompt
	}
	prompt = strings.ReplaceAll(prompt, "{{source}}", from)
	return strings.ReplaceAll(prompt, "{{target}}", to)
}

func buildChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	return json.Marshal(req)
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (r *chatResponse) text(service string) (string, error) {
	if r.Error != nil {
		return "", fmt.Errorf("%s: API error: %s", service, r.Error.Message)
	}
	if len(r.Choices) == 0 {
		return "", errors.New(service + ": no choices in response")
	}
	content := strings.TrimSpace(r.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New(service + ": empty completion")
	}
	return content, nil
}

func orValue(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
