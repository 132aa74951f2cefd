// Package service implements the translation backends and the registry
// the dispatcher looks them up in: Google Translate, DeepL, and
// OpenAI-compatible chat services (OpenAI, Groq, Ollama).
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/minios-linux/flowtrans/langmeta"
	"github.com/minios-linux/flowtrans/settings"
)

// Service names (matching the launcher settings).
const (
	NameGoogle = "google"
	NameDeepL  = "deepl"
	NameOpenAI = "openai"
	NameGroq   = "groq"
	NameOllama = "ollama"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 1 << 20

// ErrMissingAPIKey is returned when a service needs a key and none is
// configured in the settings or the credential store.
var ErrMissingAPIKey = errors.New("API key is not configured")

// APIError is a non-2xx response from a backend.
type APIError struct {
	Service string
	Status  int
	Body    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API returned status %d: %s", e.Service, e.Status, truncate(e.Body, 200))
}

// Service is a translation backend.
type Service interface {
	// Name is the registry key, e.g. "google".
	Name() string
	// Languages maps language codes to the codes the backend expects.
	// "auto" is present when the backend can detect the source language.
	Languages() map[string]string
	// Translate translates text. from and to are backend codes taken from
	// Languages(). Implementations must be safe for concurrent use.
	Translate(ctx context.Context, text, from, to string, client *http.Client, s *settings.Settings) (string, error)
}

// Supports reports whether svc accepts the language code.
func Supports(svc Service, code string) bool {
	_, ok := svc.Languages()[code]
	return ok
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

// Registry maps service names to services and their display names.
type Registry struct {
	services map[string]Service
	names    map[string]map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]Service),
		names:    make(map[string]map[string]string),
	}
}

// Register adds svc under svc.Name(). names maps interface languages to
// display names; it may be nil.
func (r *Registry) Register(svc Service, names map[string]string) {
	r.services[svc.Name()] = svc
	r.names[svc.Name()] = names
}

// Lookup returns the service registered under name. An unknown name is
// not an error; callers skip it.
func (r *Registry) Lookup(name string) (Service, bool) {
	svc, ok := r.services[name]
	return svc, ok
}

// DisplayName returns the name of a service in the interface language,
// falling back to English and then to the registry key.
func (r *Registry) DisplayName(name, interfaceLang string) string {
	names := r.names[name]
	if n := names[interfaceLang]; n != "" {
		return n
	}
	if n := names["en"]; n != "" {
		return n
	}
	return name
}

// Names returns the sorted registry keys.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.services))
	for name := range r.services {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Default returns a registry with all built-in services.
func Default() *Registry {
	r := NewRegistry()
	r.Register(&Google{}, map[string]string{"en": "Google Translate", "zh": "谷歌翻译", "ru": "Google Переводчик"})
	r.Register(&DeepL{}, map[string]string{"en": "DeepL"})
	r.Register(OpenAI(), map[string]string{"en": "OpenAI"})
	r.Register(Groq(), map[string]string{"en": "Groq"})
	r.Register(Ollama(), map[string]string{"en": "Ollama"})
	return r
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// identityLanguages maps every table code to itself plus the overrides.
func identityLanguages(overrides map[string]string, exclude ...string) map[string]string {
	skip := make(map[string]bool, len(exclude))
	for _, code := range exclude {
		skip[code] = true
	}
	m := make(map[string]string, len(langmeta.Registry)+1)
	for _, code := range langmeta.Codes() {
		if !skip[code] {
			m[code] = code
		}
	}
	for code, v := range overrides {
		m[code] = v
	}
	return m
}

// doJSON sends req and decodes a successful JSON response into out.
func doJSON(client *http.Client, req *http.Request, service string, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", service, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Service: service, Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: invalid JSON response: %w", service, err)
	}
	return nil
}

// truncate cuts s to at most maxLen bytes without splitting a UTF-8
// sequence.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
