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

// DeepL endpoints. Keys ending in ":fx" belong to the free plan.
const (
	DeepLFreeURL = "https://api-free.deepl.com"
	DeepLProURL  = "https://api.deepl.com"
)

// deeplLanguages holds target codes; source codes drop the region suffix.
// An empty value for auto means "omit source_lang".
var deeplLanguages = func() map[string]string {
	m := identityLanguages(map[string]string{
		langmeta.Auto: "",
		"en":          "EN-US",
		"pt":          "PT-PT",
		"zh":          "ZH-HANS",
		"zh_tw":       "ZH-HANT",
	}, "hi", "th", "vi")
	for code, v := range m {
		m[code] = strings.ToUpper(v)
	}
	return m
}()

// DeepL translates through the DeepL v2 API.
type DeepL struct {
	// BaseURL overrides the plan-based endpoint.
	BaseURL string
}

func (d *DeepL) Name() string { return NameDeepL }

func (d *DeepL) Languages() map[string]string { return deeplLanguages }

func (d *DeepL) Translate(ctx context.Context, text, from, to string, client *http.Client, s *settings.Settings) (string, error) {
	key := s.APIKey(NameDeepL)
	if key == "" {
		return "", fmt.Errorf("deepl: %w", ErrMissingAPIKey)
	}

	base := d.BaseURL
	if base == "" {
		base = DeepLProURL
		if strings.HasSuffix(key, ":fx") {
			base = DeepLFreeURL
		}
	}

	payload := struct {
		Text       []string `json:"text"`
		SourceLang string   `json:"source_lang,omitempty"`
		TargetLang string   `json:"target_lang"`
	}{
		Text:       []string{text},
		SourceLang: deeplSourceCode(from),
		TargetLang: to,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("deepl: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/v2/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("deepl: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+key)

	var resp struct {
		Translations []struct {
			DetectedSourceLanguage string `json:"detected_source_language"`
			Text                   string `json:"text"`
		} `json:"translations"`
	}
	if err := doJSON(client, req, NameDeepL, &resp); err != nil {
		return "", err
	}
	if len(resp.Translations) == 0 {
		return "", errors.New("deepl: no translation in response")
	}
	return resp.Translations[0].Text, nil
}

// deeplSourceCode strips the regional variant: source_lang accepts only
// base languages ("EN", "ZH").
func deeplSourceCode(code string) string {
	base, _, _ := strings.Cut(code, "-")
	return base
}
