package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/minios-linux/flowtrans/langmeta"
	"github.com/minios-linux/flowtrans/settings"
)

// GoogleBaseURL is the public endpoint used by the Google Translate web
// widgets. It needs no API key.
const GoogleBaseURL = "https://translate.googleapis.com"

var googleLanguages = identityLanguages(map[string]string{
	langmeta.Auto: "auto",
	"zh":          "zh-CN",
	"zh_tw":       "zh-TW",
})

// Google translates through the free "gtx" client endpoint.
type Google struct {
	// BaseURL overrides GoogleBaseURL.
	BaseURL string
}

func (g *Google) Name() string { return NameGoogle }

func (g *Google) Languages() map[string]string { return googleLanguages }

func (g *Google) Translate(ctx context.Context, text, from, to string, client *http.Client, _ *settings.Settings) (string, error) {
	base := g.BaseURL
	if base == "" {
		base = GoogleBaseURL
	}
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", from)
	q.Set("tl", to)
	q.Set("dt", "t")
	q.Set("q", text)
	endpoint := strings.TrimRight(base, "/") + "/translate_a/single?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("google: creating request: %w", err)
	}

	// Response shape: [[["translated", "source", ...], ...], null, "detected", ...]
	var resp []any
	if err := doJSON(client, req, NameGoogle, &resp); err != nil {
		return "", err
	}
	return joinGoogleSegments(resp)
}

func joinGoogleSegments(resp []any) (string, error) {
	if len(resp) == 0 {
		return "", errors.New("google: empty response")
	}
	segments, ok := resp[0].([]any)
	if !ok {
		return "", errors.New("google: unexpected response shape")
	}
	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("google: no translation in response")
	}
	return b.String(), nil
}
