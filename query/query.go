// Package query turns a launcher prompt into result items: it resolves
// the language pair, offers quick-select pairs when there is no text yet,
// and otherwise fans the text out to the configured translation services.
package query

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/minios-linux/flowtrans/httpclient"
	"github.com/minios-linux/flowtrans/i18n"
	"github.com/minios-linux/flowtrans/langmeta"
	"github.com/minios-linux/flowtrans/prompt"
	"github.com/minios-linux/flowtrans/service"
	"github.com/minios-linux/flowtrans/settings"
)

// Handler answers launcher queries.
type Handler struct {
	// Registry resolves configured service names.
	Registry *service.Registry
	// Client returns the HTTP client handed to services. Defaults to the
	// process-wide shared client.
	Client func(*settings.Settings) *http.Client
	// Logger may be nil.
	Logger *zap.Logger
	// Sleep implements the debounce delay. Defaults to a timer that
	// returns early when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewHandler returns a Handler using the shared HTTP client.
func NewHandler(reg *service.Registry, logger *zap.Logger) *Handler {
	return &Handler{Registry: reg, Logger: logger}
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Handler) client(s *settings.Settings) *http.Client {
	if h.Client != nil {
		return h.Client(s)
	}
	return httpclient.Shared(s.Proxy, s.Timeout)
}

func (h *Handler) sleep(ctx context.Context, d time.Duration) error {
	if h.Sleep != nil {
		return h.Sleep(ctx, d)
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Handle answers one launcher query.
func (h *Handler) Handle(ctx context.Context, q string, s *settings.Settings) []Result {
	hq := *h
	hq.Logger = h.logger().With(zap.String("query_id", uuid.NewString()))

	source, target, text := prompt.Parse(q, s.SourceLanguage, s.TargetLanguage)
	hq.Logger.Debug("query parsed",
		zap.String("source", source),
		zap.String("target", target),
		zap.Int("text_len", len(text)))

	if text == "" && len(s.LanguagePairs) > 0 {
		return QuickSelect(source, target, s)
	}
	return hq.Dispatch(ctx, source, target, text, s)
}

// Dispatch translates text with every configured service concurrently.
//
// Configuration problems (no services, unsupported source or target)
// yield a single notice and no requests. Empty text yields a hint showing
// the current pair. Otherwise, after the debounce delay, each service
// contributes one result in configured order; unknown service names are
// skipped and per-service failures become localized error results.
//
// A newer query does not cancel an older one; cancel ctx to drop a
// dispatch that is still in its debounce delay.
func (h *Handler) Dispatch(ctx context.Context, source, target, text string, s *settings.Settings) []Result {
	loc := i18n.New(s.InterfaceLanguage)

	if len(s.Services) == 0 {
		return []Result{notice(
			loc.T("No translation service configured"),
			loc.T("Add services in the plugin settings, e.g. google, deepl"))}
	}
	if source != langmeta.Auto && !langmeta.Has(source) {
		return []Result{notice(
			loc.T("Unsupported source language"),
			loc.T("Language code %s is not supported", source))}
	}
	if target != langmeta.Auto && !langmeta.Has(target) {
		return []Result{notice(
			loc.T("Unsupported target language"),
			loc.T("Language code %s is not supported", target))}
	}
	if text == "" {
		return []Result{notice(
			pairTitle(prompt.Pair{Source: source, Target: target}, loc),
			loc.T("Type the text to translate"))}
	}

	if err := h.sleep(ctx, s.TranslateDelay); err != nil {
		h.logger().Debug("dispatch dropped during debounce", zap.Error(err))
		return nil
	}

	outcomes := h.fanOut(ctx, source, target, text, s, loc)

	results := make([]Result, 0, len(outcomes))
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		results = append(results, Result{
			Title: o.text,
			SubTitle: fmt.Sprintf("%s → %s [%s]",
				languageName(o.source, loc),
				languageName(o.target, loc),
				h.Registry.DisplayName(o.service, loc.Lang())),
			IcoPath: serviceIcon(o.service),
			Action:  CopyAction(o.text),
		})
	}
	return results
}

// outcome is the result of one service. failed marks a localized error
// message in text.
type outcome struct {
	service string
	source  string
	target  string
	text    string
	failed  bool
}

// fanOut runs one task per configured service and returns the outcomes
// indexed like s.Services. Unknown services leave a nil slot.
func (h *Handler) fanOut(ctx context.Context, source, target, text string, s *settings.Settings, loc *i18n.Locale) []*outcome {
	out := make([]*outcome, len(s.Services))
	client := h.client(s)

	var g errgroup.Group
	for i, name := range s.Services {
		svc, ok := h.Registry.Lookup(name)
		if !ok {
			h.logger().Debug("unknown service skipped", zap.String("service", name))
			continue
		}
		i := i
		g.Go(func() error {
			out[i] = h.translateOne(ctx, svc, source, target, text, client, s, loc)
			return nil
		})
	}
	// translateOne reports failures as outcomes, so no task returns an
	// error and Wait only joins.
	_ = g.Wait()
	return out
}

// translateOne never fails: errors and panics of the service become a
// localized message in the outcome.
func (h *Handler) translateOne(ctx context.Context, svc service.Service, source, target, text string, client *http.Client, s *settings.Settings, loc *i18n.Locale) (o *outcome) {
	o = &outcome{service: svc.Name(), source: source, target: target}
	log := h.logger().With(zap.String("service", svc.Name()))

	defer func() {
		if r := recover(); r != nil {
			log.Error("service panicked", zap.Any("panic", r))
			o.text, o.failed = loc.T("Translation failed: %s", fmt.Sprint(r)), true
		}
	}()

	langs := svc.Languages()
	from, ok := langs[source]
	if !ok {
		o.text, o.failed = loc.T("Unsupported source language"), true
		return o
	}

	o.target = EffectiveTarget(target, text, svc)
	to, ok := langs[o.target]
	if !ok {
		o.text, o.failed = loc.T("Unsupported target language"), true
		return o
	}

	start := time.Now()
	translated, err := svc.Translate(ctx, text, from, to, client, s)
	if err != nil {
		log.Warn("translation failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		o.text, o.failed = loc.T("Translation failed: %s", err.Error()), true
		return o
	}
	log.Debug("translated", zap.String("from", from), zap.String("to", to), zap.Duration("elapsed", time.Since(start)))
	o.text = translated
	return o
}

// EffectiveTarget returns the target a service translates into. When the
// requested target is Auto or the service cannot produce it, the target is
// inferred from the script of text: CJK ideographs mean English, anything
// else Chinese. The result depends only on its arguments, so concurrent
// tasks never observe each other's choice.
func EffectiveTarget(target, text string, svc service.Service) string {
	if target != langmeta.Auto && service.Supports(svc, target) {
		return target
	}
	if langmeta.ContainsCJK(text) {
		return "en"
	}
	return "zh"
}
