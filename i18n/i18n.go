// Package i18n provides internationalization support for flowtrans itself.
//
// It wraps the gotext library. The CLI uses the package-level T() and N()
// after Init(); launcher queries carry their own interface language, so
// they build a Locale with New() and translate through it.
//
// Translations are embedded in the binary via //go:embed.
//
// Usage:
//
//	loc := i18n.New(s.InterfaceLanguage)
//	title := loc.T("Unsupported source language")
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the translation files.
// Directory structure: locales/{lang}/LC_MESSAGES/flowtrans.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name for flowtrans.
const domain = "flowtrans"

// Locale translates messages into one interface language.
// A nil *Locale passes msgids through unchanged.
type Locale struct {
	lang string
	po   *gotext.Locale
}

// New returns a Locale for lang ("zh", "ru", ...). Languages without a
// catalog fall back to the English msgids.
func New(lang string) *Locale {
	if lang == "" {
		lang = "en"
	}
	po := gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
	return &Locale{lang: lang, po: po}
}

// Lang returns the interface language of the locale.
func (l *Locale) Lang() string {
	if l == nil {
		return "en"
	}
	return l.lang
}

// T translates a string, formatting it with vars when given.
func (l *Locale) T(msgid string, vars ...any) string {
	if l == nil || l.po == nil {
		return sprintf(msgid, vars...)
	}
	return l.po.Get(msgid, vars...)
}

// N translates a string with plural forms.
func (l *Locale) N(singular, plural string, n int, vars ...any) string {
	if l == nil || l.po == nil {
		if n == 1 {
			return sprintf(singular, vars...)
		}
		return sprintf(plural, vars...)
	}
	return l.po.GetN(singular, plural, n, vars...)
}

// std is the process locale used by the CLI.
var std *Locale

// Init initializes the process locale. If lang is empty, it auto-detects
// from LANGUAGE, LC_ALL, LC_MESSAGES, LANG (in that order, matching GNU
// gettext behavior).
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	std = New(lang)
}

// T translates a string with the process locale.
func T(msgid string, vars ...any) string {
	return std.T(msgid, vars...)
}

// N translates a plural string with the process locale.
func N(singular, plural string, n int, vars ...any) string {
	return std.N(singular, plural, n, vars...)
}

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE can be a colon-separated list; take the first
			if env == "LANGUAGE" {
				parts := strings.SplitN(val, ":", 2)
				val = parts[0]
			}
			// Strip encoding suffix (e.g. "ru_RU.UTF-8" -> "ru_RU")
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}

func sprintf(format string, vars ...any) string {
	if len(vars) == 0 {
		return format
	}
	return fmt.Sprintf(format, vars...)
}
