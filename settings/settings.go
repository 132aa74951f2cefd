package settings

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/flowtrans/langmeta"
)

// Defaults applied when the host configuration leaves a field empty.
const (
	DefaultInterfaceLanguage = "en"
	DefaultSourceLanguage    = langmeta.Auto
	DefaultTargetLanguage    = langmeta.Auto
	DefaultTriggerKeyword    = "tr"
	DefaultTranslateDelay    = 300 * time.Millisecond
	DefaultTimeout           = 10 * time.Second
)

// Settings is the per-query configuration. It is rebuilt from the raw host
// configuration on every query and never mutated afterwards.
type Settings struct {
	InterfaceLanguage string        `validate:"required"`
	SourceLanguage    string        `validate:"required"`
	TargetLanguage    string        `validate:"required"`
	TriggerKeyword    string
	Services          []string      `validate:"dive,required"`
	LanguagePairs     []string      `validate:"dive,required"`
	TranslateDelay    time.Duration `validate:"gte=0s,lte=10s"`

	Proxy   string        `validate:"omitempty,url"`
	Timeout time.Duration `validate:"gt=0s"`

	DeepLKey      string
	OpenAIKey     string
	OpenAIBaseURL string `validate:"omitempty,url"`
	OpenAIModel   string
	GroqKey       string
	GroqModel     string
	OllamaBaseURL string `validate:"omitempty,url"`
	OllamaModel   string
}

// raw mirrors the host configuration keys. Field types are lenient because
// launcher settings forms deliver everything as strings.
type raw struct {
	InterfaceLanguage string  `json:"interfaceLanguage" yaml:"interfaceLanguage"`
	SourceLanguage    string  `json:"defaultSourceLanguage" yaml:"defaultSourceLanguage"`
	TargetLanguage    string  `json:"defaultTargetLanguage" yaml:"defaultTargetLanguage"`
	TriggerKeyword    *string `json:"triggerKeyword" yaml:"triggerKeyword"`
	Services          List    `json:"services" yaml:"services"`
	LanguagePairs     List    `json:"languagePairs" yaml:"languagePairs"`
	TranslateDelay    Number  `json:"translateDelay" yaml:"translateDelay"` // milliseconds

	Proxy   string `json:"proxy" yaml:"proxy"`
	Timeout Number `json:"timeout" yaml:"timeout"` // seconds

	DeepLKey      string `json:"deeplKey" yaml:"deeplKey"`
	OpenAIKey     string `json:"openaiKey" yaml:"openaiKey"`
	OpenAIBaseURL string `json:"openaiBaseUrl" yaml:"openaiBaseUrl"`
	OpenAIModel   string `json:"openaiModel" yaml:"openaiModel"`
	GroqKey       string `json:"groqKey" yaml:"groqKey"`
	GroqModel     string `json:"groqModel" yaml:"groqModel"`
	OllamaBaseURL string `json:"ollamaBaseUrl" yaml:"ollamaBaseUrl"`
	OllamaModel   string `json:"ollamaModel" yaml:"ollamaModel"`
}

var validate = validator.New()

// FromRaw builds Settings from the untyped configuration supplied by the
// host. A nil map yields the defaults.
func FromRaw(m map[string]any) (*Settings, error) {
	var r raw
	if len(m) > 0 {
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encoding raw settings: %w", err)
		}
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decoding raw settings: %w", err)
		}
	}
	return build(r)
}

// Load reads Settings from a YAML file. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	var r raw
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return build(r)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return build(r)
}

func build(r raw) (*Settings, error) {
	s := &Settings{
		InterfaceLanguage: DefaultInterfaceLanguage,
		SourceLanguage:    orDefault(r.SourceLanguage, DefaultSourceLanguage),
		TargetLanguage:    orDefault(r.TargetLanguage, DefaultTargetLanguage),
		TriggerKeyword:    DefaultTriggerKeyword,
		Services:          r.Services,
		LanguagePairs:     r.LanguagePairs,
		TranslateDelay:    DefaultTranslateDelay,
		Proxy:             strings.TrimSpace(r.Proxy),
		Timeout:           DefaultTimeout,
		DeepLKey:          strings.TrimSpace(r.DeepLKey),
		OpenAIKey:         strings.TrimSpace(r.OpenAIKey),
		OpenAIBaseURL:     strings.TrimSpace(r.OpenAIBaseURL),
		OpenAIModel:       strings.TrimSpace(r.OpenAIModel),
		GroqKey:           strings.TrimSpace(r.GroqKey),
		GroqModel:         strings.TrimSpace(r.GroqModel),
		OllamaBaseURL:     strings.TrimSpace(r.OllamaBaseURL),
		OllamaModel:       strings.TrimSpace(r.OllamaModel),
	}

	if r.InterfaceLanguage != "" {
		lang, err := baseLanguage(r.InterfaceLanguage)
		if err != nil {
			return nil, err
		}
		s.InterfaceLanguage = lang
	}
	if r.TriggerKeyword != nil {
		s.TriggerKeyword = strings.TrimSpace(*r.TriggerKeyword)
	}
	if r.TranslateDelay.Set {
		s.TranslateDelay = time.Duration(r.TranslateDelay.Value * float64(time.Millisecond))
	}
	if r.Timeout.Set {
		s.Timeout = time.Duration(r.Timeout.Value * float64(time.Second))
	}

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("invalid setting %s: failed %q check", verrs[0].Field(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("validating settings: %w", err)
	}
	return s, nil
}

// baseLanguage reduces an interface language like "zh-CN" or "pt_BR" to
// its base subtag.
func baseLanguage(s string) (string, error) {
	tag, err := language.Parse(langmeta.Tag(s))
	if err != nil {
		return "", fmt.Errorf("invalid interface language %q: %w", s, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// APIKey returns the key for a service: the host-supplied setting when
// present, otherwise the entry from the credential store.
func (s *Settings) APIKey(service string) string {
	var key string
	switch service {
	case "deepl":
		key = s.DeepLKey
	case "openai":
		key = s.OpenAIKey
	case "groq":
		key = s.GroqKey
	}
	if key != "" {
		return key
	}
	return GetAPIKey(service)
}

// ---------------------------------------------------------------------------
// Lenient field types
// ---------------------------------------------------------------------------

// List is a string list that also accepts a single comma or newline
// separated string.
type List []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*l = cleanList(arr)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("expected a list or a string: %w", err)
	}
	*l = splitList(s)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *List) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}
		*l = cleanList(arr)
	case yaml.ScalarNode:
		*l = splitList(node.Value)
	default:
		return fmt.Errorf("line %d: expected a list or a string", node.Line)
	}
	return nil
}

func splitList(s string) List {
	return cleanList(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	}))
}

func cleanList(items []string) List {
	out := make(List, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Number accepts a JSON/YAML number or a numeric string. Empty values
// leave Set false.
type Number struct {
	Value float64
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	return n.parse(strings.Trim(strings.TrimSpace(string(b)), `"`))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	return n.parse(node.Value)
}

func (n *Number) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	n.Value, n.Set = v, true
	return nil
}
