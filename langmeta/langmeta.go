// Package langmeta provides the language table used by the prompt parser,
// the dispatcher and the CLI: the closed set of valid language codes and
// their display names per interface language.
package langmeta

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the sentinel code meaning "let the service detect the source" or,
// as a target, "infer the target from the input script".
// It is never a key of Registry.
const Auto = "auto"

// Meta describes language display names keyed by interface language.
type Meta struct {
	Names map[string]string
}

// Registry contains the valid language codes. Static names exist for the
// "en" and "zh" interface languages; other interface languages are
// resolved through CLDR data in Name().
var Registry = map[string]Meta{
	"ar":    {Names: map[string]string{"en": "Arabic", "zh": "阿拉伯语"}},
	"bg":    {Names: map[string]string{"en": "Bulgarian", "zh": "保加利亚语"}},
	"cs":    {Names: map[string]string{"en": "Czech", "zh": "捷克语"}},
	"da":    {Names: map[string]string{"en": "Danish", "zh": "丹麦语"}},
	"de":    {Names: map[string]string{"en": "German", "zh": "德语"}},
	"el":    {Names: map[string]string{"en": "Greek", "zh": "希腊语"}},
	"en":    {Names: map[string]string{"en": "English", "zh": "英语"}},
	"es":    {Names: map[string]string{"en": "Spanish", "zh": "西班牙语"}},
	"et":    {Names: map[string]string{"en": "Estonian", "zh": "爱沙尼亚语"}},
	"fi":    {Names: map[string]string{"en": "Finnish", "zh": "芬兰语"}},
	"fr":    {Names: map[string]string{"en": "French", "zh": "法语"}},
	"hi":    {Names: map[string]string{"en": "Hindi", "zh": "印地语"}},
	"hu":    {Names: map[string]string{"en": "Hungarian", "zh": "匈牙利语"}},
	"id":    {Names: map[string]string{"en": "Indonesian", "zh": "印尼语"}},
	"it":    {Names: map[string]string{"en": "Italian", "zh": "意大利语"}},
	"ja":    {Names: map[string]string{"en": "Japanese", "zh": "日语"}},
	"ko":    {Names: map[string]string{"en": "Korean", "zh": "韩语"}},
	"lt":    {Names: map[string]string{"en": "Lithuanian", "zh": "立陶宛语"}},
	"lv":    {Names: map[string]string{"en": "Latvian", "zh": "拉脱维亚语"}},
	"nl":    {Names: map[string]string{"en": "Dutch", "zh": "荷兰语"}},
	"pl":    {Names: map[string]string{"en": "Polish", "zh": "波兰语"}},
	"pt":    {Names: map[string]string{"en": "Portuguese", "zh": "葡萄牙语"}},
	"ro":    {Names: map[string]string{"en": "Romanian", "zh": "罗马尼亚语"}},
	"ru":    {Names: map[string]string{"en": "Russian", "zh": "俄语"}},
	"sk":    {Names: map[string]string{"en": "Slovak", "zh": "斯洛伐克语"}},
	"sl":    {Names: map[string]string{"en": "Slovenian", "zh": "斯洛文尼亚语"}},
	"sv":    {Names: map[string]string{"en": "Swedish", "zh": "瑞典语"}},
	"th":    {Names: map[string]string{"en": "Thai", "zh": "泰语"}},
	"tr":    {Names: map[string]string{"en": "Turkish", "zh": "土耳其语"}},
	"uk":    {Names: map[string]string{"en": "Ukrainian", "zh": "乌克兰语"}},
	"vi":    {Names: map[string]string{"en": "Vietnamese", "zh": "越南语"}},
	"zh":    {Names: map[string]string{"en": "Chinese (Simplified)", "zh": "简体中文"}},
	"zh_tw": {Names: map[string]string{"en": "Chinese (Traditional)", "zh": "繁体中文"}},
}

// Codes returns the sorted list of valid language codes (without Auto).
func Codes() []string {
	codes := make([]string, 0, len(Registry))
	for code := range Registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Has reports whether code is a key of Registry. Auto is not.
func Has(code string) bool {
	_, ok := Registry[code]
	return ok
}

// IsValid reports whether code may appear in a prompt prefix or a
// configured language pair: any Registry code, or Auto.
func IsValid(code string) bool {
	return code == Auto || Has(code)
}

// Tag converts a table code to a BCP 47 string, e.g. "zh_tw" -> "zh-TW".
func Tag(code string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Name returns the display name of code in the given interface language.
// Lookup order: static table, CLDR display names, English table name,
// the code itself.
func Name(code, interfaceLang string) string {
	m, ok := Registry[code]
	if !ok {
		return code
	}
	if name := m.Names[interfaceLang]; name != "" {
		return name
	}
	if name := cldrName(code, interfaceLang); name != "" {
		return name
	}
	if name := m.Names["en"]; name != "" {
		return name
	}
	return code
}

func cldrName(code, interfaceLang string) string {
	ui, err := language.Parse(Tag(interfaceLang))
	if err != nil {
		return ""
	}
	namer := display.Tags(ui)
	if namer == nil {
		return ""
	}
	tag, err := language.Parse(Tag(code))
	if err != nil {
		return ""
	}
	return namer.Name(tag)
}

// IsCJK reports whether r is a CJK Unified Ideograph (U+4E00..U+9FFF).
func IsCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// ContainsCJK reports whether s contains at least one CJK Unified Ideograph.
func ContainsCJK(s string) bool {
	return strings.IndexFunc(s, IsCJK) >= 0
}
