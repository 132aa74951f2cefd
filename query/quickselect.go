package query

import (
	"github.com/minios-linux/flowtrans/i18n"
	"github.com/minios-linux/flowtrans/prompt"
	"github.com/minios-linux/flowtrans/settings"
)

// QuickSelect lists language pairs the user can switch to. The current
// pair always comes first, followed by the valid configured pairs in
// their configured order. Selecting an entry rewrites the query to
// "<keyword> <source>><target> ".
func QuickSelect(source, target string, s *settings.Settings) []Result {
	loc := i18n.New(s.InterfaceLanguage)

	current := prompt.Pair{Source: source, Target: target}
	results := make([]Result, 0, len(s.LanguagePairs)+1)
	results = append(results, pairResult(current, loc.T("Current language pair"), s.TriggerKeyword, loc))

	for _, raw := range s.LanguagePairs {
		p, ok := prompt.ParsePair(raw)
		if !ok {
			continue
		}
		results = append(results, pairResult(p, loc.T("Switch to %s", p.String()), s.TriggerKeyword, loc))
	}
	return results
}

func pairResult(p prompt.Pair, subtitle, keyword string, loc *i18n.Locale) Result {
	return Result{
		Title:    pairTitle(p, loc),
		SubTitle: subtitle,
		IcoPath:  IconApp,
		Action:   ChangeQueryAction(changeQuery(keyword, p)),
	}
}

// changeQuery builds the launcher input for a pair. A global plugin
// ("*" or no keyword) is queried without a keyword.
func changeQuery(keyword string, p prompt.Pair) string {
	if keyword == "" || keyword == "*" {
		return p.String() + " "
	}
	return keyword + " " + p.String() + " "
}
