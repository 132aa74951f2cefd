package query

import (
	"fmt"

	"github.com/minios-linux/flowtrans/i18n"
	"github.com/minios-linux/flowtrans/langmeta"
	"github.com/minios-linux/flowtrans/prompt"
)

// Host action methods.
const (
	MethodCopy        = "copy"
	MethodChangeQuery = "Flow.Launcher.ChangeQuery"
)

// IconApp is the plugin icon, relative to the plugin directory.
const IconApp = "images/app.png"

// Action is what the host does when the user selects a result.
type Action struct {
	Method     string
	Parameters []any
	// DontHide keeps the launcher window open after the action.
	DontHide bool
}

// CopyAction asks the plugin to place text on the clipboard.
func CopyAction(text string) *Action {
	return &Action{Method: MethodCopy, Parameters: []any{text}}
}

// ChangeQueryAction rewrites the launcher input to q and forces the host
// to issue a new query.
func ChangeQueryAction(q string) *Action {
	return &Action{Method: MethodChangeQuery, Parameters: []any{q, true}, DontHide: true}
}

// Result is one selectable item shown by the launcher.
type Result struct {
	Title    string
	SubTitle string
	IcoPath  string
	Action   *Action
}

// serviceIcon returns the icon path of a service.
func serviceIcon(name string) string {
	return "images/" + name + ".png"
}

func notice(title, subtitle string) Result {
	return Result{Title: title, SubTitle: subtitle, IcoPath: IconApp}
}

// languageName returns the display name of a code, localizing Auto.
func languageName(code string, loc *i18n.Locale) string {
	if code == langmeta.Auto {
		return loc.T("Auto detect")
	}
	return langmeta.Name(code, loc.Lang())
}

func pairTitle(p prompt.Pair, loc *i18n.Locale) string {
	return fmt.Sprintf("%s → %s", languageName(p.Source, loc), languageName(p.Target, loc))
}
