// flowtrans: launcher translation plugin with a small debugging CLI.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minios-linux/flowtrans/i18n"
	"github.com/minios-linux/flowtrans/langmeta"
	"github.com/minios-linux/flowtrans/logging"
	"github.com/minios-linux/flowtrans/plugin"
	"github.com/minios-linux/flowtrans/query"
	"github.com/minios-linux/flowtrans/service"
	"github.com/minios-linux/flowtrans/settings"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var verbose bool

// ---------------------------------------------------------------------------
// Root command (plugin mode)
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flowtrans [request]",
		Short: "Launcher translation plugin",
		Long: `flowtrans: translation plugin for Flow Launcher compatible launchers.

Without a subcommand flowtrans runs in plugin mode: it reads one JSON-RPC
request from the first argument (or stdin), answers it on stdout and exits.
Logs go to the data directory because stdout belongs to the launcher.

Query syntax (after the trigger keyword):
  en>zh hello     translate from English to Chinese
  en> hello       set only the source language
  zh hello        set only the target language
  en>zh           show quick-select language pairs

Commands:
  query       Run a query in the terminal
  languages   List supported language codes
  services    List translation services
  auth        Manage stored API keys`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readRequest(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runPlugin(cmd.Context(), raw, cmd.OutOrStdout())
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newQueryCmd(),
		newLanguagesCmd(),
		newServicesCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// readRequest returns the request passed as argument, or all of in.
func readRequest(args []string, in io.Reader) ([]byte, error) {
	if len(args) > 0 {
		return []byte(args[0]), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}
	return []byte(strings.TrimSpace(string(data))), nil
}

func runPlugin(ctx context.Context, raw []byte, w io.Writer) error {
	opts := logging.Options{Verbose: verbose}
	if path, err := settings.LogFilePath(); err == nil {
		opts.File = path
	}
	logger := logging.NewOrNop(opts)
	defer logger.Sync() //nolint:errcheck

	srv := &plugin.Server{
		Handler: query.NewHandler(service.Default(), logger),
		Logger:  logger,
	}
	if err := srv.Serve(ctx, raw, w); err != nil {
		logger.Error("request failed", zap.Error(err))
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("flowtrans version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// query (run a launcher query in the terminal)
// ---------------------------------------------------------------------------

func newQueryCmd() *cobra.Command {
	var (
		configPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "query <prompt...>",
		Short: "Run a query in the terminal",
		Long: `Run a launcher query without the launcher and print the result items.

Settings are read from a YAML file using the same keys as the plugin
settings (services, languagePairs, defaultTargetLanguage, ...).

Examples:
  flowtrans query --config flowtrans.yaml en>de good morning
  flowtrans query --json zh hello
  flowtrans query en>zh                    Show quick-select pairs`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load(configPath)
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{Verbose: verbose})
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			h := query.NewHandler(service.Default(), logger)
			results := h.Handle(cmd.Context(), strings.Join(args, " "), s)

			if asJSON {
				return plugin.WriteResults(cmd.OutOrStdout(), results)
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "flowtrans.yaml", "Settings file (YAML)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plugin protocol response")

	return cmd
}

func printResults(w io.Writer, results []query.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "(no results)")
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s%s%s\n", colorGreen, r.Title, colorReset)
		if r.SubTitle != "" {
			fmt.Fprintf(w, "  %s\n", r.SubTitle)
		}
		if r.Action != nil && r.Action.Method == query.MethodChangeQuery {
			fmt.Fprintf(w, "  %s→ %q%s\n", colorYellow, r.Action.Parameters[0], colorReset)
		}
	}
}

// ---------------------------------------------------------------------------
// languages
// ---------------------------------------------------------------------------

func newLanguagesCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List supported language codes",
		Long: `List the language codes accepted in queries and language pairs,
with their display names in the chosen interface language.`,
		Run: func(cmd *cobra.Command, args []string) {
			printLanguages(cmd.OutOrStdout(), lang)
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "en", "Interface language for names")

	return cmd
}

func printLanguages(w io.Writer, lang string) {
	fmt.Fprintf(w, "  %-7s %s\n", langmeta.Auto, i18n.New(lang).T("Auto detect"))
	for _, code := range langmeta.Codes() {
		fmt.Fprintf(w, "  %-7s %s\n", code, langmeta.Name(code, lang))
	}
}

// ---------------------------------------------------------------------------
// services
// ---------------------------------------------------------------------------

func newServicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List translation services",
		Run: func(cmd *cobra.Command, args []string) {
			i18n.Init("")
			reg := service.Default()
			names := reg.Names()

			fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.N("%d service", "%d services", len(names), len(names)), colorReset)
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
			for _, name := range names {
				svc, _ := reg.Lookup(name)
				fmt.Fprintf(os.Stderr, "  %-8s %-22s %3d languages  %s\n",
					name, reg.DisplayName(name, "en"), len(svc.Languages()), keyStatus(name))
			}
			fmt.Fprintln(os.Stderr)
		},
	}
}

func keyStatus(name string) string {
	status := keyOnlyStatus(name)
	if url := settings.GetBaseURL(name); url != "" {
		status += fmt.Sprintf(" (endpoint: %s)", url)
	}
	return status
}

func keyOnlyStatus(name string) string {
	info, ok := keyServices[name]
	if !ok {
		return colorGreen + "no key needed" + colorReset
	}
	if key := settings.GetAPIKey(name); key != "" {
		where := "key"
		if entry := settings.LoadStore()[name]; entry != nil && entry.IsKeyring() {
			where = "keyring"
		}
		return fmt.Sprintf("%sconfigured%s (%s: %s)", colorGreen, colorReset, where, settings.MaskKey(key))
	}
	return fmt.Sprintf("%snot configured%s (%s)", colorRed, colorReset, info.helpURL)
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

// endpointServices are the OpenAI-compatible services whose base URL can
// be stored.
var endpointServices = []string{service.NameOpenAI, service.NameGroq, service.NameOllama}

// keyServices are the services that need an API key.
var keyServices = map[string]struct {
	name    string
	helpURL string
}{
	service.NameDeepL:  {"DeepL", "https://www.deepl.com/your-account/keys"},
	service.NameOpenAI: {"OpenAI", "https://platform.openai.com/api-keys"},
	service.NameGroq:   {"Groq Cloud", "https://console.groq.com/keys"},
}

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored API keys",
		Long: `Manage API keys kept in the local credential store.

Keys entered in the launcher's plugin settings take precedence over
stored keys.

Examples:
  flowtrans auth set deepl                 Prompt for a DeepL key
  flowtrans auth set groq gsk_...          Store a Groq key
  flowtrans auth set --keyring openai      Keep the OpenAI key in the OS keyring
  flowtrans auth endpoint ollama http://gpu:11434/v1
                                           Use a remote Ollama server
  flowtrans auth remove deepl              Remove the DeepL key
  flowtrans auth remove                    Remove all keys
  flowtrans auth list                      Show stored keys`,
	}

	cmd.AddCommand(
		newAuthSetCmd(),
		newAuthEndpointCmd(),
		newAuthRemoveCmd(),
		newAuthListCmd(),
	)

	return cmd
}

func completeKeyServices(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	completions := make([]string, 0, len(keyServices))
	for id, info := range keyServices {
		completions = append(completions, fmt.Sprintf("%s\t%s", id, info.name))
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func newAuthSetCmd() *cobra.Command {
	var useKeyring bool

	cmd := &cobra.Command{
		Use:               "set <service> [key]",
		Short:             "Store an API key",
		Long: `Store an API key in auth.json, or in the OS keyring with --keyring.

With --keyring auth.json only records that the key lives in the keyring.`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeKeyServices,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			info, ok := keyServices[id]
			if !ok {
				return fmt.Errorf("service %q does not use an API key", id)
			}

			var key string
			if len(args) == 2 {
				key = strings.TrimSpace(args[1])
			} else {
				var err error
				key, err = promptKey(cmd.InOrStdin(), id, info.name, info.helpURL)
				if err != nil {
					return err
				}
			}
			if key == "" {
				logInfo("Keeping existing key")
				return nil
			}

			if useKeyring {
				if err := settings.SetKeyringKey(id, key); err != nil {
					return err
				}
				logSuccess("%s API key saved to the OS keyring", info.name)
				return nil
			}
			if err := settings.SetAPIKey(id, key); err != nil {
				return fmt.Errorf("saving API key: %w", err)
			}
			logSuccess("%s API key saved to %s", info.name, settings.FilePath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&useKeyring, "keyring", false, "Store the key in the OS keyring")

	return cmd
}

// promptKey asks for a key on stderr. An empty answer keeps the existing
// key and returns "".
func promptKey(in io.Reader, id, name, helpURL string) (string, error) {
	fmt.Fprintf(os.Stderr, "\n%s%s API Key Setup%s\n", colorBlue, name, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Get your API key from: %s%s%s\n\n", colorGreen, helpURL, colorReset)

	existing := settings.GetAPIKey(id)
	if existing != "" {
		fmt.Fprintf(os.Stderr, "  Current key: %s%s%s\n", colorYellow, settings.MaskKey(existing), colorReset)
		fmt.Fprintf(os.Stderr, "  Enter new key to replace, or press Enter to keep: ")
	} else {
		fmt.Fprintf(os.Stderr, "  Enter API key: ")
	}

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return "", errors.New("no input received")
	}
	key := strings.TrimSpace(scanner.Text())
	if key == "" && existing == "" {
		return "", errors.New("no API key provided")
	}
	return key, nil
}

func newAuthEndpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoint <service> [url]",
		Short: "Store a custom API endpoint",
		Long: `Store the base URL an OpenAI-compatible service (openai, groq, ollama)
is called at. Without a url the stored endpoint is cleared.

The openaiBaseUrl and ollamaBaseUrl plugin settings take precedence.`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeEndpointServices,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !slices.Contains(endpointServices, id) {
				return fmt.Errorf("service %q has no configurable endpoint", id)
			}
			var url string
			if len(args) == 2 {
				url = strings.TrimSpace(args[1])
			}
			if err := settings.SetBaseURL(id, url); err != nil {
				return fmt.Errorf("saving endpoint: %w", err)
			}
			if url == "" {
				logSuccess("%s endpoint reset to the default", id)
				return nil
			}
			logSuccess("%s endpoint set to %s", id, url)
			return nil
		},
	}
}

func completeEndpointServices(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return endpointServices, cobra.ShellCompDirectiveNoFileComp
}

func newAuthRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "remove [service]",
		Aliases:           []string{"rm"},
		Short:             "Remove stored API keys",
		Long:              `Remove the key of one service, or all stored keys if no service is given.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeKeyServices,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if err := settings.RemoveAll(); err != nil {
					return fmt.Errorf("removing credentials: %w", err)
				}
				logSuccess("All stored credentials removed")
				return nil
			}

			id := args[0]
			if _, ok := keyServices[id]; !ok {
				logWarning("Service %q does not use an API key", id)
			}
			if err := settings.Remove(id); err != nil {
				return fmt.Errorf("removing %s credentials: %w", id, err)
			}
			logSuccess("%s credentials removed", id)
			return nil
		},
	}
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored API keys",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stderr, "\n%sStored Credentials%s\n", colorBlue, colorReset)
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
			for _, id := range []string{service.NameDeepL, service.NameOpenAI, service.NameGroq, service.NameOllama} {
				fmt.Fprintf(os.Stderr, "  %-8s %s\n", id, keyStatus(id))
			}
			fmt.Fprintf(os.Stderr, "\n  File: %s\n\n", settings.FilePath())
		},
	}
}
