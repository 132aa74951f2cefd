package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestDataDirAndFilePathUseXDGDataHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir() error: %v", err)
	}
	wantDir := filepath.Join(tmp, "flowtrans")
	if dir != wantDir {
		t.Fatalf("DataDir() = %q, want %q", dir, wantDir)
	}

	wantPath := filepath.Join(tmp, "flowtrans", "auth.json")
	if got := FilePath(); got != wantPath {
		t.Fatalf("FilePath() = %q, want %q", got, wantPath)
	}

	logPath, err := LogFilePath()
	if err != nil {
		t.Fatalf("LogFilePath() error: %v", err)
	}
	if want := filepath.Join(tmp, "flowtrans", "flowtrans.log"); logPath != want {
		t.Fatalf("LogFilePath() = %q, want %q", logPath, want)
	}
}

func TestSaveLoadRemoveLifecycle(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	if err := SetAPIKey("deepl", "deepl-key-123:fx"); err != nil {
		t.Fatalf("SetAPIKey(deepl) error: %v", err)
	}
	if err := SetAPIKey("openai", "sk-openai-456"); err != nil {
		t.Fatalf("SetAPIKey(openai) error: %v", err)
	}

	path := filepath.Join(tmp, "flowtrans", "auth.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat auth.json: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("auth.json mode = %o, want 600", info.Mode().Perm())
	}

	if got := GetAPIKey("deepl"); got != "deepl-key-123:fx" {
		t.Fatalf("GetAPIKey(deepl) = %q", got)
	}

	if err := Remove("deepl"); err != nil {
		t.Fatalf("Remove(deepl) error: %v", err)
	}
	if got := GetAPIKey("deepl"); got != "" {
		t.Fatalf("GetAPIKey after remove = %q, want empty", got)
	}
	if got := GetAPIKey("openai"); got != "sk-openai-456" {
		t.Fatalf("openai key should remain after removing deepl, got %q", got)
	}

	if err := Remove("missing-service"); err != nil {
		t.Fatalf("Remove(missing) should be no-op, got: %v", err)
	}

	if err := RemoveAll(); err != nil {
		t.Fatalf("RemoveAll() error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("auth.json should be removed, stat err=%v", err)
	}
	if got := LoadStore(); len(got) != 0 {
		t.Fatalf("LoadStore() after RemoveAll should be empty, got=%#v", got)
	}
}

func TestLoadStoreInvalidJSON(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir := filepath.Join(tmp, "flowtrans")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "auth.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got := LoadStore(); len(got) != 0 {
		t.Fatalf("LoadStore() with invalid file = %#v, want empty", got)
	}
}

func TestMaskKey(t *testing.T) {
	if got := MaskKey("short"); got != "****" {
		t.Fatalf("MaskKey(short) = %q, want ****", got)
	}
	if got := MaskKey("12345678"); got != "****" {
		t.Fatalf("MaskKey(8 chars) = %q, want ****", got)
	}
	if got := MaskKey("123456789"); got != "1234...6789" {
		t.Fatalf("MaskKey(9 chars) = %q, want 1234...6789", got)
	}
}

func TestBaseURLSurvivesKeyUpdates(t *testing.T) {
	keyring.MockInit()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	if err := SetBaseURL("ollama", ""); err != nil {
		t.Fatalf("SetBaseURL(empty) error: %v", err)
	}
	if _, ok := LoadStore()["ollama"]; ok {
		t.Fatalf("clearing an absent base URL should not create an entry")
	}

	if err := SetBaseURL("openai", "not a url"); err == nil {
		t.Fatalf("SetBaseURL should reject a malformed URL")
	}
	if err := SetBaseURL("openai", "https://proxy.example/v1"); err != nil {
		t.Fatalf("SetBaseURL() error: %v", err)
	}
	if got := GetAPIKey("openai"); got != "" {
		t.Fatalf("GetAPIKey(openai) = %q, want empty", got)
	}

	if err := SetAPIKey("openai", "sk-one"); err != nil {
		t.Fatalf("SetAPIKey() error: %v", err)
	}
	if got := GetBaseURL("openai"); got != "https://proxy.example/v1" {
		t.Fatalf("GetBaseURL after SetAPIKey = %q", got)
	}

	if err := SetKeyringKey("openai", "sk-two"); err != nil {
		t.Fatalf("SetKeyringKey() error: %v", err)
	}
	if got := GetBaseURL("openai"); got != "https://proxy.example/v1" {
		t.Fatalf("GetBaseURL after SetKeyringKey = %q", got)
	}
	if got := GetAPIKey("openai"); got != "sk-two" {
		t.Fatalf("GetAPIKey(openai) = %q", got)
	}

	if err := SetBaseURL("openai", ""); err != nil {
		t.Fatalf("SetBaseURL(clear) error: %v", err)
	}
	if got := GetBaseURL("openai"); got != "" {
		t.Fatalf("GetBaseURL after clear = %q", got)
	}
	if got := GetAPIKey("openai"); got != "sk-two" {
		t.Fatalf("clearing the base URL dropped the key: %q", got)
	}
}

func TestKeyringEntries(t *testing.T) {
	keyring.MockInit()
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	if err := SetKeyringKey("groq", "gsk_secret_value"); err != nil {
		t.Fatalf("SetKeyringKey() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmp, "flowtrans", "auth.json"))
	if err != nil {
		t.Fatalf("read auth.json: %v", err)
	}
	if strings.Contains(string(data), "gsk_secret_value") {
		t.Fatalf("keyring key leaked into auth.json: %s", data)
	}
	if info := LoadStore()["groq"]; info == nil || !info.IsKeyring() {
		t.Fatalf("store entry = %#v, want keyring marker", info)
	}

	if got := GetAPIKey("groq"); got != "gsk_secret_value" {
		t.Fatalf("GetAPIKey(groq) = %q", got)
	}
	s, err := FromRaw(nil)
	if err != nil {
		t.Fatalf("FromRaw: %v", err)
	}
	if got := s.APIKey("groq"); got != "gsk_secret_value" {
		t.Fatalf("Settings.APIKey(groq) = %q", got)
	}

	if err := Remove("groq"); err != nil {
		t.Fatalf("Remove(groq) error: %v", err)
	}
	if _, err := keyring.Get("flowtrans", "groq"); !errors.Is(err, keyring.ErrNotFound) {
		t.Fatalf("keyring entry should be deleted, got err=%v", err)
	}
	if got := GetAPIKey("groq"); got != "" {
		t.Fatalf("GetAPIKey after remove = %q", got)
	}
}

func TestRemoveAllClearsKeyring(t *testing.T) {
	keyring.MockInit()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	if err := SetKeyringKey("deepl", "deepl-secret"); err != nil {
		t.Fatalf("SetKeyringKey() error: %v", err)
	}
	if err := SetAPIKey("openai", "sk-plain"); err != nil {
		t.Fatalf("SetAPIKey() error: %v", err)
	}
	if err := RemoveAll(); err != nil {
		t.Fatalf("RemoveAll() error: %v", err)
	}
	if _, err := keyring.Get("flowtrans", "deepl"); !errors.Is(err, keyring.ErrNotFound) {
		t.Fatalf("keyring entry should be deleted, got err=%v", err)
	}
}

func TestKeyringErrorsAreReported(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service"))
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	if err := SetKeyringKey("deepl", "x"); err == nil || !strings.Contains(err.Error(), "no secret service") {
		t.Fatalf("SetKeyringKey() error = %v", err)
	}
	if len(LoadStore()) != 0 {
		t.Fatalf("failed keyring write must not leave a marker")
	}
}
