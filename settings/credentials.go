// Package settings builds the per-query flowtrans configuration and keeps
// the local credential store for translation services.
//
// Credentials are stored in the XDG data directory:
//
//	$XDG_DATA_HOME/flowtrans/  (default: ~/.local/share/flowtrans/)
//
// Files stored:
//   - auth.json       API keys keyed by service name, or a marker for
//     keys kept in the OS keyring
//   - flowtrans.log   plugin-mode log (written by the logging package)
//
// File permissions are 0600 (owner read/write only).
//
// Lookup order for API keys:
//  1. Launcher plugin settings (deeplKey, openaiKey, groqKey)
//  2. This credential store
//
// Chat endpoints start from the built-in default, are replaced by a base
// URL stored here and finally by the launcher settings (openaiBaseUrl,
// ollamaBaseUrl).
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

const (
	dataDirName = "flowtrans"
	fileName    = "auth.json"
	logFileName = "flowtrans.log"
)

// Info is the credential entry stored per service in auth.json.
type Info struct {
	// Type is TypeAPI or TypeKeyring.
	Type string `json:"type"`
	// Key is the API key. Empty for keyring entries.
	Key string `json:"key,omitempty"`
	// BaseURL is an optional custom endpoint.
	BaseURL string `json:"baseUrl,omitempty"`
}

// IsAPI returns true if this is an API key entry.
func (i *Info) IsAPI() bool {
	return i.Type == TypeAPI
}

// IsKeyring returns true if the key is kept in the OS keyring.
func (i *Info) IsKeyring() bool {
	return i.Type == TypeKeyring
}

// Store holds all service credentials, keyed by service name.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File paths
// ---------------------------------------------------------------------------

// dataDir returns the XDG data directory for flowtrans.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// LogFilePath returns the path of the plugin-mode log file.
func LogFilePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, logFileName), nil
}

// DataDir returns the flowtrans data directory path.
func DataDir() (string, error) {
	return dataDir()
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// LoadStore reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func LoadStore() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// SaveStore writes the credential store to disk with 0600 permissions.
func SaveStore(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Get / Set / Remove
// ---------------------------------------------------------------------------

// SetAPIKey stores an API key for a service (upsert). A stored base URL
// is kept.
func SetAPIKey(service, key string) error {
	store := LoadStore()
	store[service] = &Info{Type: TypeAPI, Key: key, BaseURL: store.baseURL(service)}
	return SaveStore(store)
}

// SetBaseURL stores a custom endpoint for a service. An empty url clears
// it. The stored key, if any, is kept.
func SetBaseURL(service, url string) error {
	if err := validate.Var(url, "omitempty,url"); err != nil {
		return fmt.Errorf("invalid base URL %q", url)
	}
	store := LoadStore()
	info := store[service]
	if info == nil {
		if url == "" {
			return nil
		}
		info = &Info{Type: TypeAPI}
		store[service] = info
	}
	info.BaseURL = url
	return SaveStore(store)
}

// GetBaseURL returns the stored endpoint for a service, or "".
func GetBaseURL(service string) string {
	return LoadStore().baseURL(service)
}

func (s Store) baseURL(service string) string {
	if info := s[service]; info != nil {
		return info.BaseURL
	}
	return ""
}

// GetAPIKey retrieves the stored API key for a service, reading the OS
// keyring for keyring entries. Returns empty string if not found.
func GetAPIKey(service string) string {
	info := LoadStore()[service]
	switch {
	case info == nil:
		return ""
	case info.IsAPI():
		return info.Key
	case info.IsKeyring():
		return keyringGet(service)
	}
	return ""
}

// Remove deletes credentials for a service.
func Remove(service string) error {
	store := LoadStore()
	info, ok := store[service]
	if !ok {
		return nil
	}
	if info != nil && info.IsKeyring() {
		if err := keyringDelete(service); err != nil {
			return err
		}
	}
	delete(store, service)
	return SaveStore(store)
}

// RemoveAll removes all stored credentials, including keyring entries.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	for service, info := range LoadStore() {
		if info != nil && info.IsKeyring() {
			if err := keyringDelete(service); err != nil {
				return err
			}
		}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
