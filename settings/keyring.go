package settings

import (
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"
)

// Credential types stored in auth.json.
const (
	TypeAPI     = "api"
	TypeKeyring = "keyring"
)

// keyringService is the service name of flowtrans entries in the OS keyring.
const keyringService = "flowtrans"

// keyringTimeout bounds a single keyring call. The Secret Service backend
// can block indefinitely when no keyring daemon answers on D-Bus.
var keyringTimeout = 3 * time.Second

// withKeyringTimeout runs fn and gives up after keyringTimeout. go-keyring
// takes no context, so a timed-out call is left running.
func withKeyringTimeout(op string, fn func() error) error {
	ch := make(chan error, 1)
	go func() { ch <- fn() }()

	timer := time.NewTimer(keyringTimeout)
	defer timer.Stop()

	select {
	case err := <-ch:
		return err
	case <-timer.C:
		return fmt.Errorf("keyring %s timed out after %v", op, keyringTimeout)
	}
}

// SetKeyringKey stores an API key in the OS keyring and records in
// auth.json that the key lives there.
func SetKeyringKey(service, key string) error {
	if err := withKeyringTimeout("set", func() error {
		return keyring.Set(keyringService, service, key)
	}); err != nil {
		return fmt.Errorf("storing %s key in keyring: %w", service, err)
	}
	store := LoadStore()
	store[service] = &Info{Type: TypeKeyring, BaseURL: store.baseURL(service)}
	return SaveStore(store)
}

func keyringGet(service string) string {
	var key string
	err := withKeyringTimeout("get", func() error {
		var err error
		key, err = keyring.Get(keyringService, service)
		return err
	})
	if err != nil {
		return ""
	}
	return key
}

func keyringDelete(service string) error {
	err := withKeyringTimeout("delete", func() error {
		return keyring.Delete(keyringService, service)
	})
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("removing %s key from keyring: %w", service, err)
	}
	return nil
}
