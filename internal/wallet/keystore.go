package wallet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

const keychainService = "rollupdash"

// EnvPrivateKey, when set, is returned for every key lookup. Handy for
// devnets and CI where no keychain is available.
const EnvPrivateKey = "ROLLUPDASH_PRIVATE_KEY"

// EnvKeyringPassword unlocks the file backend without prompting.
const EnvKeyringPassword = "ROLLUPDASH_KEYRING_PASSWORD"

// ErrKeyNotFound is returned when a key reference has nothing stored.
var ErrKeyNotFound = errors.New("key not found")

// KeyStore persists private keys by reference.
type KeyStore interface {
	Store(name, hexKey string) (string, error)
	Retrieve(ref string) (string, error)
	Delete(ref string) error
}

// Keystore wraps OS keychain access.
type Keystore struct {
	ring keyring.Keyring
}

// DefaultKeystore returns a keystore backed by the OS keychain. fileDir is
// used by the encrypted-file fallback on headless machines.
func DefaultKeystore(fileDir string) *Keystore {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  fileDir,
		FilePasswordFunc:         filePassword,
	}

	// On Linux without a GUI, fall back to file-based storage.
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		ring, _ = keyring.Open(keyring.Config{
			ServiceName:      keychainService,
			AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
			FileDir:          fileDir,
			FilePasswordFunc: filePassword,
		})
	}

	return &Keystore{ring: ring}
}

func filePassword(prompt string) (string, error) {
	if pw := os.Getenv(EnvKeyringPassword); pw != "" {
		return pw, nil
	}
	return keyring.TerminalPrompt(prompt)
}

// Store saves a private key for a wallet name and returns a reference key.
func (k *Keystore) Store(name, hexKey string) (string, error) {
	if k.ring == nil {
		return "", fmt.Errorf("keystore not available")
	}
	ref := keyRef(name)
	err := k.ring.Set(keyring.Item{
		Key:  ref,
		Data: []byte(normaliseHexKey(hexKey)),
	})
	if err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

// Retrieve fetches a private key by its reference.
func (k *Keystore) Retrieve(ref string) (string, error) {
	if env := os.Getenv(EnvPrivateKey); env != "" {
		return normaliseHexKey(env), nil
	}
	if k.ring == nil {
		return "", fmt.Errorf("keystore not available")
	}
	item, err := k.ring.Get(ref)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return normaliseHexKey(string(item.Data)), nil
}

// Delete removes a stored key. Missing keys are not an error; the file
// backend reports them as fs.ErrNotExist rather than ErrKeyNotFound.
func (k *Keystore) Delete(ref string) error {
	if k.ring == nil {
		return nil
	}
	err := k.ring.Remove(ref)
	if err == nil || errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("keychain delete: %w", err)
}

// InMemoryKeystore stores keys in memory (for tests).
type InMemoryKeystore struct {
	data map[string]string
}

// NewInMemoryKeystore creates an in-memory keystore.
func NewInMemoryKeystore() *InMemoryKeystore {
	return &InMemoryKeystore{data: make(map[string]string)}
}

func (k *InMemoryKeystore) Store(name, hexKey string) (string, error) {
	ref := keyRef(name)
	k.data[ref] = normaliseHexKey(hexKey)
	return ref, nil
}

func (k *InMemoryKeystore) Retrieve(ref string) (string, error) {
	v, ok := k.data[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	return v, nil
}

func (k *InMemoryKeystore) Delete(ref string) error {
	delete(k.data, ref)
	return nil
}

func keyRef(name string) string { return keychainService + "." + name }

// normaliseHexKey trims whitespace and a 0x/0X prefix.
func normaliseHexKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
