package wallet

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	TypeWatchOnly = "watch-only"
	TypeSigning   = "signing"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWalletExists   = errors.New("wallet already exists")
	ErrInvalidKey     = errors.New("invalid private key")
	ErrInvalidAddress = errors.New("invalid address")
	ErrWatchOnly      = errors.New("wallet is watch-only and cannot sign inputs or execute vouchers")
)

// Wallet is the account the dashboard connects with. Signing wallets keep
// their private key in the keystore under KeyRef; the wallet file only ever
// holds the address.
type Wallet struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Type      string `json:"type"`
	KeyRef    string `json:"key_ref,omitempty"`
	IsDefault bool   `json:"is_default"`
	CreatedAt string `json:"created_at"`
}

func (w *Wallet) CanSign() bool { return w.Type == TypeSigning }

// Manager owns the wallet list. The store is read lazily on first use and
// rewritten in full after every change.
type Manager struct {
	store   Store
	ks      KeyStore
	wallets map[string]*Wallet
	loaded  bool
}

type Option func(*Manager)

// WithInMemoryStore keeps wallets and keys in memory only.
func WithInMemoryStore() Option {
	return func(m *Manager) {
		m.store = &memStore{}
		m.ks = NewInMemoryKeystore()
	}
}

func WithStore(s Store) Option { return func(m *Manager) { m.store = s } }

func WithKeystore(ks KeyStore) Option { return func(m *Manager) { m.ks = ks } }

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		wallets: make(map[string]*Wallet),
		store:   &memStore{},
		ks:      NewInMemoryKeystore(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Keystore() KeyStore { return m.ks }

// Add registers a wallet under name. Watch-only addresses are validated and
// stored checksummed.
func (m *Manager) Add(name string, w *Wallet) error {
	if w.Type == TypeWatchOnly {
		if !common.IsHexAddress(w.Address) {
			return fmt.Errorf("%w: %q", ErrInvalidAddress, w.Address)
		}
		w.Address = common.HexToAddress(w.Address).Hex()
	}
	return m.insert(name, w)
}

// AddWithKey imports a hex private key. The key goes to the keystore and the
// wallet records the derived address.
func (m *Manager) AddWithKey(name, hexKey string) error {
	if err := m.ensureFree(name); err != nil {
		return err
	}
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	ref, err := m.ks.Store(name, hexKey)
	if err != nil {
		return fmt.Errorf("storing key: %w", err)
	}
	return m.insert(name, &Wallet{
		Address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		Type:    TypeSigning,
		KeyRef:  ref,
	})
}

func (m *Manager) ensureFree(name string) error {
	if err := m.load(); err != nil {
		return err
	}
	if _, taken := m.wallets[name]; taken {
		return fmt.Errorf("%w: %s", ErrWalletExists, name)
	}
	return nil
}

func (m *Manager) insert(name string, w *Wallet) error {
	if err := m.ensureFree(name); err != nil {
		return err
	}
	w.Name = name
	if w.CreatedAt == "" {
		w.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	m.wallets[name] = w
	return m.persist()
}

func (m *Manager) Get(name string) (*Wallet, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	return m.lookup(name)
}

func (m *Manager) lookup(name string) (*Wallet, error) {
	w, ok := m.wallets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, name)
	}
	return w, nil
}

// Remove forgets a wallet and deletes its key from the keystore.
func (m *Manager) Remove(name string) error {
	if err := m.load(); err != nil {
		return err
	}
	w, err := m.lookup(name)
	if err != nil {
		return err
	}
	if w.KeyRef != "" {
		if err := m.ks.Delete(w.KeyRef); err != nil {
			return err
		}
	}
	delete(m.wallets, name)
	return m.persist()
}

// List returns the wallets ordered by name. A store that fails to load
// yields an empty list.
func (m *Manager) List() []*Wallet {
	if m.load() != nil {
		return nil
	}
	return m.sorted()
}

func (m *Manager) sorted() []*Wallet {
	out := make([]*Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		out = append(out, w)
	}
	slices.SortFunc(out, func(a, b *Wallet) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (m *Manager) SetDefault(name string) error {
	if err := m.load(); err != nil {
		return err
	}
	if _, err := m.lookup(name); err != nil {
		return err
	}
	for _, w := range m.wallets {
		w.IsDefault = w.Name == name
	}
	return m.persist()
}

// Default is the wallet marked default, or the only wallet when exactly one
// exists. Otherwise nil.
func (m *Manager) Default() *Wallet {
	if m.load() != nil {
		return nil
	}
	all := m.sorted()
	if i := slices.IndexFunc(all, func(w *Wallet) bool { return w.IsDefault }); i >= 0 {
		return all[i]
	}
	if len(all) == 1 {
		return all[0]
	}
	return nil
}

// Signer opens the named wallet for signing; an empty name means the
// default wallet.
func (m *Manager) Signer(name string) (*Signer, error) {
	w := m.Default()
	if name != "" {
		var err error
		if w, err = m.Get(name); err != nil {
			return nil, err
		}
	}
	if w == nil {
		return nil, fmt.Errorf("%w: no default wallet set", ErrWalletNotFound)
	}
	if !w.CanSign() {
		return nil, fmt.Errorf("%q: %w", w.Name, ErrWatchOnly)
	}
	return NewSigner(w, m.ks), nil
}

func (m *Manager) load() error {
	if m.loaded {
		return nil
	}
	wallets, err := m.store.Load()
	if err != nil {
		return err
	}
	for _, w := range wallets {
		m.wallets[w.Name] = w
	}
	m.loaded = true
	return nil
}

func (m *Manager) persist() error { return m.store.Save(m.sorted()) }
