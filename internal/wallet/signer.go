package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs addInput and executeOutput transactions for one wallet. The
// key is read from the keystore on first use and kept for the process
// lifetime.
type Signer struct {
	wallet *Wallet
	ks     KeyStore
	key    *ecdsa.PrivateKey
}

func NewSigner(w *Wallet, ks KeyStore) *Signer {
	return &Signer{wallet: w, ks: ks}
}

func (s *Signer) Address() common.Address { return common.HexToAddress(s.wallet.Address) }

func (s *Signer) Name() string { return s.wallet.Name }

func (s *Signer) privateKey() (*ecdsa.PrivateKey, error) {
	if s.key != nil {
		return s.key, nil
	}
	if !s.wallet.CanSign() {
		return nil, fmt.Errorf("%q: %w", s.wallet.Name, ErrWatchOnly)
	}
	hexKey, err := s.ks.Retrieve(s.wallet.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	// The keychain entry may have been replaced behind our back.
	if got := crypto.PubkeyToAddress(key.PublicKey); got != s.Address() {
		return nil, fmt.Errorf("stored key for %q belongs to %s, not %s", s.wallet.Name, got.Hex(), s.wallet.Address)
	}
	s.key = key
	return key, nil
}

// SignTx signs tx for chainID with the latest signer the chain id allows.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	key, err := s.privateKey()
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}
