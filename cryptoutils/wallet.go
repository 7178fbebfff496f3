// Package cryptoutils derives the gateway wallet from a configured private
// key. Pure and deterministic, no I/O: the same private key always yields
// the same address and public key.
package cryptoutils

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dsbgw/dsb-client-gateway/interfaces"
)

// Wallet is the key material of a gateway identity. The private key is
// read-only for the lifetime of the identity and must never be logged or
// transmitted outside the signing and persistence paths.
type Wallet struct {
	// Address is the EIP-55 checksummed account address.
	Address string

	// PublicKey is the 0x-prefixed compressed secp256k1 public key.
	PublicKey string

	// PrivateKey is the 0x-prefixed hex private key.
	PrivateKey string

	key *ecdsa.PrivateKey
}

// ValidateKey parses a hex private key (with or without 0x prefix) and
// derives the wallet. Malformed input of any kind (wrong length, non-hex,
// zero key, out-of-range scalar) fails with INVALID_PRIVATE_KEY.
func ValidateKey(privateKeyHex string) (*Wallet, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")

	key, err := crypto.HexToECDSA(clean)
	if err != nil {
		return nil, interfaces.BadRequest(interfaces.ErrCodeInvalidPrivateKey, fmt.Errorf("parse private key: %w", err))
	}

	return &Wallet{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PublicKey:  hexutil.Encode(crypto.CompressPubkey(&key.PublicKey)),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
		key:        key,
	}, nil
}

// ECDSA returns the parsed key for signing collaborators.
func (w *Wallet) ECDSA() *ecdsa.PrivateKey {
	return w.key
}
