package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"dust_cleaner/internal/port"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// LocalPermitSigner signs EIP-712 typed data with a locally held key. It stands
// in for the wallet prompt of the interactive flow.
type LocalPermitSigner struct {
	key *ecdsa.PrivateKey
}

// NewLocalPermitSigner parses the hex private key, with or without 0x prefix.
func NewLocalPermitSigner(privateKeyHex string) (*LocalPermitSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse signer private key: %w", err)
	}
	return &LocalPermitSigner{key: key}, nil
}

var _ port.PermitSigner = (*LocalPermitSigner)(nil)

// Address returns the signer's account address.
func (s *LocalPermitSigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// SignTypedData hashes the typed data per EIP-712 and signs the digest. The
// recovery byte is shifted to the 27/28 convention transfer contracts expect.
func (s *LocalPermitSigner) SignTypedData(_ context.Context, typedData apitypes.TypedData) ([]byte, error) {
	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign typed data digest: %w", err)
	}
	sig[64] += 27
	return sig, nil
}
