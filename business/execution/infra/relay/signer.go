// Package relay implements transaction signing, nonce tracking and the
// private-relay submission path.
package relay

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/flasharb/flasharb-bot/internal/apperror"
)

// Signer signs EIP-1559 transactions for one account and owns its
// nonce. The nonce is writable only here; the pipeline serializes use.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int

	mu        sync.Mutex
	nonce     uint64
	nonceInit bool
}

// NewSigner creates a Signer from a 32-byte hex secret.
func NewSigner(hexKey string, chainID uint64) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, apperror.New(apperror.CodeSignerMisconfig, apperror.WithCause(err))
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).SetUint64(chainID),
	}, nil
}

// Address returns the signer address.
func (s *Signer) Address() common.Address {
	return s.address
}

// ChainID returns the signing chain id.
func (s *Signer) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// NextNonce returns the nonce for the next transaction, initializing
// from the chain's pending count on first use.
func (s *Signer) NextNonce(ctx context.Context, client *ethclient.Client) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.nonceInit {
		n, err := client.PendingNonceAt(ctx, s.address)
		if err != nil {
			return 0, apperror.New(apperror.CodeRPCError,
				apperror.WithCause(err),
				apperror.WithContext("pending nonce"))
		}
		s.nonce = n
		s.nonceInit = true
	}
	return s.nonce, nil
}

// BumpNonce advances the local nonce after a successful submission.
func (s *Signer) BumpNonce() {
	s.mu.Lock()
	s.nonce++
	s.mu.Unlock()
}

// ResetNonce drops the local nonce; the next use re-queries the chain.
// Called on nonce gaps and submission conflicts.
func (s *Signer) ResetNonce() {
	s.mu.Lock()
	s.nonceInit = false
	s.mu.Unlock()
}

// SignDynamicFee signs a type-2 transaction.
func (s *Signer) SignDynamicFee(nonce uint64, to common.Address, gasLimit uint64, tipCap, feeCap *big.Int, data []byte) (*types.Transaction, error) {
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     new(big.Int),
		Data:      data,
	})
	return types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
}
