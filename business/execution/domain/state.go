// Package domain contains the execution pipeline's state machine types.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// State is one stage of the per-opportunity pipeline.
type State string

const (
	StateNew           State = "NEW"
	StatePreflight     State = "PREFLIGHT"
	StateEncode        State = "ENCODE"
	StateSimulate      State = "SIMULATE"
	StateBuildTx       State = "BUILD_TX"
	StateSubmitPrivate State = "SUBMIT_PRIVATE"
	StateSubmitPublic  State = "SUBMIT_PUBLIC"
	StateWait          State = "WAIT"

	// Terminal states.
	StateConfirmed State = "CONFIRMED"
	StateReverted  State = "REVERTED"
	StateStale     State = "STALE"
	StateRejected  State = "REJECTED"
)

// IsTerminal reports whether s ends the pipeline.
func (s State) IsTerminal() bool {
	switch s {
	case StateConfirmed, StateReverted, StateStale, StateRejected:
		return true
	}
	return false
}

// Result is the terminal outcome of one execution attempt.
type Result struct {
	State      State
	Reason     string // populated for REJECTED, REVERTED and STALE
	TxHash     common.Hash
	GasUsed    uint64
	GasCostWei *big.Int
	// ProfitWei is the realized profit in wei-equivalents of ETH,
	// signed; a revert books the gas cost as a loss.
	ProfitWei *big.Int
	Private   bool // true when the private relay path landed the tx
}
