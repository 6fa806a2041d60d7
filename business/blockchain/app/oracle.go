// Package app contains application services for the blockchain context.
package app

import (
	"math/big"
	"sync"

	"github.com/flasharb/flasharb-bot/business/blockchain/domain"
)

const (
	// feeWindow is how many recent base fees the oracle retains.
	feeWindow = 20

	// defaultGasLimit is the proposal when no estimate is available.
	defaultGasLimit = 500_000

	// baseFeeChangeDenominator is the EIP-1559 adjustment divisor.
	baseFeeChangeDenominator = 8
)

var (
	lowPriorityFee  = domain.Gwei(2)
	highPriorityFee = domain.Gwei(5)
)

// GasOracle tracks recent base fees and proposes EIP-1559 fee
// parameters. It is fed one observation per block by the head
// subscription.
type GasOracle struct {
	mu     sync.RWMutex
	window []*domain.BlockFees // newest last
}

// NewGasOracle creates an empty oracle.
func NewGasOracle() *GasOracle {
	return &GasOracle{window: make([]*domain.BlockFees, 0, feeWindow)}
}

// Observe records one block's fee data.
func (o *GasOracle) Observe(fees *domain.BlockFees) {
	if fees == nil || fees.BaseFee == nil {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.window = append(o.window, fees)
	if len(o.window) > feeWindow {
		o.window = o.window[len(o.window)-feeWindow:]
	}
}

// CurrentGas proposes {baseFee, priorityFee, maxFee}. The priority fee
// scales with short-term base-fee acceleration: a last delta above 10%
// of the base fee bumps the tip from 2 to 5 gwei.
func (o *GasOracle) CurrentGas() *domain.GasPrice {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if len(o.window) == 0 {
		return domain.NewGasPrice(big.NewInt(0), lowPriorityFee)
	}

	latest := o.window[len(o.window)-1]
	priority := lowPriorityFee

	if len(o.window) >= 2 {
		prev := o.window[len(o.window)-2]
		delta := new(big.Int).Sub(latest.BaseFee, prev.BaseFee)
		delta.Abs(delta)

		threshold := new(big.Int).Div(latest.BaseFee, big.NewInt(10))
		if delta.Cmp(threshold) > 0 {
			priority = highPriorityFee
		}
	}

	return domain.NewGasPrice(latest.BaseFee, priority)
}

// PredictNextBaseFee applies the EIP-1559 adjustment rule to the latest
// observation: the fee moves by baseFee × excess/target / 8, upward when
// gas used exceeded the target (half the block gas limit).
func (o *GasOracle) PredictNextBaseFee() *big.Int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if len(o.window) == 0 {
		return big.NewInt(0)
	}

	latest := o.window[len(o.window)-1]
	target := latest.GasLimit / 2
	if target == 0 {
		return new(big.Int).Set(latest.BaseFee)
	}

	var excess uint64
	up := latest.GasUsed >= target
	if up {
		excess = latest.GasUsed - target
	} else {
		excess = target - latest.GasUsed
	}

	delta := new(big.Int).Mul(latest.BaseFee, new(big.Int).SetUint64(excess))
	delta.Div(delta, new(big.Int).SetUint64(target))
	delta.Div(delta, big.NewInt(baseFeeChangeDenominator))

	next := new(big.Int).Set(latest.BaseFee)
	if up {
		next.Add(next, delta)
	} else {
		next.Sub(next, delta)
		if next.Sign() < 0 {
			next.SetInt64(0)
		}
	}
	return next
}

// OptimalParams scales the priority fee by urgency/3 (urgency ∈ [1,5])
// and proposes the default gas limit.
func (o *GasOracle) OptimalParams(urgency int) *domain.GasParams {
	if urgency < 1 {
		urgency = 1
	}
	if urgency > 5 {
		urgency = 5
	}

	current := o.CurrentGas()
	priority := new(big.Int).Mul(current.PriorityFee, big.NewInt(int64(urgency)))
	priority.Div(priority, big.NewInt(3))

	return &domain.GasParams{
		MaxFee:      new(big.Int).Add(current.BaseFee, priority),
		PriorityFee: priority,
		GasLimit:    defaultGasLimit,
	}
}

// WindowSize returns how many observations the oracle currently holds.
func (o *GasOracle) WindowSize() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.window)
}
