// Package app contains application services and port definitions for the
// discovery context.
package app

import (
	"context"
	"math/big"

	"github.com/flasharb/flasharb-bot/business/discovery/domain"
)

// PoolSource crawls factory creation events.
type PoolSource interface {
	// LatestBlock returns the current chain head.
	LatestBlock(ctx context.Context) (uint64, error)

	// ScanRange scans every configured factory over [from, to] and calls
	// emit for each decoded pool. A from of 0 means each factory's own
	// deployment block. Partial per-chunk failures are not errors.
	ScanRange(ctx context.Context, from, to uint64, emit func(*domain.Pool)) error
}

// PoolLiquidity is one liquidity read. Reserve-based venues populate the
// reserve pair; CL venues populate liquidity and the sqrt price.
type PoolLiquidity struct {
	Reserve0     *big.Int
	Reserve1     *big.Int
	Liquidity    *big.Int
	SqrtPriceX96 *big.Int
}

// LiquiditySource reads pool state for the refresh pass.
type LiquiditySource interface {
	ReadLiquidity(ctx context.Context, pool *domain.Pool) (*PoolLiquidity, error)
}

// SnapshotStore persists the catalog between runs.
type SnapshotStore interface {
	Save(ctx context.Context, pools []*domain.Pool, pairs []*domain.TradePair, lastScanBlock uint64) error
	Load(ctx context.Context) (pools []*domain.Pool, lastScanBlock uint64, loaded bool, err error)
}
