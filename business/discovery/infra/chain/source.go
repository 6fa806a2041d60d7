package chain

import (
	"context"

	"github.com/flasharb/flasharb-bot/business/discovery/app"
	"github.com/flasharb/flasharb-bot/business/discovery/domain"
)

// Ensure the adapters satisfy the discovery ports.
var (
	_ app.PoolSource      = (*FactorySource)(nil)
	_ app.LiquiditySource = (*LiquidityAdapter)(nil)
)

// FactorySource adapts the Crawler and the venue table to the PoolSource
// port.
type FactorySource struct {
	crawler   *Crawler
	factories []Factory
}

// NewFactorySource creates a FactorySource over the Base venue table.
func NewFactorySource(crawler *Crawler) *FactorySource {
	return &FactorySource{crawler: crawler, factories: Factories}
}

// LatestBlock returns the chain head.
func (s *FactorySource) LatestBlock(ctx context.Context) (uint64, error) {
	return s.crawler.LatestBlock(ctx)
}

// ScanRange scans every factory. A zero from starts each factory at its
// own deployment block.
func (s *FactorySource) ScanRange(ctx context.Context, from, to uint64, emit func(*domain.Pool)) error {
	for _, f := range s.factories {
		start := from
		if start < f.StartBlock {
			start = f.StartBlock
		}
		if start > to {
			continue
		}
		if err := s.crawler.ScanFactory(ctx, f, start, to, emit); err != nil {
			return err
		}
	}
	return nil
}

// LiquidityAdapter adapts StateReader to the LiquiditySource port,
// dispatching on the pool's venue kind.
type LiquidityAdapter struct {
	reader *StateReader
}

// NewLiquidityAdapter creates a LiquidityAdapter.
func NewLiquidityAdapter(reader *StateReader) *LiquidityAdapter {
	return &LiquidityAdapter{reader: reader}
}

// ReadLiquidity reads reserves or CL state depending on venue kind.
func (a *LiquidityAdapter) ReadLiquidity(ctx context.Context, pool *domain.Pool) (*app.PoolLiquidity, error) {
	var (
		state *PoolState
		err   error
	)
	if pool.IsReserveBased() {
		state, err = a.reader.Reserves(ctx, pool.Address)
	} else {
		state, err = a.reader.CLState(ctx, pool.Address)
	}
	if err != nil {
		return nil, err
	}

	return &app.PoolLiquidity{
		Reserve0:     state.Reserve0,
		Reserve1:     state.Reserve1,
		Liquidity:    state.Liquidity,
		SqrtPriceX96: state.SqrtPriceX96,
	}, nil
}
