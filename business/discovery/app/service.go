package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb/flasharb-bot/business/discovery/domain"
	"github.com/flasharb/flasharb-bot/internal/config"
	"github.com/flasharb/flasharb-bot/internal/logger"
	"github.com/flasharb/flasharb-bot/internal/ratelimit"
	"github.com/flasharb/flasharb-bot/internal/token"
)

// saveEveryBatches controls how often the refresher checkpoints the
// catalog: every 5 batches of 20 pools ≈ every 100 pools.
const saveEveryBatches = 5

// Service drives pool discovery: startup load-or-scan, periodic
// incremental scans, and the liquidity refresh loop.
type Service struct {
	catalog   *Catalog
	source    PoolSource
	liquidity LiquiditySource
	store     SnapshotStore
	tokens    *token.Registry
	cfg       config.DiscoveryConfig
	logger    logger.LoggerInterface

	cooldown *ratelimit.Limiter // inter-batch pacing for upstream rate limits

	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

// NewService creates a discovery Service.
func NewService(
	catalog *Catalog,
	source PoolSource,
	liquidity LiquiditySource,
	store SnapshotStore,
	tokens *token.Registry,
	cfg config.DiscoveryConfig,
	log logger.LoggerInterface,
) *Service {
	return &Service{
		catalog:   catalog,
		source:    source,
		liquidity: liquidity,
		store:     store,
		tokens:    tokens,
		cfg:       cfg,
		logger:    log,
		cooldown:  ratelimit.NewInterval(cfg.BatchCooldown),
		stop:      make(chan struct{}),
	}
}

// Start loads the snapshot or performs a full scan, refreshes liquidity
// once, then launches the periodic tick.
func (s *Service) Start(ctx context.Context) error {
	pools, lastBlock, loaded, err := s.store.Load(ctx)
	if err != nil {
		// Stale or corrupt snapshots trigger a full rescan; they are
		// overwritten on the first save.
		s.logger.Warn(ctx, "snapshot rejected, full scan required", "error", err)
		loaded = false
	}

	if loaded {
		for _, p := range pools {
			s.catalog.Insert(p)
		}
		s.catalog.SetLastScanBlock(lastBlock)
		s.logger.Info(ctx, "catalog restored from snapshot",
			"pools", len(pools), "last_scan_block", lastBlock)
		if err := s.IncrementalScan(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn(ctx, "incremental scan failed", "error", err)
		}
	} else {
		if err := s.FullScan(ctx); err != nil {
			return err
		}
	}

	if err := s.RefreshLiquidity(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn(ctx, "initial liquidity refresh failed", "error", err)
	}

	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

// Stop halts the periodic tick, waits for any in-flight batch and saves.
func (s *Service) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.save(ctx)
}

func (s *Service) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.IncrementalScan(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn(ctx, "incremental scan failed", "error", err)
			}
			if err := s.RefreshLiquidity(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn(ctx, "liquidity refresh failed", "error", err)
			}
			s.save(ctx)
		}
	}
}

// FullScan crawls every factory from its deployment block.
func (s *Service) FullScan(ctx context.Context) error {
	head, err := s.source.LatestBlock(ctx)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "full pool scan starting", "head", head)
	if err := s.source.ScanRange(ctx, 0, head, s.ingest(ctx)); err != nil {
		return err
	}

	s.catalog.SetLastScanBlock(head)
	s.catalog.RebuildGraph()
	s.save(ctx)
	s.logger.Info(ctx, "full pool scan complete", "pools", s.catalog.Len())
	return nil
}

// IncrementalScan crawls from the persisted frontier to the head.
// Scanning an empty range is a no-op on the catalog.
func (s *Service) IncrementalScan(ctx context.Context) error {
	head, err := s.source.LatestBlock(ctx)
	if err != nil {
		return err
	}

	from := s.catalog.LastScanBlock() + 1
	if from > head {
		return nil
	}

	before := s.catalog.Len()
	if err := s.source.ScanRange(ctx, from, head, s.ingest(ctx)); err != nil {
		return err
	}
	s.catalog.SetLastScanBlock(head)

	if added := s.catalog.Len() - before; added > 0 {
		s.logger.Info(ctx, "incremental scan found pools", "added", added, "from", from, "to", head)
		s.catalog.RebuildGraph()
	}
	return nil
}

// ingest resolves both tokens and inserts the pool. Any unresolved
// token drops the pool silently, per the discovery contract.
func (s *Service) ingest(ctx context.Context) func(*domain.Pool) {
	return func(p *domain.Pool) {
		t0, ok := s.tokens.Resolve(ctx, p.Token0)
		if !ok {
			return
		}
		t1, ok := s.tokens.Resolve(ctx, p.Token1)
		if !ok {
			return
		}

		p.Token0Symbol = t0.Symbol
		p.Token1Symbol = t1.Symbol
		p.Token0Decimals = t0.Decimals
		p.Token1Decimals = t1.Decimals
		s.catalog.Insert(p)
	}
}

// RefreshLiquidity re-reads pool state for relevant pools in bounded
// batches, re-derives USD estimates and activity, and rebuilds the graph.
func (s *Service) RefreshLiquidity(ctx context.Context) error {
	relevant := s.relevantPools()
	if len(relevant) == 0 {
		return nil
	}

	batch := s.cfg.RefreshBatch
	if batch <= 0 {
		batch = 20
	}

	batches := 0
	for start := 0; start < len(relevant); start += batch {
		select {
		case <-s.stop:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.cooldown.Wait(ctx); err != nil {
			return err
		}

		end := start + batch
		if end > len(relevant) {
			end = len(relevant)
		}
		s.refreshBatch(ctx, relevant[start:end])

		batches++
		if batches%saveEveryBatches == 0 {
			s.save(ctx)
		}
	}

	s.catalog.MarkActivity(s.cfg.MinLiquidityUSDDecimal(), s.knownToken)
	s.catalog.RebuildGraph()
	s.save(ctx)

	s.logger.Info(ctx, "liquidity refresh complete",
		"relevant", len(relevant), "active", len(s.catalog.Active()))
	return nil
}

// refreshBatch reads one batch concurrently. A failed read deactivates
// the pool for this cycle; it is retried on the next refresh.
func (s *Service) refreshBatch(ctx context.Context, pools []*domain.Pool) {
	var wg sync.WaitGroup
	for _, p := range pools {
		wg.Add(1)
		go func(p *domain.Pool) {
			defer wg.Done()

			state, err := s.liquidity.ReadLiquidity(ctx, p)
			if err != nil {
				s.logger.Debug(ctx, "liquidity read failed",
					"pool", p.Address.Hex(), "venue", p.VenueID, "error", err)
				p.Active = false
				return
			}

			if p.IsReserveBased() {
				p.Reserve0 = state.Reserve0
				p.Reserve1 = state.Reserve1
			} else {
				p.Liquidity = state.Liquidity
			}
			p.LiquidityUSD = EstimateUSD(p, state, s.tokens.ValueUSD)
			p.LastUpdatedMs = time.Now().UnixMilli()
		}(p)
	}
	wg.Wait()
}

// relevantPools filters the catalog to pools touching a seeded token.
func (s *Service) relevantPools() []*domain.Pool {
	all := s.catalog.All()
	out := make([]*domain.Pool, 0, len(all))
	for _, p := range all {
		if s.tokens.IsSeeded(p.Token0) || s.tokens.IsSeeded(p.Token1) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) knownToken(addr common.Address) bool {
	t, ok := s.tokens.Get(addr)
	return ok && t.Symbol != "" && t.Symbol != "UNKNOWN"
}

func (s *Service) save(ctx context.Context) {
	g := s.catalog.Graph()
	if err := s.store.Save(ctx, s.catalog.All(), g.Pairs(), s.catalog.LastScanBlock()); err != nil {
		// Keep state in memory; the next save will retry.
		s.logger.Error(ctx, "snapshot save failed", "error", err)
	}
}

// Graph returns the current trade-graph snapshot.
func (s *Service) Graph() *domain.Graph {
	return s.catalog.Graph()
}

// Catalog exposes the catalog for read-only observers.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}
