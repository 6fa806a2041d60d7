package app

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/flasharb/flasharb-bot/business/discovery/domain"
)

// Catalog is the persistent map of discovered pools. It exclusively owns
// every Pool record; writers are discovery and the liquidity refresher,
// everything else reads. Pools are never deleted, only deactivated.
type Catalog struct {
	mu            sync.RWMutex
	pools         map[string]*domain.Pool
	lastScanBlock uint64
	graph         *domain.Graph
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		pools: make(map[string]*domain.Pool),
		graph: domain.BuildGraph(nil),
	}
}

// Insert adds a pool, returning true when it was new. Insertion is
// idempotent: re-inserting a known address is a no-op.
func (c *Catalog) Insert(p *domain.Pool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := p.Key()
	if _, exists := c.pools[key]; exists {
		return false
	}
	c.pools[key] = p
	return true
}

// Get returns the pool at addr.
func (c *Catalog) Get(addr common.Address) (*domain.Pool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pools[keyOf(addr)]
	return p, ok
}

// All returns every pool.
func (c *Catalog) All() []*domain.Pool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.Pool, 0, len(c.pools))
	for _, p := range c.pools {
		out = append(out, p)
	}
	return out
}

// Active returns every active pool.
func (c *Catalog) Active() []*domain.Pool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.Pool, 0, len(c.pools))
	for _, p := range c.pools {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the pool count.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pools)
}

// MarkActivity applies the activity invariant to every pool: active iff
// liquidityUsd clears the floor and at least one token is known.
func (c *Catalog) MarkActivity(minLiquidityUSD decimal.Decimal, known func(common.Address) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.pools {
		p.Active = p.LiquidityUSD.GreaterThanOrEqual(minLiquidityUSD) &&
			(known(p.Token0) || known(p.Token1))
	}
}

// LastScanBlock returns the highest fully scanned block.
func (c *Catalog) LastScanBlock() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastScanBlock
}

// SetLastScanBlock records the scan frontier.
func (c *Catalog) SetLastScanBlock(block uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if block > c.lastScanBlock {
		c.lastScanBlock = block
	}
}

// RebuildGraph derives a fresh trade graph from the active pool set and
// publishes it as the current snapshot.
func (c *Catalog) RebuildGraph() *domain.Graph {
	active := c.Active()

	g := domain.BuildGraph(active)

	c.mu.Lock()
	c.graph = g
	c.mu.Unlock()
	return g
}

// Graph returns the current graph snapshot. The snapshot is immutable;
// readers hold it for a full cycle.
func (c *Catalog) Graph() *domain.Graph {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.graph
}

func keyOf(addr common.Address) string {
	p := domain.Pool{Address: addr}
	return p.Key()
}
