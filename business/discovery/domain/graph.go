package domain

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TradePair groups every pool quoting the same unordered token pair.
// TokenA < TokenB lexicographically.
type TradePair struct {
	TokenA           common.Address
	TokenB           common.Address
	SymbolA          string
	SymbolB          string
	Pools            []*Pool
	BestLiquidityUSD decimal.Decimal
}

// Name returns "SYMA/SYMB" for logs.
func (p *TradePair) Name() string {
	return p.SymbolA + "/" + p.SymbolB
}

// VenueCount returns the number of distinct venues quoting this pair.
func (p *TradePair) VenueCount() int {
	venues := make(map[string]struct{}, len(p.Pools))
	for _, pool := range p.Pools {
		venues[pool.VenueID] = struct{}{}
	}
	return len(venues)
}

// Triangle is a closed three-symbol loop. After rotation the first
// element is a flash-loan-borrowable asset.
type Triangle [3]string

// Graph is the immutable trade graph derived from the active pool set.
// It is rebuilt in full after each liquidity refresh or new-pool
// discovery, and readers hold one snapshot for a whole cycle.
type Graph struct {
	pairs []*TradePair
}

// BuildGraph derives the pair graph from the active pools.
func BuildGraph(pools []*Pool) *Graph {
	byPair := make(map[string]*TradePair)

	for _, pool := range pools {
		if !pool.Active {
			continue
		}
		key := pool.PairKey()
		tp, ok := byPair[key]
		if !ok {
			tp = &TradePair{
				TokenA:  pool.Token0,
				TokenB:  pool.Token1,
				SymbolA: pool.Token0Symbol,
				SymbolB: pool.Token1Symbol,
			}
			byPair[key] = tp
		}
		tp.Pools = append(tp.Pools, pool)
		if pool.LiquidityUSD.GreaterThan(tp.BestLiquidityUSD) {
			tp.BestLiquidityUSD = pool.LiquidityUSD
		}
	}

	pairs := make([]*TradePair, 0, len(byPair))
	for _, tp := range byPair {
		pairs = append(pairs, tp)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if !pairs[i].BestLiquidityUSD.Equal(pairs[j].BestLiquidityUSD) {
			return pairs[i].BestLiquidityUSD.GreaterThan(pairs[j].BestLiquidityUSD)
		}
		return pairs[i].Name() < pairs[j].Name()
	})

	return &Graph{pairs: pairs}
}

// Pairs returns every pair with at least one active pool.
func (g *Graph) Pairs() []*TradePair {
	return g.pairs
}

// ArbitrageablePairs returns pairs quoted on at least two distinct
// venues, sorted by descending best liquidity.
func (g *Graph) ArbitrageablePairs() []*TradePair {
	out := make([]*TradePair, 0, len(g.pairs))
	for _, tp := range g.pairs {
		if tp.VenueCount() >= 2 {
			out = append(out, tp)
		}
	}
	return out
}

// TriangularPaths derives triangles from the pair adjacency. For every
// strictly ordered symbol triple (a < b < c) whose three edges all
// exist, one triangle is emitted, rotated so the first vertex is
// borrowable. Triangles without a borrowable vertex are dropped.
func (g *Graph) TriangularPaths(borrowable func(symbol string) bool) []Triangle {
	adjacency := make(map[string]map[string]bool)
	addEdge := func(a, b string) {
		if adjacency[a] == nil {
			adjacency[a] = make(map[string]bool)
		}
		adjacency[a][b] = true
	}

	symbolSet := make(map[string]struct{})
	for _, tp := range g.pairs {
		if tp.SymbolA == "" || tp.SymbolB == "" {
			continue
		}
		addEdge(tp.SymbolA, tp.SymbolB)
		addEdge(tp.SymbolB, tp.SymbolA)
		symbolSet[tp.SymbolA] = struct{}{}
		symbolSet[tp.SymbolB] = struct{}{}
	}

	symbols := make([]string, 0, len(symbolSet))
	for s := range symbolSet {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var out []Triangle
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			if !adjacency[symbols[i]][symbols[j]] {
				continue
			}
			for k := j + 1; k < len(symbols); k++ {
				if !adjacency[symbols[j]][symbols[k]] || !adjacency[symbols[i]][symbols[k]] {
					continue
				}
				tri, ok := rotateToBorrowable(Triangle{symbols[i], symbols[j], symbols[k]}, borrowable)
				if ok {
					out = append(out, tri)
				}
			}
		}
	}
	return out
}

// rotateToBorrowable rotates tri until its first vertex is borrowable.
// Rotation preserves the cycle direction; it does not permute.
func rotateToBorrowable(tri Triangle, borrowable func(string) bool) (Triangle, bool) {
	for r := 0; r < 3; r++ {
		if borrowable(tri[0]) {
			return tri, true
		}
		tri = Triangle{tri[1], tri[2], tri[0]}
	}
	return tri, false
}

// PairLookup indexes pairs by canonical "syma:symb" (lowercased, sorted)
// for strategy-side edge lookups.
func (g *Graph) PairLookup() map[string]*TradePair {
	out := make(map[string]*TradePair, len(g.pairs))
	for _, tp := range g.pairs {
		out[PairSymbolKey(tp.SymbolA, tp.SymbolB)] = tp
	}
	return out
}

// PairSymbolKey returns the canonical lookup key for two symbols.
func PairSymbolKey(a, b string) string {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}
