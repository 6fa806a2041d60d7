package token

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ERC20Reader reads token metadata on-chain. Implemented by the blockchain
// context; injected so the registry stays transport-free.
type ERC20Reader interface {
	Symbol(ctx context.Context, addr common.Address) (string, error)
	Decimals(ctx context.Context, addr common.Address) (uint8, error)
}

// Registry maps addresses to token Info. Known tokens are seeded at
// startup; unknown tokens resolve lazily through the ERC20Reader.
type Registry struct {
	mu     sync.RWMutex
	tokens map[string]*Info
	reader ERC20Reader

	ethUSD decimal.Decimal
	btcUSD decimal.Decimal
}

// NewRegistry creates a Registry seeded with the well-known token set.
func NewRegistry(reader ERC20Reader) *Registry {
	r := &Registry{
		tokens: make(map[string]*Info, len(seeds)),
		reader: reader,
	}
	for _, s := range seeds {
		r.tokens[Key(s.addr)] = &Info{
			Address:  s.addr,
			Symbol:   s.symbol,
			Decimals: s.decimals,
			Class:    s.class,
		}
	}
	return r
}

// UpdatePrices refreshes the ETH and BTC anchors and reprices every class.
func (r *Registry) UpdatePrices(ethUSD, btcUSD decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ethUSD = ethUSD
	r.btcUSD = btcUSD
	for _, t := range r.tokens {
		t.PriceUSD = r.classPrice(t.Class)
	}
}

func (r *Registry) classPrice(c Class) decimal.Decimal {
	switch c {
	case ClassETH:
		return r.ethUSD
	case ClassBTC:
		return r.btcUSD
	case ClassUSD:
		return decimal.NewFromInt(1)
	case ClassEUR:
		return eurUSDFixed
	default:
		return decimal.Zero
	}
}

// Get returns the Info for addr if present.
func (r *Registry) Get(addr common.Address) (*Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[Key(addr)]
	return t, ok
}

// IsSeeded reports whether addr is part of the startup-known set.
func (r *Registry) IsSeeded(addr common.Address) bool {
	for _, s := range seeds {
		if s.addr == addr {
			return true
		}
	}
	return false
}

// IsBorrowable reports whether addr is flash-loan-borrowable.
func (r *Registry) IsBorrowable(addr common.Address) bool {
	return borrowable[addr]
}

// BorrowableBySymbol reports whether sym names a borrowable asset.
func (r *Registry) BorrowableBySymbol(sym string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for addr := range borrowable {
		if t, ok := r.tokens[Key(addr)]; ok && t.Symbol == sym {
			return true
		}
	}
	return false
}

// Resolve returns the Info for addr, reading symbol() and decimals()
// on-chain on first sight. On read failure the symbol defaults to
// "UNKNOWN" and decimals to 18; a nil, false return means the address
// could not be resolved at all and callers should drop the pool.
func (r *Registry) Resolve(ctx context.Context, addr common.Address) (*Info, bool) {
	if t, ok := r.Get(addr); ok {
		return t, true
	}
	if r.reader == nil {
		return nil, false
	}

	sym, symErr := r.reader.Symbol(ctx, addr)
	if symErr != nil {
		sym = "UNKNOWN"
	}
	dec, decErr := r.reader.Decimals(ctx, addr)
	if decErr != nil {
		dec = 18
	}
	if symErr != nil && decErr != nil {
		return nil, false
	}
	if dec > 36 {
		return nil, false
	}

	t := &Info{Address: addr, Symbol: sym, Decimals: dec, Class: ClassNone}

	r.mu.Lock()
	// lost race: keep the first writer's record
	if prior, ok := r.tokens[Key(addr)]; ok {
		r.mu.Unlock()
		return prior, true
	}
	r.tokens[Key(addr)] = t
	r.mu.Unlock()

	return t, true
}

// ValueUSD converts a raw token amount to USD. Unpriced tokens contribute 0.
func (r *Registry) ValueUSD(addr common.Address, amount *big.Int) decimal.Decimal {
	t, ok := r.Get(addr)
	if !ok || amount == nil || t.PriceUSD.IsZero() {
		return decimal.Zero
	}
	units := decimal.NewFromBigInt(amount, -int32(t.Decimals))
	return units.Mul(t.PriceUSD)
}

// ETHPriceUSD returns the current ETH anchor price.
func (r *Registry) ETHPriceUSD() decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ethUSD
}

// SymbolOf returns the symbol for addr, or the short hex form when unknown.
func (r *Registry) SymbolOf(addr common.Address) string {
	if t, ok := r.Get(addr); ok {
		return t.Symbol
	}
	return addr.Hex()[:8]
}

// AddressOf returns the address for a known symbol.
func (r *Registry) AddressOf(symbol string) (common.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tokens {
		if t.Symbol == symbol {
			return t.Address, true
		}
	}
	return common.Address{}, false
}

// SetReader installs the on-chain metadata reader after the RPC client
// exists. Must be called before discovery starts resolving.
func (r *Registry) SetReader(reader ERC20Reader) {
	r.mu.Lock()
	r.reader = reader
	r.mu.Unlock()
}
