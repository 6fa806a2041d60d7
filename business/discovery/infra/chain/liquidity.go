package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/flasharb/flasharb-bot/internal/apperror"
	"github.com/flasharb/flasharb-bot/internal/circuitbreaker"
)

// PoolState is one liquidity read. Exactly one of the reserve pair or
// the liquidity/sqrt-price pair is populated, per venue kind.
type PoolState struct {
	Reserve0     *big.Int
	Reserve1     *big.Int
	Liquidity    *big.Int
	SqrtPriceX96 *big.Int
}

// StateReader reads pool reserves and CL state via eth_call.
type StateReader struct {
	client *ethclient.Client
	cb     *circuitbreaker.CircuitBreaker[[]byte]
}

// NewStateReader creates a StateReader guarded by a circuit breaker.
func NewStateReader(client *ethclient.Client) *StateReader {
	return &StateReader{
		client: client,
		cb:     circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("pool-state")),
	}
}

func (r *StateReader) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return r.cb.Execute(func() ([]byte, error) {
		return r.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
}

// Reserves reads getReserves() from a reserve-based pool.
func (r *StateReader) Reserves(ctx context.Context, pool common.Address) (*PoolState, error) {
	data, err := poolABI.Pack("getReserves")
	if err != nil {
		return nil, err
	}

	out, err := r.call(ctx, pool, data)
	if err != nil {
		return nil, apperror.New(apperror.CodeLiquidityReadFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("getReserves %s", pool.Hex())))
	}

	vals, err := poolABI.Unpack("getReserves", out)
	if err != nil || len(vals) < 2 {
		return nil, apperror.New(apperror.CodeLiquidityReadFailed,
			apperror.WithCause(err),
			apperror.WithContext("getReserves decode"))
	}

	return &PoolState{
		Reserve0: vals[0].(*big.Int),
		Reserve1: vals[1].(*big.Int),
	}, nil
}

// CLState reads liquidity() and slot0().sqrtPriceX96 from a CL pool.
func (r *StateReader) CLState(ctx context.Context, pool common.Address) (*PoolState, error) {
	liqData, err := poolABI.Pack("liquidity")
	if err != nil {
		return nil, err
	}
	out, err := r.call(ctx, pool, liqData)
	if err != nil {
		return nil, apperror.New(apperror.CodeLiquidityReadFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("liquidity %s", pool.Hex())))
	}
	liqVals, err := poolABI.Unpack("liquidity", out)
	if err != nil || len(liqVals) < 1 {
		return nil, apperror.New(apperror.CodeLiquidityReadFailed,
			apperror.WithCause(err),
			apperror.WithContext("liquidity decode"))
	}

	slotData, err := poolABI.Pack("slot0")
	if err != nil {
		return nil, err
	}
	out, err = r.call(ctx, pool, slotData)
	if err != nil {
		return nil, apperror.New(apperror.CodeLiquidityReadFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("slot0 %s", pool.Hex())))
	}
	slotVals, err := poolABI.Unpack("slot0", out)
	if err != nil || len(slotVals) < 1 {
		return nil, apperror.New(apperror.CodeLiquidityReadFailed,
			apperror.WithCause(err),
			apperror.WithContext("slot0 decode"))
	}

	return &PoolState{
		Liquidity:    liqVals[0].(*big.Int),
		SqrtPriceX96: slotVals[0].(*big.Int),
	}, nil
}

// ERC20Reader resolves token metadata for the token registry.
type ERC20Reader struct {
	client *ethclient.Client
}

// NewERC20Reader creates an ERC20Reader.
func NewERC20Reader(client *ethclient.Client) *ERC20Reader {
	return &ERC20Reader{client: client}
}

// Symbol reads symbol() from the token contract.
func (r *ERC20Reader) Symbol(ctx context.Context, addr common.Address) (string, error) {
	data, err := tokenABI.Pack("symbol")
	if err != nil {
		return "", err
	}
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return "", err
	}
	vals, err := tokenABI.Unpack("symbol", out)
	if err != nil || len(vals) < 1 {
		return "", fmt.Errorf("symbol decode: %w", err)
	}
	sym, ok := vals[0].(string)
	if !ok || sym == "" {
		return "", fmt.Errorf("empty symbol")
	}
	return sym, nil
}

// Decimals reads decimals() from the token contract.
func (r *ERC20Reader) Decimals(ctx context.Context, addr common.Address) (uint8, error) {
	data, err := tokenABI.Pack("decimals")
	if err != nil {
		return 0, err
	}
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return 0, err
	}
	vals, err := tokenABI.Unpack("decimals", out)
	if err != nil || len(vals) < 1 {
		return 0, fmt.Errorf("decimals decode: %w", err)
	}
	dec, ok := vals[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals type %T", vals[0])
	}
	return dec, nil
}
