// Package snapshot persists the pool catalog as a single JSON document.
package snapshot

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sugawarayuuta/sonnet"

	"github.com/flasharb/flasharb-bot/business/discovery/domain"
	"github.com/flasharb/flasharb-bot/internal/apperror"
	"github.com/flasharb/flasharb-bot/internal/logger"
)

// Version is bumped whenever the on-disk schema changes; a mismatch
// forces a full rescan.
const Version = 1

// File is the on-disk document. Big integers are base-10 strings.
type File struct {
	Version         int        `json:"version"`
	TimestampMillis int64      `json:"timestampMillis"`
	LastScanBlock   uint64     `json:"lastScanBlock"`
	Pools           []poolJSON `json:"pools"`
	TradePairs      []pairJSON `json:"tradePairs"`
}

type poolJSON struct {
	VenueID          string `json:"venueId"`
	VenueKind        string `json:"venueKind"`
	Address          string `json:"poolAddress"`
	Token0           string `json:"token0"`
	Token1           string `json:"token1"`
	Token0Symbol     string `json:"token0Symbol"`
	Token1Symbol     string `json:"token1Symbol"`
	Token0Decimals   uint8  `json:"token0Decimals"`
	Token1Decimals   uint8  `json:"token1Decimals"`
	FeeOrTickSpacing int64  `json:"feeOrTickSpacing"`
	Concentrated     bool   `json:"concentrated"`
	Liquidity        string `json:"liquidity"`
	Reserve0         string `json:"reserve0"`
	Reserve1         string `json:"reserve1"`
	LiquidityUSD     string `json:"liquidityUsd"`
	LastUpdatedMs    int64  `json:"lastUpdatedMillis"`
	IsActive         bool   `json:"isActive"`
}

type pairJSON struct {
	TokenA           string   `json:"tokenA"`
	TokenB           string   `json:"tokenB"`
	Pools            []string `json:"pools"`
	BestLiquidityUSD string   `json:"bestLiquidityUsd"`
}

// Store reads and writes the catalog snapshot atomically.
type Store struct {
	path   string
	maxAge time.Duration
	logger logger.LoggerInterface
}

// NewStore creates a Store writing to path; snapshots older than maxAge
// are refused on load.
func NewStore(path string, maxAge time.Duration, log logger.LoggerInterface) *Store {
	return &Store{path: path, maxAge: maxAge, logger: log}
}

// Save writes pools and pairs atomically: temp file, fsync, rename.
func (s *Store) Save(ctx context.Context, pools []*domain.Pool, pairs []*domain.TradePair, lastScanBlock uint64) error {
	doc := File{
		Version:         Version,
		TimestampMillis: time.Now().UnixMilli(),
		LastScanBlock:   lastScanBlock,
		Pools:           make([]poolJSON, 0, len(pools)),
		TradePairs:      make([]pairJSON, 0, len(pairs)),
	}

	for _, p := range pools {
		doc.Pools = append(doc.Pools, encodePool(p))
	}
	for _, tp := range pairs {
		doc.TradePairs = append(doc.TradePairs, encodePair(tp))
	}

	data, err := sonnet.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperror.New(apperror.CodeSnapshotWriteFailed, apperror.WithCause(err))
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return apperror.New(apperror.CodeSnapshotWriteFailed, apperror.WithCause(err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".pools-*.json")
	if err != nil {
		return apperror.New(apperror.CodeSnapshotWriteFailed, apperror.WithCause(err))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperror.New(apperror.CodeSnapshotWriteFailed, apperror.WithCause(err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperror.New(apperror.CodeSnapshotWriteFailed, apperror.WithCause(err))
	}
	if err := tmp.Close(); err != nil {
		return apperror.New(apperror.CodeSnapshotWriteFailed, apperror.WithCause(err))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return apperror.New(apperror.CodeSnapshotWriteFailed, apperror.WithCause(err))
	}

	s.logger.Debug(ctx, "snapshot saved", "path", s.path, "pools", len(doc.Pools), "last_scan_block", lastScanBlock)
	return nil
}

// Load reads and validates the snapshot. A missing file returns
// (nil, 0, false, nil); a stale or structurally invalid file returns an
// error so the caller can trigger a full rescan.
func (s *Store) Load(ctx context.Context) ([]*domain.Pool, uint64, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, false, nil
		}
		return nil, 0, false, apperror.New(apperror.CodeSnapshotCorrupt, apperror.WithCause(err))
	}

	var doc File
	if err := sonnet.Unmarshal(data, &doc); err != nil {
		return nil, 0, false, apperror.New(apperror.CodeSnapshotCorrupt, apperror.WithCause(err))
	}

	if doc.Version != Version {
		return nil, 0, false, apperror.New(apperror.CodeSnapshotCorrupt,
			apperror.WithContext(fmt.Sprintf("version %d, want %d", doc.Version, Version)))
	}

	age := time.Since(time.UnixMilli(doc.TimestampMillis))
	if age > s.maxAge {
		return nil, 0, false, apperror.New(apperror.CodeSnapshotStale,
			apperror.WithContext(fmt.Sprintf("snapshot age %s exceeds %s", age.Round(time.Minute), s.maxAge)))
	}

	pools := make([]*domain.Pool, 0, len(doc.Pools))
	for i, pj := range doc.Pools {
		p, err := decodePool(pj)
		if err != nil {
			return nil, 0, false, apperror.New(apperror.CodeSnapshotCorrupt,
				apperror.WithCause(err),
				apperror.WithContext(fmt.Sprintf("pool %d", i)))
		}
		pools = append(pools, p)
	}

	s.logger.Info(ctx, "snapshot loaded",
		"path", s.path, "pools", len(pools), "age", age.Round(time.Second), "last_scan_block", doc.LastScanBlock)
	return pools, doc.LastScanBlock, true, nil
}

func encodePool(p *domain.Pool) poolJSON {
	return poolJSON{
		VenueID:          p.VenueID,
		VenueKind:        string(p.VenueKind),
		Address:          p.Address.Hex(),
		Token0:           p.Token0.Hex(),
		Token1:           p.Token1.Hex(),
		Token0Symbol:     p.Token0Symbol,
		Token1Symbol:     p.Token1Symbol,
		Token0Decimals:   p.Token0Decimals,
		Token1Decimals:   p.Token1Decimals,
		FeeOrTickSpacing: p.FeeOrTickSpacing,
		Concentrated:     p.Concentrated,
		Liquidity:        bigString(p.Liquidity),
		Reserve0:         bigString(p.Reserve0),
		Reserve1:         bigString(p.Reserve1),
		LiquidityUSD:     p.LiquidityUSD.String(),
		LastUpdatedMs:    p.LastUpdatedMs,
		IsActive:         p.Active,
	}
}

func encodePair(tp *domain.TradePair) pairJSON {
	pools := make([]string, 0, len(tp.Pools))
	for _, p := range tp.Pools {
		pools = append(pools, p.Address.Hex())
	}
	return pairJSON{
		TokenA:           tp.TokenA.Hex(),
		TokenB:           tp.TokenB.Hex(),
		Pools:            pools,
		BestLiquidityUSD: tp.BestLiquidityUSD.String(),
	}
}

func decodePool(pj poolJSON) (*domain.Pool, error) {
	if !common.IsHexAddress(pj.Address) || !common.IsHexAddress(pj.Token0) || !common.IsHexAddress(pj.Token1) {
		return nil, fmt.Errorf("malformed address")
	}
	if strings.EqualFold(pj.Token0, pj.Token1) {
		return nil, fmt.Errorf("token0 == token1")
	}
	if pj.VenueID == "" {
		return nil, fmt.Errorf("missing venueId")
	}

	liq, err := parseBig(pj.Liquidity)
	if err != nil {
		return nil, fmt.Errorf("liquidity: %w", err)
	}
	r0, err := parseBig(pj.Reserve0)
	if err != nil {
		return nil, fmt.Errorf("reserve0: %w", err)
	}
	r1, err := parseBig(pj.Reserve1)
	if err != nil {
		return nil, fmt.Errorf("reserve1: %w", err)
	}
	liqUSD, err := decimal.NewFromString(pj.LiquidityUSD)
	if err != nil {
		return nil, fmt.Errorf("liquidityUsd: %w", err)
	}

	p := domain.NewPool(pj.VenueID, domain.VenueKind(pj.VenueKind),
		common.HexToAddress(pj.Address), common.HexToAddress(pj.Token0), common.HexToAddress(pj.Token1),
		pj.FeeOrTickSpacing)
	p.Token0Symbol = pj.Token0Symbol
	p.Token1Symbol = pj.Token1Symbol
	p.Token0Decimals = pj.Token0Decimals
	p.Token1Decimals = pj.Token1Decimals
	p.Concentrated = pj.Concentrated
	p.Liquidity = liq
	p.Reserve0 = r0
	p.Reserve1 = r1
	p.LiquidityUSD = liqUSD
	p.LastUpdatedMs = pj.LastUpdatedMs
	p.Active = pj.IsActive
	return p, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a base-10 integer: %q", s)
	}
	return v, nil
}
