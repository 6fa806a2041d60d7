package snapshot

import (
	"context"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sugawarayuuta/sonnet"

	"github.com/flasharb/flasharb-bot/business/discovery/domain"
	"github.com/flasharb/flasharb-bot/internal/apperror"
	"github.com/flasharb/flasharb-bot/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard, io.Discard, io.Discard, logger.LevelError, "test")
}

func samplePools() []*domain.Pool {
	p1 := domain.NewPool("uniswap-v3", domain.VenueV3CL,
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
		common.HexToAddress("0x4200000000000000000000000000000000000006"),
		common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		500)
	p1.Token0Symbol, p1.Token1Symbol = "WETH", "USDC"
	p1.Token0Decimals, p1.Token1Decimals = 18, 6
	p1.Liquidity, _ = new(big.Int).SetString("340282366920938463463374607431768211455", 10) // 2^128-1
	p1.LiquidityUSD = decimal.RequireFromString("123456.78")
	p1.LastUpdatedMs = 1700000000000
	p1.Active = true

	p2 := domain.NewPool("baseswap", domain.VenueV2AMM,
		common.HexToAddress("0x2222222222222222222222222222222222222222"),
		common.HexToAddress("0x4200000000000000000000000000000000000006"),
		common.HexToAddress("0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb"),
		30)
	p2.Token0Symbol, p2.Token1Symbol = "WETH", "DAI"
	p2.Reserve0 = big.NewInt(5_000_000_000_000_000_000)
	p2.Reserve1, _ = new(big.Int).SetString("12500000000000000000000", 10)
	p2.LiquidityUSD = decimal.NewFromInt(25_000)
	p2.Active = false

	// Classic stable pool: stable-cl kind but reserve-based.
	p3 := domain.NewPool("aerodrome", domain.VenueStableCL,
		common.HexToAddress("0x3333333333333333333333333333333333333333"),
		common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		common.HexToAddress("0xd9aAEc86B65D86f6A7B5B1b0c42FFA531710b6CA"),
		5)
	p3.Token0Symbol, p3.Token1Symbol = "USDC", "USDbC"
	p3.Reserve0 = big.NewInt(900_000_000_000)
	p3.Reserve1 = big.NewInt(905_000_000_000)
	p3.LiquidityUSD = decimal.NewFromInt(1_805_000)
	p3.Active = true

	return []*domain.Pool{p1, p2, p3}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "pools.json"), 7*24*time.Hour, testLogger())
	ctx := context.Background()

	pools := samplePools()
	graph := domain.BuildGraph(pools)
	if err := store.Save(ctx, pools, graph.Pairs(), 13_500_000); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, lastBlock, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load = ok=%v err=%v", ok, err)
	}
	if lastBlock != 13_500_000 {
		t.Errorf("lastScanBlock = %d, want 13500000", lastBlock)
	}
	if len(loaded) != len(pools) {
		t.Fatalf("pools = %d, want %d", len(loaded), len(pools))
	}

	byKey := make(map[string]*domain.Pool)
	for _, p := range loaded {
		byKey[p.Key()] = p
	}
	for _, want := range pools {
		got, ok := byKey[want.Key()]
		if !ok {
			t.Fatalf("pool %s missing after reload", want.Address.Hex())
		}
		if got.VenueID != want.VenueID || got.VenueKind != want.VenueKind {
			t.Errorf("venue mismatch for %s", want.Address.Hex())
		}
		if got.Active != want.Active {
			t.Errorf("active mismatch for %s", want.Address.Hex())
		}
		if got.Liquidity.Cmp(want.Liquidity) != 0 {
			t.Errorf("liquidity %s ≠ %s", got.Liquidity, want.Liquidity)
		}
		if got.Reserve0.Cmp(want.Reserve0) != 0 || got.Reserve1.Cmp(want.Reserve1) != 0 {
			t.Errorf("reserves mismatch for %s", want.Address.Hex())
		}
		if got.IsReserveBased() != want.IsReserveBased() {
			t.Errorf("pricing style lost on reload for %s", want.Address.Hex())
		}
		if !got.LiquidityUSD.Equal(want.LiquidityUSD) {
			t.Errorf("liquidityUsd %s ≠ %s", got.LiquidityUSD, want.LiquidityUSD)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "pools.json"), time.Hour, testLogger())

	_, _, ok, err := store.Load(context.Background())
	if err != nil || ok {
		t.Fatalf("missing file: ok=%v err=%v, want ok=false err=nil", ok, err)
	}
}

func TestLoad_RefusesStaleSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pools.json")
	store := NewStore(path, 7*24*time.Hour, testLogger())

	// Snapshot stamped 8 days ago must be refused.
	doc := File{
		Version:         Version,
		TimestampMillis: time.Now().Add(-8 * 24 * time.Hour).UnixMilli(),
		LastScanBlock:   100,
	}
	data, err := sonnet.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, ok, err := store.Load(context.Background())
	if ok {
		t.Fatal("stale snapshot must not load")
	}
	if !apperror.IsCode(err, apperror.CodeSnapshotStale) {
		t.Fatalf("err = %v, want SNAPSHOT_STALE", err)
	}

	// A fresh save overwrites it and loads cleanly.
	if err := store.Save(context.Background(), samplePools(), nil, 200); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, lastBlock, ok, err := store.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("reload after overwrite: ok=%v err=%v", ok, err)
	}
	if lastBlock != 200 {
		t.Errorf("lastScanBlock = %d, want 200", lastBlock)
	}
}

func TestLoad_RefusesVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pools.json")
	store := NewStore(path, time.Hour, testLogger())

	doc := File{Version: Version + 1, TimestampMillis: time.Now().UnixMilli()}
	data, _ := sonnet.Marshal(doc)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, ok, err := store.Load(context.Background())
	if ok || !apperror.IsCode(err, apperror.CodeSnapshotCorrupt) {
		t.Fatalf("version mismatch: ok=%v err=%v, want SNAPSHOT_CORRUPT", ok, err)
	}
}

func TestLoad_RefusesStructurallyInvalidPool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pools.json")
	store := NewStore(path, time.Hour, testLogger())

	doc := File{
		Version:         Version,
		TimestampMillis: time.Now().UnixMilli(),
		Pools: []poolJSON{{
			VenueID:   "uniswap-v3",
			VenueKind: "v3-cl",
			Address:   "not-an-address",
			Token0:    "0x4200000000000000000000000000000000000006",
			Token1:    "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		}},
	}
	data, _ := sonnet.Marshal(doc)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, ok, err := store.Load(context.Background())
	if ok || !apperror.IsCode(err, apperror.CodeSnapshotCorrupt) {
		t.Fatalf("bad pool: ok=%v err=%v, want SNAPSHOT_CORRUPT", ok, err)
	}
}

func TestSave_BigIntsAsBase10Strings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pools.json")
	store := NewStore(path, time.Hour, testLogger())

	if err := store.Save(context.Background(), samplePools(), nil, 1); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc File
	if err := sonnet.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if doc.Pools[0].Liquidity != "340282366920938463463374607431768211455" {
		t.Errorf("liquidity serialized as %q, want full base-10 string", doc.Pools[0].Liquidity)
	}
}
