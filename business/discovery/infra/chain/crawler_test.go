package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/flasharb/flasharb-bot/business/discovery/domain"
)

var (
	crawlToken0 = common.HexToAddress("0x4200000000000000000000000000000000000006")
	crawlToken1 = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	crawlPool   = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(addr.Bytes(), 32))
}

func uintTopic(v int64) common.Hash {
	return common.BigToHash(big.NewInt(v))
}

func TestDecodeCreation_V3PoolCreated(t *testing.T) {
	data, err := intAddrAbi.Pack(big.NewInt(10), crawlPool)
	if err != nil {
		t.Fatal(err)
	}

	f := Factory{VenueID: "uniswap-v3", VenueKind: domain.VenueV3CL, Schema: SchemaV3PoolCreated}
	pool, err := decodeCreation(f, types.Log{
		Topics: []common.Hash{topicV3PoolCreated, addressTopic(crawlToken0), addressTopic(crawlToken1), uintTopic(500)},
		Data:   data,
	})
	if err != nil {
		t.Fatalf("decodeCreation: %v", err)
	}

	if pool.Address != crawlPool {
		t.Errorf("pool = %s", pool.Address.Hex())
	}
	if pool.FeeOrTickSpacing != 500 {
		t.Errorf("fee = %d, want indexed fee 500", pool.FeeOrTickSpacing)
	}
	if pool.IsReserveBased() {
		t.Error("v3 pools carry CL state")
	}
}

func TestDecodeCreation_V2PairCreated(t *testing.T) {
	data, err := addrUintAbi.Pack(crawlPool, big.NewInt(7))
	if err != nil {
		t.Fatal(err)
	}

	f := Factory{VenueID: "baseswap", VenueKind: domain.VenueV2AMM, Schema: SchemaV2PairCreated}
	pool, err := decodeCreation(f, types.Log{
		Topics: []common.Hash{topicV2PairCreated, addressTopic(crawlToken0), addressTopic(crawlToken1)},
		Data:   data,
	})
	if err != nil {
		t.Fatalf("decodeCreation: %v", err)
	}

	if pool.FeeOrTickSpacing != 30 {
		t.Errorf("fee = %d, want fixed 30 bp", pool.FeeOrTickSpacing)
	}
	if !pool.IsReserveBased() {
		t.Error("v2 pairs price from reserves")
	}
}

func TestDecodeCreation_StablePoolCreated(t *testing.T) {
	data, err := addrUintAbi.Pack(crawlPool, big.NewInt(3))
	if err != nil {
		t.Fatal(err)
	}
	f := Factory{VenueID: "aerodrome", VenueKind: domain.VenueStableCL, Schema: SchemaStablePoolCreated}

	tests := []struct {
		name    string
		stable  int64
		wantFee int64
	}{
		{"stable", 1, 5},
		{"volatile", 0, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := decodeCreation(f, types.Log{
				Topics: []common.Hash{topicStablePoolCreated, addressTopic(crawlToken0), addressTopic(crawlToken1), uintTopic(tt.stable)},
				Data:   data,
			})
			if err != nil {
				t.Fatalf("decodeCreation: %v", err)
			}
			if pool.FeeOrTickSpacing != tt.wantFee {
				t.Errorf("fee = %d, want %d", pool.FeeOrTickSpacing, tt.wantFee)
			}
			// Solidly forks expose getReserves(), not liquidity()/slot0():
			// the refresher must read them like a v2 pair.
			if !pool.IsReserveBased() {
				t.Error("classic stable pools price from reserves")
			}
		})
	}
}

func TestDecodeCreation_TickPoolCreated(t *testing.T) {
	data, err := addrOnlyAbi.Pack(crawlPool)
	if err != nil {
		t.Fatal(err)
	}

	f := Factory{VenueID: "aerodrome-slipstream", VenueKind: domain.VenueStableCL, Schema: SchemaTickPoolCreated}
	pool, err := decodeCreation(f, types.Log{
		Topics: []common.Hash{topicTickPoolCreated, addressTopic(crawlToken0), addressTopic(crawlToken1), uintTopic(200)},
		Data:   data,
	})
	if err != nil {
		t.Fatalf("decodeCreation: %v", err)
	}

	if pool.FeeOrTickSpacing != 200 {
		t.Errorf("tick spacing = %d, want 200", pool.FeeOrTickSpacing)
	}
	if pool.IsReserveBased() {
		t.Error("tick-spacing pools carry CL state")
	}
}

func TestDecodeCreation_RejectsSameToken(t *testing.T) {
	data, err := addrUintAbi.Pack(crawlPool, big.NewInt(0))
	if err != nil {
		t.Fatal(err)
	}

	f := Factory{VenueID: "baseswap", VenueKind: domain.VenueV2AMM, Schema: SchemaV2PairCreated}
	_, err = decodeCreation(f, types.Log{
		Topics: []common.Hash{topicV2PairCreated, addressTopic(crawlToken0), addressTopic(crawlToken0)},
		Data:   data,
	})
	if err == nil {
		t.Error("token0 == token1 must not decode")
	}
}
