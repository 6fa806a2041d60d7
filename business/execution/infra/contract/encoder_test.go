package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	arbitrageDomain "github.com/flasharb/flasharb-bot/business/arbitrage/domain"
)

var (
	encWETH = common.HexToAddress("0x4200000000000000000000000000000000000006")
	encUSDC = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
)

func twoLegOpportunity() *arbitrageDomain.Opportunity {
	borrow := big.NewInt(1_000_000_000_000_000_000)
	return &arbitrageDomain.Opportunity{
		Kind:         arbitrageDomain.StrategyDirect,
		BorrowAsset:  encWETH,
		BorrowAmount: borrow,
		Legs: []*arbitrageDomain.SwapLeg{
			{
				VenueID:      "uniswap-v3",
				TokenIn:      encWETH,
				TokenOut:     encUSDC,
				AmountIn:     borrow,
				AmountOutMin: big.NewInt(2_490_000_000),
			},
			{
				VenueID:      "aerodrome",
				TokenIn:      encUSDC,
				TokenOut:     encWETH,
				AmountIn:     nil, // running balance
				AmountOutMin: big.NewInt(1_000_600_100_000_000_000),
			},
		},
	}
}

func TestEncodeParams_RoundTrip(t *testing.T) {
	enc, err := NewEncoder()
	if err != nil {
		t.Fatal(err)
	}

	opp := twoLegOpportunity()
	minProfit := big.NewInt(600_000_000_000_000)

	packed, err := enc.EncodeParams(opp, minProfit)
	if err != nil {
		t.Fatalf("EncodeParams: %v", err)
	}
	if len(packed) == 0 {
		t.Fatal("empty params")
	}

	vals, err := enc.legsArgs.Unpack(packed)
	if err != nil {
		t.Fatalf("params do not unpack: %v", err)
	}
	if len(vals) != 2 {
		t.Fatalf("unpacked %d values, want legs + policy", len(vals))
	}
}

func TestEncodeParams_Guarantees(t *testing.T) {
	enc, err := NewEncoder()
	if err != nil {
		t.Fatal(err)
	}
	minProfit := big.NewInt(1)

	t.Run("no legs", func(t *testing.T) {
		opp := twoLegOpportunity()
		opp.Legs = nil
		if _, err := enc.EncodeParams(opp, minProfit); err == nil {
			t.Error("zero legs must not encode")
		}
	})

	t.Run("first leg wrong entry asset", func(t *testing.T) {
		opp := twoLegOpportunity()
		opp.Legs[0].TokenIn = encUSDC
		if _, err := enc.EncodeParams(opp, minProfit); err == nil {
			t.Error("leg 0 tokenIn must equal the borrow asset")
		}
	})

	t.Run("final leg wrong exit asset", func(t *testing.T) {
		opp := twoLegOpportunity()
		opp.Legs[1].TokenOut = encUSDC
		if _, err := enc.EncodeParams(opp, minProfit); err == nil {
			t.Error("final leg tokenOut must equal the borrow asset")
		}
	})
}

func TestEncodeExecute_SelectorAndArgs(t *testing.T) {
	enc, err := NewEncoder()
	if err != nil {
		t.Fatal(err)
	}

	calldata, err := enc.EncodeExecute(twoLegOpportunity(), big.NewInt(1))
	if err != nil {
		t.Fatalf("EncodeExecute: %v", err)
	}

	wantSelector := enc.executor.Methods["executeArbitrage"].ID
	if len(calldata) < 4 || string(calldata[:4]) != string(wantSelector) {
		t.Error("calldata does not start with the executeArbitrage selector")
	}
}

func TestPausedRoundTrip(t *testing.T) {
	enc, err := NewEncoder()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := enc.EncodePaused(); err != nil {
		t.Fatalf("EncodePaused: %v", err)
	}

	// A true return is a single ABI-encoded bool word.
	word := make([]byte, 32)
	word[31] = 1
	paused, err := enc.DecodePaused(word)
	if err != nil {
		t.Fatalf("DecodePaused: %v", err)
	}
	if !paused {
		t.Error("want paused=true")
	}
}
