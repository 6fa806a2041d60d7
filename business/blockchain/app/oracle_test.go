package app

import (
	"math/big"
	"testing"

	"github.com/flasharb/flasharb-bot/business/blockchain/domain"
)

func gwei(n int64) *big.Int {
	return domain.Gwei(n)
}

func observe(o *GasOracle, baseFeeGwei int64, gasUsed, gasLimit uint64) {
	o.Observe(&domain.BlockFees{
		BaseFee:  gwei(baseFeeGwei),
		GasUsed:  gasUsed,
		GasLimit: gasLimit,
	})
}

func TestCurrentGas_CalmPriorityFee(t *testing.T) {
	o := NewGasOracle()
	observe(o, 100, 50_000_000, 100_000_000)
	observe(o, 102, 50_000_000, 100_000_000) // +2% delta, under the 10% threshold

	gas := o.CurrentGas()
	if gas.PriorityFee.Cmp(gwei(2)) != 0 {
		t.Errorf("priority = %s, want 2 gwei on calm base fees", gas.PriorityFee)
	}
	wantMax := new(big.Int).Add(gwei(102), gwei(2))
	if gas.MaxFee.Cmp(wantMax) != 0 {
		t.Errorf("maxFee = %s, want baseFee+priority = %s", gas.MaxFee, wantMax)
	}
}

func TestCurrentGas_AcceleratingPriorityFee(t *testing.T) {
	o := NewGasOracle()
	observe(o, 100, 50_000_000, 100_000_000)
	observe(o, 115, 50_000_000, 100_000_000) // +15% of base, over the threshold

	gas := o.CurrentGas()
	if gas.PriorityFee.Cmp(gwei(5)) != 0 {
		t.Errorf("priority = %s, want 5 gwei under acceleration", gas.PriorityFee)
	}
}

func TestCurrentGas_EmptyWindow(t *testing.T) {
	o := NewGasOracle()
	gas := o.CurrentGas()
	if gas.BaseFee.Sign() != 0 {
		t.Errorf("baseFee = %s, want 0 with no observations", gas.BaseFee)
	}
}

func TestPredictNextBaseFee(t *testing.T) {
	tests := []struct {
		name     string
		baseGwei int64
		gasUsed  uint64
		gasLimit uint64
		want     *big.Int
	}{
		{
			// At exactly the target (half the limit) the fee holds.
			name: "at_target", baseGwei: 100, gasUsed: 50_000_000, gasLimit: 100_000_000,
			want: gwei(100),
		},
		{
			// Full blocks push the fee up by 1/8.
			name: "full_block", baseGwei: 100, gasUsed: 100_000_000, gasLimit: 100_000_000,
			want: new(big.Int).Add(gwei(100), new(big.Int).Div(gwei(100), big.NewInt(8))),
		},
		{
			// Empty blocks pull it down by 1/8.
			name: "empty_block", baseGwei: 100, gasUsed: 0, gasLimit: 100_000_000,
			want: new(big.Int).Sub(gwei(100), new(big.Int).Div(gwei(100), big.NewInt(8))),
		},
		{
			// 75% utilization: excess = half the target → +1/16.
			name: "three_quarters", baseGwei: 160, gasUsed: 75_000_000, gasLimit: 100_000_000,
			want: new(big.Int).Add(gwei(160), new(big.Int).Div(gwei(160), big.NewInt(16))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewGasOracle()
			observe(o, tt.baseGwei, tt.gasUsed, tt.gasLimit)

			got := o.PredictNextBaseFee()
			if got.Cmp(tt.want) != 0 {
				t.Errorf("PredictNextBaseFee = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOptimalParams_UrgencyScaling(t *testing.T) {
	o := NewGasOracle()
	observe(o, 100, 50_000_000, 100_000_000)

	tests := []struct {
		urgency      int
		wantPriority *big.Int
	}{
		{1, new(big.Int).Div(gwei(2), big.NewInt(3))},
		{3, gwei(2)},
		{5, new(big.Int).Div(new(big.Int).Mul(gwei(2), big.NewInt(5)), big.NewInt(3))},
		{0, new(big.Int).Div(gwei(2), big.NewInt(3))},                                   // clamped to 1
		{99, new(big.Int).Div(new(big.Int).Mul(gwei(2), big.NewInt(5)), big.NewInt(3))}, // clamped to 5
	}

	for _, tt := range tests {
		params := o.OptimalParams(tt.urgency)
		if params.PriorityFee.Cmp(tt.wantPriority) != 0 {
			t.Errorf("urgency %d: priority = %s, want %s", tt.urgency, params.PriorityFee, tt.wantPriority)
		}
		if params.GasLimit != 500_000 {
			t.Errorf("urgency %d: gasLimit = %d, want 500000", tt.urgency, params.GasLimit)
		}
	}
}

func TestObserve_WindowBounded(t *testing.T) {
	o := NewGasOracle()
	for i := int64(1); i <= 50; i++ {
		observe(o, i, 50_000_000, 100_000_000)
	}

	if got := o.WindowSize(); got != 20 {
		t.Errorf("window = %d, want 20", got)
	}
	// The newest observation survives.
	if gas := o.CurrentGas(); gas.BaseFee.Cmp(gwei(50)) != 0 {
		t.Errorf("latest base fee = %s, want 50 gwei", gas.BaseFee)
	}
}
