package domain

import (
	"math/big"
	"testing"
)

func rec(profit int64) *TradeRecord {
	return &TradeRecord{NetProfit: big.NewInt(profit), GasCost: big.NewInt(1)}
}

func TestRing_BoundedEviction(t *testing.T) {
	r := NewRing(3)

	for i := int64(1); i <= 5; i++ {
		r.Push(rec(i))
	}

	if r.Len() != 3 {
		t.Fatalf("len = %d, want 3", r.Len())
	}

	last := r.Last(3)
	want := []int64{3, 4, 5}
	for i, w := range want {
		if last[i].NetProfit.Int64() != w {
			t.Errorf("last[%d] = %d, want %d", i, last[i].NetProfit.Int64(), w)
		}
	}
}

func TestRing_LastBeforeFull(t *testing.T) {
	r := NewRing(10)
	r.Push(rec(1))
	r.Push(rec(2))

	last := r.Last(5)
	if len(last) != 2 {
		t.Fatalf("len = %d, want 2", len(last))
	}
	if last[0].NetProfit.Int64() != 1 || last[1].NetProfit.Int64() != 2 {
		t.Error("order must be oldest first")
	}
}

func TestIsLoss(t *testing.T) {
	if rec(1).IsLoss() || rec(0).IsLoss() {
		t.Error("non-negative profit is not a loss")
	}
	if !rec(-1).IsLoss() {
		t.Error("negative profit is a loss")
	}
}
