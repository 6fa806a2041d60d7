package app

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb/flasharb-bot/business/quotes/domain"
	"github.com/flasharb/flasharb-bot/internal/logger"
)

type fakeAdapter struct {
	id     string
	quotes []*domain.Quote
	err    error
}

func (f *fakeAdapter) VenueID() string { return f.id }

func (f *fakeAdapter) Quotes(context.Context, common.Address, common.Address, *big.Int) ([]*domain.Quote, error) {
	return f.quotes, f.err
}

func testLogger() *logger.Logger {
	return logger.New(io.Discard, io.Discard, io.Discard, logger.LevelError, "test")
}

func fq(venue string, out int64, fee int64) *domain.Quote {
	return &domain.Quote{
		VenueID:          venue,
		AmountOut:        big.NewInt(out),
		FeeOrTickSpacing: fee,
	}
}

func TestQuotesFor_MergesAndSortsDescending(t *testing.T) {
	engine, err := NewEngine([]Adapter{
		&fakeAdapter{id: "a", quotes: []*domain.Quote{fq("a", 100, 500), fq("a", 300, 3000)}},
		&fakeAdapter{id: "b", quotes: []*domain.Quote{fq("b", 200, 30)}},
	}, 4, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	got := engine.QuotesFor(context.Background(), common.Address{}, common.Address{}, big.NewInt(1))
	if len(got) != 3 {
		t.Fatalf("quotes = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].AmountOut.Cmp(got[i].AmountOut) < 0 {
			t.Fatalf("quotes not sorted descending at %d", i)
		}
	}
	if got[0].AmountOut.Int64() != 300 {
		t.Errorf("best quote = %d, want 300", got[0].AmountOut.Int64())
	}
}

func TestQuotesFor_IsolatesAdapterFailure(t *testing.T) {
	engine, err := NewEngine([]Adapter{
		&fakeAdapter{id: "dead", err: errors.New("rpc down")},
		&fakeAdapter{id: "alive", quotes: []*domain.Quote{fq("alive", 42, 500)}},
	}, 4, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	got := engine.QuotesFor(context.Background(), common.Address{}, common.Address{}, big.NewInt(1))
	if len(got) != 1 || got[0].VenueID != "alive" {
		t.Fatalf("failure not isolated: %+v", got)
	}
}

func TestQuotesFor_DropsZeroOutputs(t *testing.T) {
	engine, err := NewEngine([]Adapter{
		&fakeAdapter{id: "a", quotes: []*domain.Quote{fq("a", 0, 500), nil}},
	}, 4, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	if got := engine.QuotesFor(context.Background(), common.Address{}, common.Address{}, big.NewInt(1)); len(got) != 0 {
		t.Fatalf("zero quotes should be dropped, got %d", len(got))
	}
}

func TestBest(t *testing.T) {
	engine, err := NewEngine([]Adapter{
		&fakeAdapter{id: "a", quotes: []*domain.Quote{fq("a", 10, 500)}},
		&fakeAdapter{id: "b", quotes: []*domain.Quote{fq("b", 20, 500)}},
	}, 4, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	best := engine.Best(context.Background(), common.Address{}, common.Address{}, big.NewInt(1))
	if best == nil || best.VenueID != "b" {
		t.Fatalf("Best = %+v, want venue b", best)
	}

	empty, err := NewEngine(nil, 4, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if got := empty.Best(context.Background(), common.Address{}, common.Address{}, big.NewInt(1)); got != nil {
		t.Errorf("Best with no adapters = %+v, want nil", got)
	}
}

func TestSameVenueAndTier(t *testing.T) {
	a := fq("v", 10, 500)
	b := fq("v", 20, 500)
	c := fq("v", 20, 3000)
	d := fq("w", 20, 500)

	if !a.SameVenueAndTier(b) {
		t.Error("same venue and tier should match")
	}
	if a.SameVenueAndTier(c) || a.SameVenueAndTier(d) {
		t.Error("different tier or venue must not match")
	}
}
