// Package domain contains the core domain types for the risk context.
package domain

import "math/big"

// TradeRecord is one finished trade. NetProfit is signed, in wei of the
// ETH-denominated accounting unit; GasCost is always ≥ 0.
type TradeRecord struct {
	FinishedMs int64
	NetProfit  *big.Int
	GasCost    *big.Int
}

// IsLoss reports whether the trade lost money.
func (r *TradeRecord) IsLoss() bool {
	return r.NetProfit.Sign() < 0
}

// Ring is a bounded ring of the most recent trade records.
type Ring struct {
	records []*TradeRecord
	next    int
	full    bool
}

// NewRing creates a Ring holding up to capacity records.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{records: make([]*TradeRecord, capacity)}
}

// Push appends a record, evicting the oldest when full.
func (r *Ring) Push(rec *TradeRecord) {
	r.records[r.next] = rec
	r.next = (r.next + 1) % len(r.records)
	if r.next == 0 {
		r.full = true
	}
}

// Len returns the number of stored records.
func (r *Ring) Len() int {
	if r.full {
		return len(r.records)
	}
	return r.next
}

// Last returns up to n most recent records, oldest first.
func (r *Ring) Last(n int) []*TradeRecord {
	size := r.Len()
	if n > size {
		n = size
	}
	out := make([]*TradeRecord, 0, n)
	for i := size - n; i < size; i++ {
		idx := i
		if r.full {
			idx = (r.next + i) % len(r.records)
		}
		out = append(out, r.records[idx])
	}
	return out
}
