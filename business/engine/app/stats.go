// Package app contains the cycle orchestrator and engine statistics.
package app

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Stats aggregates process-wide engine counters. Reset only at process
// start.
type Stats struct {
	mu                 sync.Mutex
	cycles             uint64
	opportunitiesFound uint64
	executed           uint64
	succeeded          uint64
	cumulativeProfit   decimal.Decimal
	totalCycleTime     time.Duration
}

// NewStats creates zeroed Stats.
func NewStats() *Stats {
	return &Stats{}
}

// CycleDone books one finished cycle.
func (s *Stats) CycleDone(elapsed time.Duration, found int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles++
	s.opportunitiesFound += uint64(found)
	s.totalCycleTime += elapsed
}

// Executed books one pipeline run; success also books realized profit.
func (s *Stats) Executed(success bool, profitUSD decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executed++
	if success {
		s.succeeded++
		s.cumulativeProfit = s.cumulativeProfit.Add(profitUSD)
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Cycles             uint64
	OpportunitiesFound uint64
	Executed           uint64
	Succeeded          uint64
	CumulativeProfit   decimal.Decimal
	AvgCycleTime       time.Duration
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Cycles:             s.cycles,
		OpportunitiesFound: s.opportunitiesFound,
		Executed:           s.executed,
		Succeeded:          s.succeeded,
		CumulativeProfit:   s.cumulativeProfit,
	}
	if s.cycles > 0 {
		snap.AvgCycleTime = s.totalCycleTime / time.Duration(s.cycles)
	}
	return snap
}
