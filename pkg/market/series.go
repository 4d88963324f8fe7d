package market

import (
	"fmt"
	"sort"
	"time"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
)

// Series is an ordered, pairwise-disjoint sequence of bars for one symbol.
// It is validated once at construction and never mutated afterwards.
type Series struct {
	bars []common.Bar
}

func NewSeries(bars []common.Bar) (*Series, error) {
	for i, bar := range bars {
		if !bar.StartTime.Before(bar.EndTime) {
			return nil, fmt.Errorf("bar %d: start time must be strictly less than end time (%s >= %s)",
				i, bar.StartTime, bar.EndTime)
		}
		if i > 0 {
			prev := bars[i-1]
			if !prev.StartTime.Before(bar.StartTime) {
				return nil, fmt.Errorf("bar %d: start times must be strictly increasing (%s after %s)",
					i, bar.StartTime, prev.StartTime)
			}
			if bar.StartTime.Before(prev.EndTime) {
				return nil, fmt.Errorf("bars %d and %d: intervals must be disjoint", i-1, i)
			}
		}
	}

	owned := make([]common.Bar, len(bars))
	copy(owned, bars)
	return &Series{bars: owned}, nil
}

func (s *Series) Len() int {
	return len(s.bars)
}

// Bars returns a copy of the underlying sequence.
func (s *Series) Bars() []common.Bar {
	out := make([]common.Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// CurrentBar returns the unique bar covering ts, if any.
func (s *Series) CurrentBar(ts time.Time) (common.Bar, bool) {
	return currentBar(s.bars, ts)
}

// MostRecentBar returns the last bar fully completed before ts, if any.
func (s *Series) MostRecentBar(ts time.Time) (common.Bar, bool) {
	return mostRecentBar(s.bars, ts)
}

// Snapshot restricts lookups to bars whose interval is fully known at the
// cutoff, so a strategy observing the snapshot cannot look ahead.
func (s *Series) Snapshot(cutoff time.Time) *SeriesSnapshot {
	n := sort.Search(len(s.bars), func(i int) bool {
		return s.bars[i].EndTime.After(cutoff)
	})
	return &SeriesSnapshot{bars: s.bars[:n]}
}

// SeriesSnapshot is a read-only, time-bounded view of a Series.
type SeriesSnapshot struct {
	bars []common.Bar
}

func (s *SeriesSnapshot) Len() int {
	return len(s.bars)
}

func (s *SeriesSnapshot) Bars() []common.Bar {
	out := make([]common.Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

func (s *SeriesSnapshot) CurrentBar(ts time.Time) (common.Bar, bool) {
	return currentBar(s.bars, ts)
}

func (s *SeriesSnapshot) MostRecentBar(ts time.Time) (common.Bar, bool) {
	return mostRecentBar(s.bars, ts)
}

func currentBar(bars []common.Bar, ts time.Time) (common.Bar, bool) {
	idx := sort.Search(len(bars), func(i int) bool {
		return bars[i].EndTime.After(ts)
	})
	if idx == len(bars) || !bars[idx].Covers(ts) {
		return common.Bar{}, false
	}
	return bars[idx], true
}

func mostRecentBar(bars []common.Bar, ts time.Time) (common.Bar, bool) {
	idx := sort.Search(len(bars), func(i int) bool {
		return !bars[i].EndTime.Before(ts)
	})
	if idx == 0 {
		return common.Bar{}, false
	}
	return bars[idx-1], true
}
