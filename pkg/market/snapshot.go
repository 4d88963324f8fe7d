package market

import (
	"slices"
)

// MarketSnapshot is the read-only market view handed to strategies: one
// time-bounded series snapshot per symbol.
type MarketSnapshot struct {
	series map[string]*SeriesSnapshot
}

func (s *MarketSnapshot) Series(symbol string) (*SeriesSnapshot, bool) {
	snap, ok := s.series[symbol]
	return snap, ok
}

func (s *MarketSnapshot) Symbols() []string {
	symbols := make([]string, 0, len(s.series))
	for symbol := range s.series {
		symbols = append(symbols, symbol)
	}
	slices.Sort(symbols)
	return symbols
}
