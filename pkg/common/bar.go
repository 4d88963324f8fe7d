package common

import (
	"time"

	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

// Bar is an OHLCV+VWAP aggregate over the half-open interval [StartTime, EndTime).
type Bar struct {
	Symbol    string      `json:"symbol,omitempty"`
	StartTime time.Time   `json:"start_ts"`
	EndTime   time.Time   `json:"end_ts"`
	Open      fixed.Point `json:"open"`
	High      fixed.Point `json:"high"`
	Low       fixed.Point `json:"low"`
	Close     fixed.Point `json:"close"`
	Volume    int64       `json:"volume"`
	Trades    int64       `json:"trades"`
	VWAP      fixed.Point `json:"vwap"`
}

// Covers reports whether ts falls inside the bar interval.
func (b Bar) Covers(ts time.Time) bool {
	return !ts.Before(b.StartTime) && ts.Before(b.EndTime)
}
