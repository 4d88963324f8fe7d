package historical

import (
	"time"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

// BinaryBar is the on-disk bar layout. Every field is 8 bytes wide so the
// struct carries no padding and maps directly onto the file.
type BinaryBar struct {
	StartTime int64 // unix nanoseconds
	EndTime   int64 // unix nanoseconds
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	Trades    int64
	VWAP      float64
}

func (b *BinaryBar) ToBar(bar *common.Bar) {
	bar.StartTime = time.Unix(0, b.StartTime).UTC()
	bar.EndTime = time.Unix(0, b.EndTime).UTC()
	bar.Open = fixed.FromFloat64(b.Open)
	bar.High = fixed.FromFloat64(b.High)
	bar.Low = fixed.FromFloat64(b.Low)
	bar.Close = fixed.FromFloat64(b.Close)
	bar.Volume = b.Volume
	bar.Trades = b.Trades
	bar.VWAP = fixed.FromFloat64(b.VWAP)
}

func FromBar(bar common.Bar) BinaryBar {
	open, _ := bar.Open.Float64()
	high, _ := bar.High.Float64()
	low, _ := bar.Low.Float64()
	closePx, _ := bar.Close.Float64()
	vwap, _ := bar.VWAP.Float64()
	return BinaryBar{
		StartTime: bar.StartTime.UnixNano(),
		EndTime:   bar.EndTime.UnixNano(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePx,
		Volume:    bar.Volume,
		Trades:    bar.Trades,
		VWAP:      vwap,
	}
}
