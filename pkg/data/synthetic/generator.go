package synthetic

import (
	"errors"
	"math/rand"
	"time"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

var (
	pointFive = fixed.FromInt64(5, 1)
	ErrEof    = errors.New("EOF")
)

// BarGenerator produces a geometric brownian motion bar series with a fixed
// bar interval. Deterministic for a given rng seed.
type BarGenerator struct {
	symbol string
	rng    *rand.Rand

	startTime time.Time
	interval  time.Duration
	mu        fixed.Point
	sigma     fixed.Point
	deltaT    fixed.Point
	steps     int64
	t         int64

	avgVolume      int64
	volumeVariance float64

	deltaLogPre1 fixed.Point
	deltaLogPre2 fixed.Point

	lastTime  time.Time
	lastPrice fixed.Point

	normPriceDigits int
}

func NewBarGenerator(
	symbol string,
	rng *rand.Rand,
	startTime time.Time,
	interval time.Duration,
	startPrice, mu, sigma, deltaT fixed.Point,
	steps int64) *BarGenerator {

	return &BarGenerator{
		symbol: symbol,
		rng:    rng,

		startTime: startTime,
		interval:  interval,
		mu:        mu,
		sigma:     sigma,
		deltaT:    deltaT,
		steps:     steps,

		avgVolume:      100,
		volumeVariance: 0.5,

		// Pre-calculated values for GBM
		deltaLogPre1: mu.Sub(sigma.Mul(sigma).Mul(pointFive)).Mul(deltaT),
		deltaLogPre2: sigma.Mul(deltaT.Sqrt()),

		lastTime:  startTime,
		lastPrice: startPrice,

		normPriceDigits: 5,
	}
}

func (g *BarGenerator) SetVolumeParameters(avgVolume int64, volumeVariance float64) {
	g.avgVolume = avgVolume
	g.volumeVariance = volumeVariance
}

func (g *BarGenerator) SetPriceDigits(digits int) {
	g.normPriceDigits = digits
}

func (g *BarGenerator) GetNext() (common.Bar, error) {
	var bar common.Bar

	if g.t >= g.steps {
		return bar, ErrEof
	}

	open := g.lastPrice

	z := g.rng.NormFloat64()
	deltaLog := g.deltaLogPre1.Add(g.deltaLogPre2.Mul(fixed.FromFloat64(z)))
	closePx := g.lastPrice.Mul(deltaLog.Exp())

	high, low := open, closePx
	if closePx.Gt(open) {
		high, low = closePx, open
	}
	wickNoise := g.rng.Float64() * 0.001
	high = high.Mul(fixed.FromFloat64(1.0 + wickNoise))
	low = low.Mul(fixed.FromFloat64(1.0 - wickNoise))

	bar.Symbol = g.symbol
	bar.StartTime = g.lastTime
	bar.EndTime = g.lastTime.Add(g.interval)
	bar.Open = open.Rescale(g.normPriceDigits)
	bar.High = high.Rescale(g.normPriceDigits)
	bar.Low = low.Rescale(g.normPriceDigits)
	bar.Close = closePx.Rescale(g.normPriceDigits)
	bar.Volume = g.generateVolume()
	bar.Trades = bar.Volume/10 + 1
	bar.VWAP = open.Add(closePx).Add(high).Add(low).DivInt64(4).Rescale(g.normPriceDigits)

	g.lastPrice = closePx
	g.lastTime = bar.EndTime
	g.t++

	return bar, nil
}

func (g *BarGenerator) generateVolume() int64 {
	variation := g.rng.NormFloat64() * g.volumeVariance
	volume := int64(float64(g.avgVolume) * (1.0 + variation))
	if volume <= 0 {
		volume = 1
	}
	return volume
}
