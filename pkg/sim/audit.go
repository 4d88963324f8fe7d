package sim

import (
	"math"
	"time"

	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

type accountSnapshot struct {
	cash   fixed.Point
	equity fixed.Point
	t      time.Time
}

// Audit collects account snapshots over the run and condenses them into a
// Report. Snapshots closer together than minSnapshotInterval are dropped.
type Audit struct {
	minSnapshotInterval time.Duration

	accountSnapshots []accountSnapshot
	fillCount        int
	orderCount       int
	cancelCount      int
}

func NewAudit(minSnapshotInterval time.Duration) *Audit {
	return &Audit{
		minSnapshotInterval: minSnapshotInterval,
	}
}

func (a *Audit) AddAccountSnapshot(cash, equity fixed.Point, t time.Time) {
	if len(a.accountSnapshots) == 0 ||
		t.Sub(a.accountSnapshots[len(a.accountSnapshots)-1].t) >= a.minSnapshotInterval {
		a.addSnapshot(cash, equity, t)
	}
}

func (a *Audit) AddFill()         { a.fillCount++ }
func (a *Audit) AddOrder()        { a.orderCount++ }
func (a *Audit) AddCancellation() { a.cancelCount++ }

func (a *Audit) GenerateReport() Report {

	report := Report{}
	if len(a.accountSnapshots) == 0 {
		return report
	}

	auditedDays := a.dayCount()

	report.InitialEquity = a.accountSnapshots[0].equity
	report.StartDate = a.accountSnapshots[0].t
	report.FinalEquity = a.accountSnapshots[len(a.accountSnapshots)-1].equity
	report.EndDate = a.accountSnapshots[len(a.accountSnapshots)-1].t
	report.FinalCash = a.accountSnapshots[len(a.accountSnapshots)-1].cash

	// --- Return Metrics ---
	if report.InitialEquity.Gt(fixed.Zero) {
		report.TotalProfit = report.FinalEquity.Div(report.InitialEquity).Sub(fixed.One).MulInt64(100).Rescale(2)
	}
	if auditedDays > 0 && report.InitialEquity.Gt(fixed.Zero) && report.FinalEquity.Gt(fixed.Zero) {
		// Annualizing a short run raises the equity ratio to a power of up
		// to 365, which can exceed the decimal coefficient range. Done in
		// floating point, clamped to zero when the result does not fit.
		ratio, _ := report.FinalEquity.Div(report.InitialEquity).Float64()
		pct := (math.Pow(ratio, 365/float64(auditedDays)) - 1) * 100
		if math.IsNaN(pct) || math.IsInf(pct, 0) || math.Abs(pct) >= 1e15 {
			report.AnnualizedReturn = fixed.Zero
		} else {
			report.AnnualizedReturn = fixed.FromFloat64(pct).Rescale(2)
		}
	} else {
		report.AnnualizedReturn = fixed.Zero
	}

	// --- Max Drawdown ---
	maxEquity := report.InitialEquity
	for _, snapshot := range a.accountSnapshots {
		if snapshot.equity.Gt(maxEquity) {
			maxEquity = snapshot.equity
		}
		if maxEquity.Gt(fixed.Zero) {
			drawdown := maxEquity.Sub(snapshot.equity).Div(maxEquity)
			if drawdown.Gt(report.MaxDrawdown) {
				report.MaxDrawdown = drawdown
			}
		}
	}
	if report.MaxDrawdown.Gt(fixed.Zero) {
		report.RecoveryFactor = report.TotalProfit.Div(report.MaxDrawdown.MulInt64(100))
	}
	report.MaxDrawdown = report.MaxDrawdown.MulInt64(100).Rescale(2)

	// --- Activity ---
	report.TotalOrders = a.orderCount
	report.TotalFills = a.fillCount
	report.TotalCancellations = a.cancelCount

	// --- Risk Metrics: Volatility, Sharpe, Sortino ---
	dailyReturns := a.dailyReturns()
	meanReturn := fixed.Mean(dailyReturns)
	vol := fixed.StdDev(dailyReturns, meanReturn)

	if !meanReturn.IsZero() && !vol.IsZero() {
		report.AnnualizedVolatility = vol.Mul(fixed.Sqrt252).MulInt64(100).Rescale(2)
		report.SharpeRatio = fixed.SharpeRatio(dailyReturns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
		report.SortinoRatio = fixed.SortinoRatio(dailyReturns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
	}

	return report
}

func (a *Audit) addSnapshot(cash, equity fixed.Point, t time.Time) {
	a.accountSnapshots = append(a.accountSnapshots, accountSnapshot{
		cash:   cash,
		equity: equity,
		t:      t,
	})
}

func (a *Audit) dayCount() int {
	if len(a.accountSnapshots) < 2 {
		return 1
	}
	start := a.accountSnapshots[0].t
	end := a.accountSnapshots[len(a.accountSnapshots)-1].t
	return int(end.Sub(start).Hours()/24) + 1
}

func (a *Audit) dailyReturns() []fixed.Point {
	var dailyReturns []fixed.Point
	if len(a.accountSnapshots) < 2 {
		return dailyReturns
	}

	var (
		prevDate   = a.accountSnapshots[0].t.Truncate(24 * time.Hour)
		prevEquity = a.accountSnapshots[0].equity
	)

	for _, snapshot := range a.accountSnapshots[1:] {
		currDate := snapshot.t.Truncate(24 * time.Hour)

		if currDate.After(prevDate) && prevEquity.Gt(fixed.Zero) {
			ret := snapshot.equity.Div(prevEquity).Sub(fixed.One)
			dailyReturns = append(dailyReturns, ret)

			prevDate = currDate
			prevEquity = snapshot.equity
		}
	}

	return dailyReturns
}
