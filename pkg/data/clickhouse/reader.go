package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

// Options is the connection subset needed to read bars.
type Options struct {
	Addr     string
	Database string
	Username string
	Password string
	Table    string
}

// Reader streams OHLCV bars out of a ClickHouse table over the native
// protocol. The table carries one row per bar across all symbols.
type Reader struct {
	options Options
	conn    driver.Conn
}

func NewReader(options Options) *Reader {
	return &Reader{
		options: options,
	}
}

func (r *Reader) Connect(ctx context.Context) error {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{r.options.Addr},
		Auth: clickhouse.Auth{
			Database: r.options.Database,
			Username: r.options.Username,
			Password: r.options.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": uint64(0),
		},
	})
	if err != nil {
		return fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("clickhouse ping: %w", err)
	}
	r.conn = conn
	return nil
}

func (r *Reader) Close() {
	_ = r.conn.Close()
}

func (r *Reader) LoadBars(ctx context.Context, symbol string, from, to time.Time, handler func(bar common.Bar) error) error {

	query := fmt.Sprintf(`SELECT start_ts, end_ts, open, high, low, close, volume, trades, vwap FROM %s WHERE symbol = ? AND start_ts BETWEEN ? AND ? ORDER BY start_ts`, r.options.Table)

	rows, err := r.conn.Query(ctx, query, symbol, from, to)
	if err != nil {
		return fmt.Errorf("error preparing query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bar common.Bar
		var open, high, low, closePx, vwap float64
		if err := rows.Scan(&bar.StartTime, &bar.EndTime, &open, &high, &low, &closePx, &bar.Volume, &bar.Trades, &vwap); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		bar.Symbol = symbol
		bar.Open = fixed.FromFloat64(open)
		bar.High = fixed.FromFloat64(high)
		bar.Low = fixed.FromFloat64(low)
		bar.Close = fixed.FromFloat64(closePx)
		bar.VWAP = fixed.FromFloat64(vwap)
		if err := handler(bar); err != nil {
			return fmt.Errorf("error processing bar: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}

	return nil
}
