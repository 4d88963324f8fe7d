package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

// Reader streams OHLCV bars out of a duckdb database. Each symbol lives in
// its own <symbol>_bars table.
type Reader struct {
	dataSourceName string
	db             *sql.DB
}

func NewReader(dataSourceName string) *Reader {
	return &Reader{
		dataSourceName: dataSourceName,
	}
}

func (r *Reader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	r.db = db
	return nil
}

func (r *Reader) Close() {
	_ = r.db.Close()
}

func (r *Reader) LoadBars(ctx context.Context, symbol string, from, to time.Time, handler func(bar common.Bar) error) error {

	query := fmt.Sprintf(`SELECT start_ts, end_ts, open, high, low, close, volume, trades, vwap FROM %s_bars WHERE start_ts BETWEEN ? AND ? ORDER BY start_ts`, symbol)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return fmt.Errorf("error preparing query: %w", err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			panic(err)
		}
	}(rows)

	for rows.Next() {
		var bar common.Bar
		var open, high, low, closePx, vwap string
		if err := rows.Scan(&bar.StartTime, &bar.EndTime, &open, &high, &low, &closePx, &bar.Volume, &bar.Trades, &vwap); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		bar.Symbol = symbol
		if bar.Open, err = fixed.FromString(open); err != nil {
			return fmt.Errorf("error parsing open: %w", err)
		}
		if bar.High, err = fixed.FromString(high); err != nil {
			return fmt.Errorf("error parsing high: %w", err)
		}
		if bar.Low, err = fixed.FromString(low); err != nil {
			return fmt.Errorf("error parsing low: %w", err)
		}
		if bar.Close, err = fixed.FromString(closePx); err != nil {
			return fmt.Errorf("error parsing close: %w", err)
		}
		if bar.VWAP, err = fixed.FromString(vwap); err != nil {
			return fmt.Errorf("error parsing vwap: %w", err)
		}
		if err := handler(bar); err != nil {
			return fmt.Errorf("error processing bar: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}

	return nil
}
