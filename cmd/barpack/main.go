package main

import (
	"context"
	"encoding/binary"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/data/clickhouse"
	"github.com/SiloFlight/Strat-Sim/pkg/data/csvbar"
	"github.com/SiloFlight/Strat-Sim/pkg/data/duckdb"
	"github.com/SiloFlight/Strat-Sim/pkg/data/historical"
)

// barpack converts a bar dataset from duckdb, clickhouse or csv into the
// packed binary format the historical reader memory-maps.

func main() {
	symbol := flag.String("symbol", "", "symbol")
	source := flag.String("source", "csv", "source kind: csv, duckdb or clickhouse")
	dsn := flag.String("dsn", "", "source path or address")
	table := flag.String("table", "bars", "clickhouse table")
	database := flag.String("database", "default", "clickhouse database")
	username := flag.String("username", "default", "clickhouse username")
	password := flag.String("password", "", "clickhouse password")
	from := flag.String("from", "2018-01-01T00:00:00Z", "range start (RFC3339)")
	to := flag.String("to", "2026-01-01T00:00:00Z", "range end (RFC3339)")
	flag.Parse()

	if *symbol == "" || *dsn == "" {
		slog.Error("symbol and dsn are required")
		os.Exit(1)
	}

	fromTime, err := time.Parse(time.RFC3339, *from)
	if err != nil {
		slog.Error("unable to parse from", "error", err)
		os.Exit(1)
	}
	toTime, err := time.Parse(time.RFC3339, *to)
	if err != nil {
		slog.Error("unable to parse to", "error", err)
		os.Exit(1)
	}

	binFile, err := os.Create(*symbol + ".bin")
	if err != nil {
		slog.Error("unable to create output file", "error", err)
		os.Exit(1)
	}
	defer func(binFile *os.File) {
		_ = binFile.Close()
	}(binFile)

	writeBar := func(bar common.Bar) error {
		return binary.Write(binFile, binary.LittleEndian, historical.FromBar(bar))
	}

	ctx := context.Background()

	switch *source {
	case "csv":
		err = csvbar.NewReader(*dsn, *symbol).LoadBars(writeBar)
	case "duckdb":
		reader := duckdb.NewReader(*dsn)
		if err = reader.Connect(); err == nil {
			defer reader.Close()
			err = reader.LoadBars(ctx, *symbol, fromTime, toTime, writeBar)
		}
	case "clickhouse":
		reader := clickhouse.NewReader(clickhouse.Options{
			Addr:     *dsn,
			Database: *database,
			Username: *username,
			Password: *password,
			Table:    *table,
		})
		if err = reader.Connect(ctx); err == nil {
			defer reader.Close()
			err = reader.LoadBars(ctx, *symbol, fromTime, toTime, writeBar)
		}
	default:
		slog.Error("unknown source kind", "source", *source)
		os.Exit(1)
	}

	if err != nil {
		slog.Error("failed to pack", "error", err)
		_ = os.Remove(*symbol + ".bin")
		os.Exit(1)
	}
	slog.Info("done", "symbol", *symbol)
}
