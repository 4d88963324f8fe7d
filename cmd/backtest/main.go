package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/SiloFlight/Strat-Sim/internal/dbg"
	"github.com/SiloFlight/Strat-Sim/pkg/broker"
	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/data/csvbar"
	"github.com/SiloFlight/Strat-Sim/pkg/data/synthetic"
	"github.com/SiloFlight/Strat-Sim/pkg/market"
	"github.com/SiloFlight/Strat-Sim/pkg/sim"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	logger := dbg.NewDevLogger()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("unable to load configuration", zap.Error(err))
	}

	if cfg.Logging.Dir != "" {
		level, err := zapcore.ParseLevel(cfg.Logging.Level)
		if err != nil {
			logger.Fatal("unable to parse log level", zap.Error(err))
		}
		logger = dbg.NewFileLogger(cfg.Logging.Dir, level)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bars, err := loadBars(cfg)
	if err != nil {
		logger.Fatal("unable to load bars", zap.Error(err))
	}
	if len(bars) == 0 {
		logger.Fatal("no bars loaded")
	}

	series, err := market.NewSeries(bars)
	if err != nil {
		logger.Fatal("invalid bar series", zap.Error(err))
	}

	startCash, _ := fixed.FromString(cfg.Simulation.StartCash)
	feePerShare, _ := fixed.FromString(cfg.Simulation.FeePerShare)
	threshold, err := fixed.FromString(cfg.Strategy.Threshold)
	if err != nil {
		logger.Fatal("invalid strategy threshold", zap.Error(err))
	}

	mkt := market.NewMarket(logger,
		map[string]*market.Series{cfg.Simulation.Symbol: series},
		market.NewCappedFill(cfg.Simulation.MaxFillPerBar),
		cfg.Simulation.MarketLatency)
	brk := broker.NewBroker(logger, startCash,
		broker.NewPerShareFee(feePerShare),
		cfg.Simulation.BrokerLatency)

	staleAfter := time.Duration(cfg.Strategy.Window) * cfg.Data.BarInterval
	strategy := NewMeanReversion(logger, cfg.Simulation.Symbol, cfg.Strategy.Window, threshold, cfg.Strategy.OrderQty, staleAfter)

	audit := sim.NewAudit(cfg.Data.BarInterval)
	engine := sim.NewEngine(logger, mkt, brk, strategy, sim.WithAudit(audit))

	for _, bar := range bars {
		if err := engine.InsertEvent(common.UpdateMarketDataEvent{TS: bar.StartTime}); err != nil {
			logger.Fatal("unable to seed market data event", zap.Error(err))
		}
		if err := engine.InsertEvent(common.RunStrategyEvent{TS: bar.StartTime}); err != nil {
			logger.Fatal("unable to seed strategy event", zap.Error(err))
		}
	}

	logger.Info("starting simulation",
		zap.String("symbol", cfg.Simulation.Symbol),
		zap.Int("bars", len(bars)),
		zap.String("start_cash", startCash.String()))

	if err := engine.Run(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Error("error during simulation", zap.Error(err))
		}
	}

	engine.PrintStatistics()
	audit.GenerateReport().Print(logger)
}

func loadBars(cfg *Config) ([]common.Bar, error) {
	if cfg.Data.CsvPath != "" {
		var bars []common.Bar
		reader := csvbar.NewReader(cfg.Data.CsvPath, cfg.Simulation.Symbol)
		err := reader.LoadBars(func(bar common.Bar) error {
			bars = append(bars, bar)
			return nil
		})
		return bars, err
	}

	startPrice, err := fixed.FromString(cfg.Data.StartPrice)
	if err != nil {
		return nil, err
	}
	mu, err := fixed.FromString(cfg.Data.Mu)
	if err != nil {
		return nil, err
	}
	sigma, err := fixed.FromString(cfg.Data.Sigma)
	if err != nil {
		return nil, err
	}

	deltaT := fixed.One.DivInt64(int64(time.Hour * 24 * 365 / cfg.Data.BarInterval))
	generator := synthetic.NewBarGenerator(
		cfg.Simulation.Symbol,
		rand.New(rand.NewSource(cfg.Data.Seed)),
		cfg.Data.StartTime,
		cfg.Data.BarInterval,
		startPrice, mu, sigma, deltaT,
		cfg.Data.Steps)

	var bars []common.Bar
	for {
		bar, err := generator.GetNext()
		if errors.Is(err, synthetic.ErrEof) {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
}
