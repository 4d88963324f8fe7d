package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

type Config struct {
	Simulation struct {
		Symbol        string        `yaml:"symbol"`
		StartCash     string        `yaml:"start_cash"`
		FeePerShare   string        `yaml:"fee_per_share"`
		MarketLatency time.Duration `yaml:"market_latency"`
		BrokerLatency time.Duration `yaml:"broker_latency"`
		MaxFillPerBar int64         `yaml:"max_fill_per_bar"`
	} `yaml:"simulation"`

	Data struct {
		CsvPath     string        `yaml:"csv_path"`
		Seed        int64         `yaml:"seed"`
		StartTime   time.Time     `yaml:"start_time"`
		BarInterval time.Duration `yaml:"bar_interval"`
		StartPrice  string        `yaml:"start_price"`
		Mu          string        `yaml:"mu"`
		Sigma       string        `yaml:"sigma"`
		Steps       int64         `yaml:"steps"`
	} `yaml:"data"`

	Strategy struct {
		Window    int    `yaml:"window"`
		Threshold string `yaml:"threshold"`
		OrderQty  int64  `yaml:"order_qty"`
	} `yaml:"strategy"`

	Logging struct {
		Dir   string `yaml:"dir"`
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Simulation.Symbol == "" {
		return fmt.Errorf("simulation.symbol is required")
	}
	if _, err := fixed.FromString(c.Simulation.StartCash); err != nil {
		return fmt.Errorf("simulation.start_cash: %w", err)
	}
	if _, err := fixed.FromString(c.Simulation.FeePerShare); err != nil {
		return fmt.Errorf("simulation.fee_per_share: %w", err)
	}
	if c.Simulation.MaxFillPerBar <= 0 {
		return fmt.Errorf("simulation.max_fill_per_bar must be positive")
	}
	if c.Strategy.Window <= 1 {
		return fmt.Errorf("strategy.window must be greater than one")
	}
	if c.Strategy.OrderQty <= 0 {
		return fmt.Errorf("strategy.order_qty must be positive")
	}
	if c.Data.CsvPath == "" && c.Data.Steps <= 0 {
		return fmt.Errorf("either data.csv_path or data.steps is required")
	}
	return nil
}
