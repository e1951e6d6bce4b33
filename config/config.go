package config

import "time"

// Config is the top-level configuration loaded from YAML.
type Config struct {
	Grid     GridConfig     `yaml:"grid"`
	DMA      DMAConfig      `yaml:"dma"`
	Donchian DonchianConfig `yaml:"donchian"`
	Turtle   TurtleConfig   `yaml:"turtle"`
	Backtest BacktestConfig `yaml:"backtest"`
	Audit    AuditConfig    `yaml:"audit"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// GridConfig holds the fixed parameters of one grid rebalancing run.
// PriceBase, PriceUnit, ValueUnit and MaxUnit have no defaults: a grid
// without them is undefined.
type GridConfig struct {
	Symbol string `yaml:"symbol"`

	// Price at which the target position is zero grid units.
	PriceBase float64 `yaml:"price_base"`
	// Price distance per grid unit.
	PriceUnit float64 `yaml:"price_unit"`
	// Order size per grid unit.
	ValueUnit float64 `yaml:"value_unit"`
	// Absolute cap on held grid units.
	MaxUnit int64 `yaml:"max_unit"`

	// Pending orders older than this are treated as filled.
	OrderTimeout time.Duration `yaml:"order_timeout"`
}

// DMAConfig parametrises the dual moving average crossover strategy.
type DMAConfig struct {
	Symbol      string  `yaml:"symbol"`
	PeriodShort int     `yaml:"period_short"`
	PeriodLong  int     `yaml:"period_long"`
	Stake       float64 `yaml:"stake"`
}

// DonchianConfig parametrises the Donchian channel breakout strategy.
type DonchianConfig struct {
	Symbol     string  `yaml:"symbol"`
	PeriodHigh int     `yaml:"period_high"`
	PeriodLow  int     `yaml:"period_low"`
	Stake      float64 `yaml:"stake"`
}

// TurtleConfig parametrises the turtle trend following strategy.
type TurtleConfig struct {
	Symbol string  `yaml:"symbol"`
	N1     int     `yaml:"n1"` // upper channel and ATR period
	N2     int     `yaml:"n2"` // lower channel period
	Stake  float64 `yaml:"stake"`
	MaxAdd int     `yaml:"max_add"`
}

// BacktestConfig describes the simulated broker and the CSV data feed.
type BacktestConfig struct {
	DataFile   string  `yaml:"data_file"`
	DateLayout string  `yaml:"date_layout"` // Go time layout of the datetime column
	From       string  `yaml:"from"`        // inclusive, same layout as DateLayout or RFC3339
	To         string  `yaml:"to"`          // exclusive
	NullValue  float64 `yaml:"null_value"`

	StartCash    float64 `yaml:"start_cash"`
	Commission   float64 `yaml:"commission"` // fraction of notional
	Margin       float64 `yaml:"margin"`     // fraction of notional posted
	SlippagePerc float64 `yaml:"slippage_perc"`

	AnnualReturnFile string `yaml:"annual_return_file"`
}

// AuditConfig locates the append-only audit outputs.
type AuditConfig struct {
	LogFile    string `yaml:"log_file"`
	RecordFile string `yaml:"record_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"` // 0 keeps every rotated file

	// Optional; when set, activity records are also inserted into Postgres.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// LogConfig controls the operational (zap) logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// MetricsConfig controls the Prometheus endpoint; empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}
