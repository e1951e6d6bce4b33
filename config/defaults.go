package config

import "time"

// Default values for optional configuration fields. The grid geometry
// (price_base, price_unit, value_unit, max_unit) deliberately has none.
const (
	DefaultOrderTimeout = 60 * time.Second

	DefaultDMAPeriodShort = 15
	DefaultDMAPeriodLong  = 100
	DefaultDMAStake       = 1000

	DefaultDonchianPeriodHigh = 20
	DefaultDonchianPeriodLow  = 10
	DefaultDonchianStake      = 100

	DefaultTurtleN1     = 20
	DefaultTurtleN2     = 10
	DefaultTurtleStake  = 300
	DefaultTurtleMaxAdd = 3

	DefaultDateLayout   = "2006.01.02 15:04"
	DefaultStartCash    = 1000.0
	DefaultMargin       = 0.02
	DefaultSlippagePerc = 0.005

	DefaultAuditLogFile    = "access.log"
	DefaultAuditRecordFile = "activity.csv"
	DefaultAuditMaxSizeMB  = 100

	DefaultLogLevel    = "info"
	DefaultMetricsPath = "/metrics"
)

func (c *Config) applyDefaults() {
	if c.Grid.OrderTimeout == 0 {
		c.Grid.OrderTimeout = DefaultOrderTimeout
	}

	// Supplementary strategies trade the grid symbol unless told otherwise.
	if c.DMA.Symbol == "" {
		c.DMA.Symbol = c.Grid.Symbol
	}
	if c.DMA.PeriodShort == 0 {
		c.DMA.PeriodShort = DefaultDMAPeriodShort
	}
	if c.DMA.PeriodLong == 0 {
		c.DMA.PeriodLong = DefaultDMAPeriodLong
	}
	if c.DMA.Stake == 0 {
		c.DMA.Stake = DefaultDMAStake
	}

	if c.Donchian.Symbol == "" {
		c.Donchian.Symbol = c.Grid.Symbol
	}
	if c.Donchian.PeriodHigh == 0 {
		c.Donchian.PeriodHigh = DefaultDonchianPeriodHigh
	}
	if c.Donchian.PeriodLow == 0 {
		c.Donchian.PeriodLow = DefaultDonchianPeriodLow
	}
	if c.Donchian.Stake == 0 {
		c.Donchian.Stake = DefaultDonchianStake
	}

	if c.Turtle.Symbol == "" {
		c.Turtle.Symbol = c.Grid.Symbol
	}
	if c.Turtle.N1 == 0 {
		c.Turtle.N1 = DefaultTurtleN1
	}
	if c.Turtle.N2 == 0 {
		c.Turtle.N2 = DefaultTurtleN2
	}
	if c.Turtle.Stake == 0 {
		c.Turtle.Stake = DefaultTurtleStake
	}
	if c.Turtle.MaxAdd == 0 {
		c.Turtle.MaxAdd = DefaultTurtleMaxAdd
	}

	if c.Backtest.DateLayout == "" {
		c.Backtest.DateLayout = DefaultDateLayout
	}
	if c.Backtest.StartCash == 0 {
		c.Backtest.StartCash = DefaultStartCash
	}
	if c.Backtest.Margin == 0 {
		c.Backtest.Margin = DefaultMargin
	}
	if c.Backtest.SlippagePerc == 0 {
		c.Backtest.SlippagePerc = DefaultSlippagePerc
	}

	if c.Audit.LogFile == "" {
		c.Audit.LogFile = DefaultAuditLogFile
	}
	if c.Audit.RecordFile == "" {
		c.Audit.RecordFile = DefaultAuditRecordFile
	}
	if c.Audit.MaxSizeMB == 0 {
		c.Audit.MaxSizeMB = DefaultAuditMaxSizeMB
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
