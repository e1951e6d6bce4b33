package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Validate checks that all required fields are set and values are valid.
// It returns the first encountered error, allowing the caller to surface a
// clear configuration problem before any trading starts.
func (c *Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if err := c.DMA.Validate(); err != nil {
		return err
	}
	if err := c.Donchian.Validate(); err != nil {
		return err
	}
	if err := c.Turtle.Validate(); err != nil {
		return err
	}
	if err := c.Backtest.Validate(); err != nil {
		return err
	}
	if c.Audit.LogFile == "" {
		return errors.New("audit.log_file is required")
	}
	if c.Audit.RecordFile == "" {
		return errors.New("audit.record_file is required")
	}
	if c.Audit.MaxSizeMB < 0 || c.Audit.MaxBackups < 0 {
		return errors.New("audit rotation limits cannot be negative")
	}
	return nil
}

// Validate rejects a grid whose geometry is missing or malformed.
func (g *GridConfig) Validate() error {
	if g.Symbol == "" {
		return errors.New("grid.symbol is required")
	}
	if !positive(g.PriceBase) {
		return fmt.Errorf("grid.price_base (%v) must be a positive number", g.PriceBase)
	}
	if !positive(g.PriceUnit) {
		return fmt.Errorf("grid.price_unit (%v) must be a positive number", g.PriceUnit)
	}
	if !positive(g.ValueUnit) {
		return fmt.Errorf("grid.value_unit (%v) must be a positive number", g.ValueUnit)
	}
	if g.MaxUnit <= 0 {
		return fmt.Errorf("grid.max_unit (%d) must be >= 1", g.MaxUnit)
	}
	if g.OrderTimeout <= 0 {
		return fmt.Errorf("grid.order_timeout (%s) must be positive", g.OrderTimeout)
	}
	return nil
}

func (d *DMAConfig) Validate() error {
	if d.PeriodShort < 1 || d.PeriodLong < 1 {
		return errors.New("dma periods must be >= 1")
	}
	if d.PeriodShort >= d.PeriodLong {
		return fmt.Errorf("dma.period_short (%d) must be below dma.period_long (%d)", d.PeriodShort, d.PeriodLong)
	}
	if !positive(d.Stake) {
		return errors.New("dma.stake must be positive")
	}
	return nil
}

func (d *DonchianConfig) Validate() error {
	if d.PeriodHigh < 1 || d.PeriodLow < 1 {
		return errors.New("donchian periods must be >= 1")
	}
	if !positive(d.Stake) {
		return errors.New("donchian.stake must be positive")
	}
	return nil
}

func (t *TurtleConfig) Validate() error {
	if t.N1 < 1 || t.N2 < 1 {
		return errors.New("turtle periods must be >= 1")
	}
	if !positive(t.Stake) {
		return errors.New("turtle.stake must be positive")
	}
	if t.MaxAdd < 0 {
		return errors.New("turtle.max_add cannot be negative")
	}
	return nil
}

func (b *BacktestConfig) Validate() error {
	if b.StartCash < 0 {
		return errors.New("backtest.start_cash cannot be negative")
	}
	if b.Commission < 0 || b.Commission > 0.1 {
		return fmt.Errorf("backtest.commission (%v) must be between 0 and 0.1", b.Commission)
	}
	if b.Margin <= 0 || b.Margin > 1 {
		return fmt.Errorf("backtest.margin (%v) must be >0 and <=1", b.Margin)
	}
	if b.SlippagePerc < 0 || b.SlippagePerc >= 1 {
		return fmt.Errorf("backtest.slippage_perc (%v) must be >=0 and <1", b.SlippagePerc)
	}
	from, to, err := b.Window()
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return errors.New("backtest.from must be before backtest.to")
	}
	return nil
}

// Window parses the optional From/To bounds. Zero times mean unbounded.
func (b *BacktestConfig) Window() (from, to time.Time, err error) {
	if from, err = parseBound(b.DateLayout, b.From); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("backtest.from: %w", err)
	}
	if to, err = parseBound(b.DateLayout, b.To); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("backtest.to: %w", err)
	}
	return from, to, nil
}

func parseBound(layout, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if layout == "" {
		layout = DefaultDateLayout
	}
	return time.Parse(layout, s)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
