// Package backtest replays historical bars through a strategy and the paper
// executor.
package backtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/evdnx/gridtrader/executor"
	"github.com/evdnx/gridtrader/logger"
	"github.com/evdnx/gridtrader/metrics"
	"github.com/evdnx/gridtrader/strategy"
	"github.com/evdnx/gridtrader/types"
)

// BarExecutor is an executor that settles queued orders bar by bar.
type BarExecutor interface {
	executor.Executor
	ProcessBar(symbol string, bar types.Bar) []types.OrderUpdate
}

// BarClock reports the time of the bar being replayed, so order timeouts
// are measured in market time.
type BarClock struct {
	mu  sync.RWMutex
	now time.Time
}

func (c *BarClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *BarClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Result summarises one run.
type Result struct {
	Bars          int
	StartValue    float64
	FinalValue    float64
	AnnualReturns []YearReturn
}

var ErrNoData = errors.New("backtest: no bars")

// Runner drives one strategy over one symbol.
type Runner struct {
	Exec     BarExecutor
	Strategy strategy.Strategy
	Clock    *BarClock // optional, advanced to each bar's time
	Log      logger.Logger
}

// Run replays bars in order. For every bar, orders queued on the previous
// bar are settled first and their updates delivered, then the strategy sees
// the bar, then the account value is sampled. Cancelling ctx stops the
// replay early and returns the partial result with ctx.Err().
func (r *Runner) Run(ctx context.Context, bars []types.Bar) (Result, error) {
	if len(bars) == 0 {
		return Result{}, ErrNoData
	}
	log := r.Log
	if log == nil {
		log = logger.NewNop()
	}
	symbol := r.Strategy.Instrument()
	start := r.Exec.Value()
	ar := NewAnnualReturn()

	if r.Clock != nil {
		r.Clock.Set(bars[0].Time)
	}
	r.Strategy.Start()
	log.Info("backtest_started",
		logger.String("strategy", r.Strategy.Name()),
		logger.String("symbol", symbol),
		logger.Int("bars", len(bars)),
		logger.Float64("start_value", start),
	)

	res := Result{StartValue: start}
	for _, bar := range bars {
		if err := ctx.Err(); err != nil {
			res.FinalValue = r.Exec.Value()
			res.AnnualReturns = ar.Returns()
			return res, err
		}
		if r.Clock != nil {
			r.Clock.Set(bar.Time)
		}
		for _, u := range r.Exec.ProcessBar(symbol, bar) {
			r.Strategy.OnOrderUpdate(u)
		}
		r.Strategy.ProcessBar(bar)

		v := r.Exec.Value()
		ar.Observe(bar.Time, v)
		metrics.EquityGauge.Set(v)
		res.Bars++
	}

	res.FinalValue = r.Exec.Value()
	res.AnnualReturns = ar.Returns()
	log.Info("backtest_finished",
		logger.String("strategy", r.Strategy.Name()),
		logger.Int("bars", res.Bars),
		logger.Float64("final_value", res.FinalValue),
	)
	return res, nil
}
