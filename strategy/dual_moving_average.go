package strategy

import (
	"github.com/evdnx/goti"

	"github.com/evdnx/gridtrader/config"
	"github.com/evdnx/gridtrader/executor"
	"github.com/evdnx/gridtrader/logger"
	"github.com/evdnx/gridtrader/types"
)

// DualMovingAverage reverses into a fixed stake whenever the short simple
// moving average crosses the long one.
type DualMovingAverage struct {
	*BaseStrategy
	cfg   config.DMAConfig
	short *goti.MovingAverage
	long  *goti.MovingAverage
	cross crossOver
}

func NewDualMovingAverage(cfg config.DMAConfig, exec executor.Executor, log logger.Logger) (*DualMovingAverage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	short, err := goti.NewMovingAverage(goti.SMAMovingAverage, cfg.PeriodShort)
	if err != nil {
		return nil, err
	}
	long, err := goti.NewMovingAverage(goti.SMAMovingAverage, cfg.PeriodLong)
	if err != nil {
		return nil, err
	}
	return &DualMovingAverage{
		BaseStrategy: NewBaseStrategy("dma", cfg.Symbol, exec, log),
		cfg:          cfg,
		short:        short,
		long:         long,
	}, nil
}

func (d *DualMovingAverage) ProcessBar(bar types.Bar) {
	if err := d.short.Add(bar.Close); err != nil {
		d.Log.Warn("dma_bad_bar", logger.Float64("close", bar.Close), logger.Err(err))
		return
	}
	if err := d.long.Add(bar.Close); err != nil {
		d.Log.Warn("dma_bad_bar", logger.Float64("close", bar.Close), logger.Err(err))
		return
	}
	// The long average is the last to become ready.
	long, err := d.long.Calculate()
	if err != nil {
		return
	}
	short, err := d.short.Calculate()
	if err != nil {
		return
	}

	switch d.cross.Update(short, long) {
	case 1:
		d.closePosition(bar.Close, "dma_close")
		d.order(types.Buy, d.cfg.Stake, bar.Close, "dma_long")
	case -1:
		d.closePosition(bar.Close, "dma_close")
		d.order(types.Sell, d.cfg.Stake, bar.Close, "dma_short")
	}
}
