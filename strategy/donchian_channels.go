package strategy

import (
	"github.com/evdnx/gridtrader/config"
	"github.com/evdnx/gridtrader/executor"
	"github.com/evdnx/gridtrader/logger"
	"github.com/evdnx/gridtrader/types"
)

// DonchianChannels buys a stake on every close above the prior-bars high
// channel and sells one on every close below the low channel.
type DonchianChannels struct {
	*BaseStrategy
	cfg   config.DonchianConfig
	highs *window
	lows  *window
}

func NewDonchianChannels(cfg config.DonchianConfig, exec executor.Executor, log logger.Logger) (*DonchianChannels, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &DonchianChannels{
		BaseStrategy: NewBaseStrategy("donchian", cfg.Symbol, exec, log),
		cfg:          cfg,
		highs:        newWindow(cfg.PeriodHigh),
		lows:         newWindow(cfg.PeriodLow),
	}, nil
}

// Channels returns the current upper and lower bands and whether both are
// defined. The bar being evaluated is not part of them.
func (d *DonchianChannels) Channels() (upper, lower float64, ok bool) {
	if !d.highs.Full() || !d.lows.Full() {
		return 0, 0, false
	}
	return d.highs.Max(), d.lows.Min(), true
}

func (d *DonchianChannels) ProcessBar(bar types.Bar) {
	if upper, lower, ok := d.Channels(); ok {
		switch {
		case bar.Close > upper:
			d.order(types.Buy, d.cfg.Stake, bar.Close, "donchian_breakout_up")
		case bar.Close < lower:
			d.order(types.Sell, d.cfg.Stake, bar.Close, "donchian_breakout_down")
		}
	}
	d.highs.Add(bar.High)
	d.lows.Add(bar.Low)
}
